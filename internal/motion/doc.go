// Package motion turns amplitude samples into the scale of the record button.
//
// Each sample sets a target scale of 1 + sample/divisor, clamped to a fixed
// range. A damped [Spring] follows the target, integrated with [RK4]:
//
//   - [Grow]: springy response used while recording
//   - [Settle]: calmer response used on the way back to rest
//
// # Example
//
//	a := motion.NewAnimator(motion.DefaultConfig())
//	a.Observe(level, true)
//	scale := a.Advance(time.Second / 60)
package motion
