package motion

// RK4 is a classic fourth-order Runge-Kutta stepper. It keeps its stage
// buffers between calls, so one RK4 must not be shared across goroutines.
type RK4 struct {
	k1, k2, k3, k4 State
	mid            State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) resize(n int) {
	if len(r.k1) == n {
		return
	}
	r.k1 = make(State, n)
	r.k2 = make(State, n)
	r.k3 = make(State, n)
	r.k4 = make(State, n)
	r.mid = make(State, n)
}

// stage evaluates sys at x + h*k and stores the slope in dst.
func (r *RK4) stage(dst State, sys System, x, k State, t, h float64) {
	for i := range x {
		r.mid[i] = x[i] + h*k[i]
	}
	copy(dst, sys.Derive(r.mid, t))
}

// Step advances x by dt from time t and returns the new state. x is not
// modified.
func (r *RK4) Step(sys System, x State, t, dt float64) State {
	r.resize(len(x))
	half := dt / 2

	copy(r.k1, sys.Derive(x, t))
	r.stage(r.k2, sys, x, r.k1, t+half, half)
	r.stage(r.k3, sys, x, r.k2, t+half, half)
	r.stage(r.k4, sys, x, r.k3, t+dt, dt)

	out := make(State, len(x))
	for i := range x {
		out[i] = x[i] + dt/6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}
	return out
}
