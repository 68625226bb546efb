package audio

import (
	"math"
)

// LevelScale maps a full-scale RMS of 1.0 to the level units the animation
// divides by.
const LevelScale = 1000.0

// Level is the RMS loudness of a 16-bit buffer in per-mille of full scale.
func Level(buf []int16) float64 {
	if len(buf) == 0 {
		return 0
	}
	var sum float64
	for _, s := range buf {
		v := float64(s) / math.MaxInt16
		sum += v * v
	}
	return math.Min(math.Sqrt(sum/float64(len(buf)))*LevelScale, LevelScale)
}

func levelFloats(buf []float32) float64 {
	if len(buf) == 0 {
		return 0
	}
	var sum float64
	for _, s := range buf {
		sum += float64(s) * float64(s)
	}
	return math.Min(math.Sqrt(sum/float64(len(buf)))*LevelScale, LevelScale)
}

// Envelope splits a clip into buckets and returns the level of each.
func Envelope(c *Clip, buckets int) []float64 {
	if buckets <= 0 || len(c.Samples) == 0 {
		return nil
	}
	if buckets > len(c.Samples) {
		buckets = len(c.Samples)
	}
	out := make([]float64, buckets)
	n := len(c.Samples)
	for i := 0; i < buckets; i++ {
		lo := i * n / buckets
		hi := (i + 1) * n / buckets
		out[i] = levelFloats(c.Samples[lo:hi])
	}
	return out
}
