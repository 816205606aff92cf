package pcm

import (
	"slices"

	"github.com/viterin/vek"
)

// Mono is a single-channel sample buffer.
type Mono []float64

// NewMono returns a silent buffer of n frames.
func NewMono(n int) Mono {
	return make(Mono, n)
}

// Clone returns an independent copy of m.
func (m Mono) Clone() Mono {
	return slices.Clone(m)
}

// Gain multiplies every sample by g in place.
func (m Mono) Gain(g float64) {
	if len(m) == 0 || g == 1 {
		return
	}
	vek.MulNumber_Inplace(m, g)
}

// Peak returns the largest absolute sample value.
func (m Mono) Peak() float64 {
	if len(m) == 0 {
		return 0
	}
	return max(vek.Max(m), -vek.Min(m))
}

// Stereo is a two-channel buffer stored as separate channel slices. L and R
// always have the same length.
type Stereo struct {
	L, R []float64
}

// NewStereo returns a silent stereo buffer of n frames.
func NewStereo(n int) Stereo {
	return Stereo{L: make([]float64, n), R: make([]float64, n)}
}

// Frames returns the number of frames in s.
func (s Stereo) Frames() int {
	return len(s.L)
}

// Add accumulates o into s frame by frame. o must not be longer than s.
func (s Stereo) Add(o Stereo) {
	if o.Frames() == 0 {
		return
	}
	vek.Add_Inplace(s.L[:o.Frames()], o.L)
	vek.Add_Inplace(s.R[:o.Frames()], o.R)
}

// Gain multiplies both channels by g in place.
func (s Stereo) Gain(g float64) {
	Mono(s.L).Gain(g)
	Mono(s.R).Gain(g)
}

// Peak returns the largest absolute sample value across both channels.
func (s Stereo) Peak() float64 {
	return max(Mono(s.L).Peak(), Mono(s.R).Peak())
}

// Interleave returns the frames as interleaved 16-bit samples (L, R, L, R...).
func (s Stereo) Interleave() []int16 {
	out := make([]int16, 2*s.Frames())
	for i := range s.L {
		out[2*i] = ToInt16(s.L[i])
		out[2*i+1] = ToInt16(s.R[i])
	}
	return out
}
