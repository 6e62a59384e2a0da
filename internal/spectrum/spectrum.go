// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package spectrum implements uniformly sampled spectra and the pure
// transforms applied to them by the calculators.
//
// A Sampled value is never modified by a transform: every transform returns a
// new spectrum. Callers that mutate Values directly must Clone first.
package spectrum

import (
	"fmt"
	"math"
)

// Sampled is a function of wavelength sampled at Start + i*Sampling.
type Sampled struct {
	// Start is the wavelength of the first sample in nm.
	Start float64 `json:"start" yaml:"start"`

	// Sampling is the distance between samples in nm.
	Sampling float64 `json:"sampling" yaml:"sampling"`

	// Values holds one value per sample.
	Values []float64 `json:"values" yaml:"values"`
}

// New returns a spectrum over values. It rejects empty data and a
// non-positive sampling.
func New(start, sampling float64, values []float64) (*Sampled, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("spectrum has no samples")
	}
	if !(sampling > 0) {
		return nil, fmt.Errorf("spectrum sampling must be positive, got %g", sampling)
	}
	return &Sampled{Start: start, Sampling: sampling, Values: values}, nil
}

// Constant returns a spectrum of n samples all equal to v.
func Constant(start, sampling float64, n int, v float64) *Sampled {
	values := make([]float64, n)
	for i := range values {
		values[i] = v
	}
	return &Sampled{Start: start, Sampling: sampling, Values: values}
}

// FromFunc samples f on [start, end] at the given sampling.
func FromFunc(start, end, sampling float64, f func(x float64) float64) *Sampled {
	n := Length(start, end, sampling)
	values := make([]float64, n)
	for i := range values {
		values[i] = f(start + float64(i)*sampling)
	}
	return &Sampled{Start: start, Sampling: sampling, Values: values}
}

// Length returns the number of samples covering [start, end] at sampling,
// (end-start)/sampling + 1, with a small tolerance for rounding.
func Length(start, end, sampling float64) int {
	n := int(math.Floor((end-start)/sampling+1e-9)) + 1
	if n < 1 {
		return 1
	}
	return n
}

// Len returns the number of samples.
func (s *Sampled) Len() int { return len(s.Values) }

// End returns the wavelength of the last sample.
func (s *Sampled) End() float64 { return s.X(len(s.Values) - 1) }

// X returns the wavelength of sample i.
func (s *Sampled) X(i int) float64 { return s.Start + float64(i)*s.Sampling }

// Clone returns a deep copy.
func (s *Sampled) Clone() *Sampled {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)
	return &Sampled{Start: s.Start, Sampling: s.Sampling, Values: values}
}

// Y returns the value at wavelength x by linear interpolation. Outside the
// sampled range it returns 0.
func (s *Sampled) Y(x float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	pos := (x - s.Start) / s.Sampling
	if pos < -1e-9 || pos > float64(len(s.Values)-1)+1e-9 {
		return 0
	}
	i := int(math.Floor(pos))
	if i < 0 {
		i = 0
	}
	if i >= len(s.Values)-1 {
		return s.Values[len(s.Values)-1]
	}
	frac := pos - float64(i)
	return s.Values[i]*(1-frac) + s.Values[i+1]*frac
}

// Max returns the largest value and its index.
func (s *Sampled) Max() (float64, int) {
	best, at := math.Inf(-1), -1
	for i, v := range s.Values {
		if v > best {
			best, at = v, i
		}
	}
	return best, at
}

// SameGrid reports whether s and o share start, end and length.
func (s *Sampled) SameGrid(o *Sampled) bool {
	return s.Start == o.Start && s.End() == o.End() && len(s.Values) == len(o.Values)
}

// Series is a pair of parallel arrays: X (wavelength or pixel) and Y.
type Series struct {
	X []float64 `json:"x" yaml:"x"`
	Y []float64 `json:"y" yaml:"y"`
}

// Len returns the number of points.
func (d Series) Len() int { return len(d.X) }

// Clone returns a deep copy.
func (d Series) Clone() Series {
	return Series{X: append([]float64(nil), d.X...), Y: append([]float64(nil), d.Y...)}
}

// Data returns the samples with indexes first..last inclusive, clamped to the
// spectrum. The returned arrays are copies.
func (s *Sampled) Data(first, last int) Series {
	if first < 0 {
		first = 0
	}
	if last > len(s.Values)-1 {
		last = len(s.Values) - 1
	}
	if last < first {
		return Series{X: []float64{}, Y: []float64{}}
	}
	n := last - first + 1
	out := Series{X: make([]float64, n), Y: make([]float64, n)}
	for i := 0; i < n; i++ {
		out.X[i] = s.X(first + i)
		out.Y[i] = s.Values[first+i]
	}
	return out
}
