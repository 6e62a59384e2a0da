// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package spectrum

import "math"

// Transform maps a spectrum to a new spectrum. Implementations must not
// modify their input.
type Transform func(*Sampled) *Sampled

// Apply runs the transforms in order and returns the final spectrum. The
// input is left untouched.
func Apply(s *Sampled, ts ...Transform) *Sampled {
	out := s
	for _, t := range ts {
		out = t(out)
	}
	if out == s {
		return s.Clone()
	}
	return out
}

// Map applies f to every value.
func Map(f func(x, y float64) float64) Transform {
	return func(s *Sampled) *Sampled {
		out := s.Clone()
		for i, v := range out.Values {
			out.Values[i] = f(out.X(i), v)
		}
		return out
	}
}

// Scale multiplies every value by k.
func Scale(k float64) Transform {
	return Map(func(_, y float64) float64 { return y * k })
}

// Sqrt replaces every value by its square root. Negative values become 0.
func Sqrt() Transform {
	return Map(func(_, y float64) float64 {
		if y <= 0 {
			return 0
		}
		return math.Sqrt(y)
	})
}

// MultiplyIndexed multiplies sample i by factors[i]. Samples past the end of
// factors are set to 0.
func MultiplyIndexed(factors []float64) Transform {
	return func(s *Sampled) *Sampled {
		out := s.Clone()
		for i := range out.Values {
			if i < len(factors) {
				out.Values[i] *= factors[i]
			} else {
				out.Values[i] = 0
			}
		}
		return out
	}
}

// Trim resamples onto [start, end] keeping the current sampling. Samples
// outside the original range are 0.
func Trim(start, end float64) Transform {
	return func(s *Sampled) *Sampled {
		n := Length(start, end, s.Sampling)
		out := &Sampled{Start: start, Sampling: s.Sampling, Values: make([]float64, n)}
		for i := range out.Values {
			out.Values[i] = s.Y(out.X(i))
		}
		return out
	}
}

// ZeroOutside sets samples with index below first or above last to 0.
func ZeroOutside(first, last int) Transform {
	return func(s *Sampled) *Sampled {
		out := s.Clone()
		for i := range out.Values {
			if i < first || i > last {
				out.Values[i] = 0
			}
		}
		return out
	}
}

// Resample averages the spectrum over bins of the given width centred on
// start + i*width, for the bins covering [start, end].
func Resample(start, end, width float64) Transform {
	return func(s *Sampled) *Sampled {
		n := Length(start, end, width)
		out := &Sampled{Start: start, Sampling: width, Values: make([]float64, n)}
		for i := range out.Values {
			c := out.X(i)
			out.Values[i] = s.average(c-width/2, c+width/2)
		}
		return out
	}
}

// Bin averages every factor contiguous samples into one, as a detector does
// when binning pixels. A trailing partial bin is averaged over the samples
// it has.
func Bin(factor int) Transform {
	return func(s *Sampled) *Sampled {
		if factor <= 1 {
			return s.Clone()
		}
		n := (len(s.Values) + factor - 1) / factor
		out := &Sampled{Start: s.Start, Sampling: s.Sampling * float64(factor), Values: make([]float64, n)}
		for i := 0; i < n; i++ {
			sum, cnt := 0.0, 0
			for j := i * factor; j < (i+1)*factor && j < len(s.Values); j++ {
				sum += s.Values[j]
				cnt++
			}
			out.Values[i] = sum / float64(cnt)
		}
		return out
	}
}

// Smooth convolves with a boxcar of the given full width in nm. Widths under
// one sample leave the spectrum unchanged.
func Smooth(width float64) Transform {
	return func(s *Sampled) *Sampled {
		half := int(math.Round(width / s.Sampling / 2))
		if half < 1 {
			return s.Clone()
		}
		out := s.Clone()
		// running sum over the window, truncated at the edges
		prefix := make([]float64, len(s.Values)+1)
		for i, v := range s.Values {
			prefix[i+1] = prefix[i] + v
		}
		for i := range out.Values {
			lo, hi := i-half, i+half
			if lo < 0 {
				lo = 0
			}
			if hi > len(s.Values)-1 {
				hi = len(s.Values) - 1
			}
			out.Values[i] = (prefix[hi+1] - prefix[lo]) / float64(hi-lo+1)
		}
		return out
	}
}

// average integrates the piecewise linear spectrum over [a, b] and divides by
// the interval width.
func (s *Sampled) average(a, b float64) float64 {
	if b <= a {
		return s.Y(a)
	}
	sum := 0.0
	x := a
	for x < b {
		// next sample boundary after x
		next := s.Start + (math.Floor((x-s.Start)/s.Sampling)+1)*s.Sampling
		if next > b {
			next = b
		}
		if next <= x {
			next = math.Min(x+s.Sampling, b)
		}
		sum += 0.5 * (s.Y(x) + s.Y(next)) * (next - x)
		x = next
	}
	return sum / (b - a)
}
