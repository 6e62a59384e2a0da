// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aperture computes how much of a source's flux a slit or an IFU
// element collects.
//
// Point and Gaussian sources are modelled as circular Gaussians whose FWHM is
// the delivered image quality. For uniform surface-brightness sources the
// flux is given per arcsec², so the "fraction" is the aperture area in
// arcsec² and may exceed 1.
package aperture

import (
	"math"

	"github.com/pdiddy/spectro-itc/internal/itcerr"
	"github.com/pdiddy/spectro-itc/pkg/types"
)

// fwhmToSigma converts a Gaussian FWHM to its standard deviation.
const fwhmToSigma = 1 / 2.3548200450309493

// ElementSize is the side of a square IFU element in arcsec.
const ElementSize = 0.2

// IFUSlitWidth is the effective slit width of the IFU fibres in arcsec.
const IFUSlitWidth = 0.3

// Morphology is the spatial profile used for aperture integrals.
type Morphology struct {
	Uniform bool

	// FWHM is the image quality in arcsec; ignored for uniform sources.
	FWHM float64
}

// Throughput is the fraction of source flux in the extraction aperture and
// in a single spatial pixel of it.
type Throughput struct {
	Fraction float64
	OnePixel float64
}

// Slit is a rectangular extraction aperture centred on the source.
type Slit struct {
	// Width and Length are in arcsec.
	Width  float64
	Length float64

	// PixelSize is the spatial size of a binned pixel in arcsec.
	PixelSize float64
}

// LengthPixels returns the extraction length in spatial pixels, at least 1.
func (s Slit) LengthPixels() float64 {
	return math.Max(1, s.Length/s.PixelSize)
}

// Validate rejects non-positive geometry.
func (s Slit) Validate() error {
	if !(s.Width > 0) {
		return itcerr.Config("Slit width must be positive, got %g arcsec.", s.Width)
	}
	if !(s.Length > 0) {
		return itcerr.Config("Aperture length must be positive, got %g arcsec.", s.Length)
	}
	if !(s.PixelSize > 0) {
		return itcerr.Config("Pixel size must be positive, got %g arcsec.", s.PixelSize)
	}
	return nil
}

// AutoLength returns the automatic extraction length: 1.4 × image quality
// for compact sources and 1 arcsec for uniform ones.
func AutoLength(m Morphology) float64 {
	if m.Uniform {
		return 1
	}
	return 1.4 * m.FWHM
}

// SlitThroughput integrates the source over the slit and over one pixel of
// it.
func SlitThroughput(m Morphology, s Slit) (Throughput, error) {
	if err := s.Validate(); err != nil {
		return Throughput{}, err
	}
	if !m.Uniform && !(m.FWHM > 0) {
		return Throughput{}, itcerr.Config("Image quality must be positive, got %g arcsec.", m.FWHM)
	}
	return Throughput{
		Fraction: box(m, 0, 0, s.Width, s.Length),
		OnePixel: box(m, 0, 0, s.Width, math.Min(s.PixelSize, s.Length)),
	}, nil
}

// box returns the fraction of the source in a w × h box centred at (x, y).
func box(m Morphology, x, y, w, h float64) float64 {
	if m.Uniform {
		return w * h
	}
	return gauss1D(m.FWHM, x-w/2, x+w/2) * gauss1D(m.FWHM, y-h/2, y+h/2)
}

// gauss1D integrates a unit Gaussian of the given FWHM over [a, b].
func gauss1D(fwhm, a, b float64) float64 {
	k := 1 / (fwhm * fwhmToSigma * math.Sqrt2)
	return 0.5 * (math.Erf(b*k) - math.Erf(a*k))
}

// ImageQuality returns the delivered FWHM in arcsec at wavelength nm:
// seeing scaled by airmass^0.6 and (λ/500)^-0.2, combined in quadrature with
// the intrinsic source size.
func ImageQuality(seeing, airmass, wavelength, sourceFWHM float64) float64 {
	if airmass < 1 {
		airmass = 1
	}
	atm := seeing * math.Pow(airmass, 0.6) * math.Pow(wavelength/500, -0.2)
	return math.Hypot(atm, sourceFWHM)
}

// Element is one IFU element and the flux fraction it collects.
type Element struct {
	// X and Y are the element centre relative to the source in arcsec.
	X, Y float64

	Fraction float64
}

// Offset returns the distance of the element from the source centre.
func (e Element) Offset() float64 { return math.Hypot(e.X, e.Y) }

// IFUResult lists the IFU elements in placement order.
type IFUResult struct {
	Method   types.IFUMethodKind
	Elements []Element
}

// Fractions returns the per-element fractions.
func (r IFUResult) Fractions() []float64 {
	out := make([]float64, len(r.Elements))
	for i, e := range r.Elements {
		out[i] = e.Fraction
	}
	return out
}

// Offsets returns the per-element offsets.
func (r IFUResult) Offsets() []float64 {
	out := make([]float64, len(r.Elements))
	for i, e := range r.Elements {
		out[i] = e.Offset()
	}
	return out
}

// Summed reports whether elements are combined into one aperture.
func (r IFUResult) Summed() bool { return r.Method == types.IFUSum }

// Sum returns the combined throughput of a summed IFU: all fractions added,
// with the central element as the one-pixel fraction.
func (r IFUResult) Sum() Throughput {
	var t Throughput
	for _, e := range r.Elements {
		t.Fraction += e.Fraction
	}
	if len(r.Elements) > 0 {
		t.OnePixel = r.Elements[(len(r.Elements)-1)/2].Fraction
	}
	return t
}

// Element returns the throughput of element i on its own.
func (r IFUResult) Element(i int) Throughput {
	f := r.Elements[i].Fraction
	return Throughput{Fraction: f, OnePixel: f}
}

// IFU places elements according to method and integrates the source over
// each of them.
func IFU(m Morphology, method types.IFUMethod) (IFUResult, error) {
	if !m.Uniform && !(m.FWHM > 0) {
		return IFUResult{}, itcerr.Config("Image quality must be positive, got %g arcsec.", m.FWHM)
	}
	var pos [][2]float64
	switch method.Kind {
	case types.IFUSingle:
		pos = [][2]float64{{method.Offset, 0}}
	case types.IFURadial:
		if method.MinOffset < 0 || method.MaxOffset < method.MinOffset {
			return IFUResult{}, itcerr.Config("IFU offsets must satisfy 0 <= min <= max, got %g and %g.",
				method.MinOffset, method.MaxOffset)
		}
		n := int(math.Floor((method.MaxOffset-method.MinOffset)/ElementSize+1e-9)) + 1
		for i := 0; i < n; i++ {
			pos = append(pos, [2]float64{method.MinOffset + float64(i)*ElementSize, 0})
		}
	case types.IFUSum:
		if method.Radius < 0 {
			return IFUResult{}, itcerr.Config("IFU summing radius must not be negative, got %g.", method.Radius)
		}
		pos = sumGrid(method.Radius)
	default:
		return IFUResult{}, itcerr.Internal("aperture.IFU", "unknown IFU method %q", method.Kind)
	}

	r := IFUResult{Method: method.Kind, Elements: make([]Element, len(pos))}
	for i, p := range pos {
		r.Elements[i] = Element{X: p[0], Y: p[1], Fraction: box(m, p[0], p[1], ElementSize, ElementSize)}
	}
	return r, nil
}

// sumGrid returns the centres of the grid elements within radius of the
// origin in row-major order. The set is symmetric, so the centre element is
// in the middle.
func sumGrid(radius float64) [][2]float64 {
	n := int(math.Floor(radius/ElementSize + 1e-9))
	var pos [][2]float64
	for j := -n; j <= n; j++ {
		for i := -n; i <= n; i++ {
			x, y := float64(i)*ElementSize, float64(j)*ElementSize
			if math.Hypot(x, y) <= radius+1e-9 {
				pos = append(pos, [2]float64{x, y})
			}
		}
	}
	return pos
}
