// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package s2n turns source and sky photon rates into expected electrons and
// signal-to-noise per spectral pixel.
package s2n

import (
	"math"

	"github.com/pdiddy/spectro-itc/internal/aperture"
	"github.com/pdiddy/spectro-itc/internal/itcerr"
	"github.com/pdiddy/spectro-itc/internal/spectrum"
)

// Exposure describes the exposure sequence.
type Exposure struct {
	// Time is the time per exposure in s.
	Time float64

	Count int

	// SourceFraction is the fraction of exposures on source, in (0, 1].
	SourceFraction float64
}

// OnSource returns the number of exposures that contribute signal.
func (e Exposure) OnSource() float64 {
	f := e.SourceFraction
	if f <= 0 {
		f = 1
	}
	return float64(e.Count) * f
}

// Detector holds the noise sources of one CCD.
type Detector struct {
	// ReadNoise is in e- per pixel per read.
	ReadNoise float64

	// DarkCurrent is in e-/s per binned pixel.
	DarkCurrent float64
}

// Input is everything one (CCD, slit) calculation needs.
type Input struct {
	// Source is the source flux at the detector in photons/s/nm.
	Source *spectrum.Sampled

	// Sky is the sky flux at the detector in photons/s/nm/arcsec².
	Sky *spectrum.Sampled

	Throughput aperture.Throughput
	Slit       aperture.Slit

	// PixelWidth is nm per binned pixel.
	PixelWidth float64

	// Dispersion is nm per unbinned pixel and PlateScale arcsec per
	// unbinned pixel; together they give the resolution element in nm.
	Dispersion float64
	PlateScale float64

	ObservingStart float64
	ObservingEnd   float64

	// ImageQuality is the FWHM in arcsec. Uniform sources use a large value
	// so the slit width sets the resolution.
	ImageQuality float64

	Detector Detector
	Exposure Exposure

	// FirstPixel and LastPixel bound the CCD segment; samples outside are
	// zeroed.
	FirstPixel int
	LastPixel  int
}

// Electrons are per-exposure electron counts on the pixel grid.
type Electrons struct {
	// Signal and Background are summed over the extraction aperture.
	Signal     *spectrum.Sampled
	Background *spectrum.Sampled

	// PeakSignal and PeakBackground are for a single spatial pixel. When nil
	// the aperture values are used.
	PeakSignal     *spectrum.Sampled
	PeakBackground *spectrum.Sampled

	// Pixels is the number of spatial pixels in the aperture.
	Pixels float64
}

// SlitResult holds the four spectra of one slit. All share one grid.
type SlitResult struct {
	// Signal is the one-pixel signal in e- per exposure.
	Signal *spectrum.Sampled

	// Background is the square root of the one-pixel background, as plotted.
	Background *spectrum.Sampled

	ExpS2N   *spectrum.Sampled
	FinalS2N *spectrum.Sampled
}

// Result holds one SlitResult per simultaneously observed slit.
type Result struct {
	Slits []SlitResult
}

// Resolution returns the resolution element in nm: the smaller of slit width
// and image quality, converted to pixels and then to wavelength.
func (in Input) Resolution() float64 {
	return math.Min(in.Slit.Width, in.ImageQuality) / in.PlateScale * in.Dispersion
}

// Compute runs the full per-slit calculation: trim to the observed range,
// smooth to the resolution, resample to pixels, convert to electrons and
// derive S/N.
func Compute(in Input) (*SlitResult, error) {
	if in.Source == nil || in.Sky == nil {
		return nil, itcerr.Internal("s2n.Compute", "missing source or sky spectrum")
	}
	if !(in.ObservingEnd > in.ObservingStart) {
		return nil, itcerr.Internal("s2n.Compute", "empty observing range [%g, %g]", in.ObservingStart, in.ObservingEnd)
	}
	if !(in.PixelWidth > 0) || !(in.PlateScale > 0) {
		return nil, itcerr.Internal("s2n.Compute", "pixel width %g, plate scale %g", in.PixelWidth, in.PlateScale)
	}
	if err := in.Slit.Validate(); err != nil {
		return nil, err
	}

	// keep a margin so edge pixels average over a full bin
	margin := in.PixelWidth + in.Resolution()
	prepare := []spectrum.Transform{
		spectrum.Trim(in.ObservingStart-margin, in.ObservingEnd+margin),
		spectrum.Smooth(in.Resolution()),
		spectrum.Resample(in.ObservingStart, in.ObservingEnd, in.PixelWidth),
	}
	src := spectrum.Apply(in.Source, prepare...)
	sky := spectrum.Apply(in.Sky, prepare...)

	t := in.Exposure.Time
	perPixel := in.PixelWidth * t
	skyArea := in.Slit.Width * in.Slit.Length
	onePixArea := in.Slit.Width * math.Min(in.Slit.PixelSize, in.Slit.Length)

	e := Electrons{
		Signal:         spectrum.Apply(src, spectrum.Scale(perPixel*in.Throughput.Fraction)),
		Background:     spectrum.Apply(sky, spectrum.Scale(perPixel*skyArea)),
		PeakSignal:     spectrum.Apply(src, spectrum.Scale(perPixel*in.Throughput.OnePixel)),
		PeakBackground: spectrum.Apply(sky, spectrum.Scale(perPixel*onePixArea)),
		Pixels:         in.Slit.LengthPixels(),
	}
	r, err := FromElectrons(e, in.Detector, in.Exposure)
	if err != nil {
		return nil, err
	}
	return r.zeroOutside(in.FirstPixel, in.LastPixel), nil
}

// FromElectrons derives S/N from per-exposure electrons:
//
//	variance = signal + background + dark·npix·t + readNoise²·npix
//	ExpS2N   = signal / sqrt(variance)
//	FinalS2N = ExpS2N · sqrt(on-source exposures)
func FromElectrons(e Electrons, d Detector, x Exposure) (*SlitResult, error) {
	if e.Signal == nil || e.Background == nil {
		return nil, itcerr.Internal("s2n.FromElectrons", "missing electrons")
	}
	if !e.Signal.SameGrid(e.Background) {
		return nil, itcerr.Internal("s2n.FromElectrons",
			"signal [%g, %g] x %d and background [%g, %g] x %d differ",
			e.Signal.Start, e.Signal.End(), e.Signal.Len(), e.Background.Start, e.Background.End(), e.Background.Len())
	}
	if x.Count < 1 {
		return nil, itcerr.Config("The number of exposures must be at least 1, got %d.", x.Count)
	}
	peakSig, peakBkg := e.PeakSignal, e.PeakBackground
	if peakSig == nil {
		peakSig = e.Signal
	}
	if peakBkg == nil {
		peakBkg = e.Background
	}
	if !peakSig.SameGrid(e.Signal) || !peakBkg.SameGrid(e.Signal) {
		return nil, itcerr.Internal("s2n.FromElectrons", "one-pixel spectra are not on the aperture grid")
	}

	npix := math.Max(1, e.Pixels)
	fixed := d.DarkCurrent*npix*x.Time + d.ReadNoise*d.ReadNoise*npix
	n := e.Signal.Len()
	exp := &spectrum.Sampled{Start: e.Signal.Start, Sampling: e.Signal.Sampling, Values: make([]float64, n)}
	for i := 0; i < n; i++ {
		s := e.Signal.Values[i]
		v := s + e.Background.Values[i] + fixed
		if v > 0 {
			exp.Values[i] = s / math.Sqrt(v)
		}
	}
	return &SlitResult{
		Signal:     peakSig.Clone(),
		Background: spectrum.Apply(peakBkg, spectrum.Sqrt()),
		ExpS2N:     exp,
		FinalS2N:   spectrum.Apply(exp, spectrum.Scale(math.Sqrt(x.OnSource()))),
	}, nil
}

func (r *SlitResult) zeroOutside(first, last int) *SlitResult {
	z := spectrum.ZeroOutside(first, last)
	return &SlitResult{
		Signal:     z(r.Signal),
		Background: z(r.Background),
		ExpS2N:     z(r.ExpS2N),
		FinalS2N:   z(r.FinalS2N),
	}
}

// PeakPixelCount returns max(background² + signal) over the slit. Background
// holds the square root of the background, so this is the total one-pixel
// well content.
func (r *SlitResult) PeakPixelCount() (float64, error) {
	if !r.Signal.SameGrid(r.Background) {
		return 0, itcerr.Internal("s2n.PeakPixelCount",
			"signal [%g, %g] x %d and background [%g, %g] x %d differ",
			r.Signal.Start, r.Signal.End(), r.Signal.Len(), r.Background.Start, r.Background.End(), r.Background.Len())
	}
	total := r.Signal.Clone()
	for i, b := range r.Background.Values {
		total.Values[i] += b * b
	}
	peak, at := total.Max()
	if at < 0 {
		return 0, nil
	}
	return math.Max(peak, 0), nil
}

// PeakPixelCount returns the largest peak over all slits.
func (r *Result) PeakPixelCount() (float64, error) {
	peak := 0.0
	for i := range r.Slits {
		p, err := r.Slits[i].PeakPixelCount()
		if err != nil {
			return 0, err
		}
		peak = math.Max(peak, p)
	}
	return peak, nil
}
