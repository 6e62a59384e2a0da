// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package detector models a CCD mosaic along the dispersion axis: which
// binned pixels belong to which CCD, where the gaps fall, and how spectra
// map between wavelength and pixel space.
//
// A Mosaic is built once per instrument configuration from a gap table and
// is immutable afterwards, so it can be shared between goroutines.
package detector

import (
	"fmt"

	"github.com/pdiddy/spectro-itc/internal/calib"
	"github.com/pdiddy/spectro-itc/internal/catalog"
	"github.com/pdiddy/spectro-itc/internal/itcerr"
	"github.com/pdiddy/spectro-itc/internal/spectrum"
)

// ccdPixels is the unbinned width of one CCD along the dispersion axis.
const ccdPixels = 2048

// Geometry is the instrument configuration a Mosaic depends on.
type Geometry struct {
	Detector catalog.Detector
	Site     string

	SpectralBinning int

	// CentralWavelength is the wavelength at the mosaic centre in nm.
	CentralWavelength float64

	// Dispersion is nm per unbinned pixel.
	Dispersion float64

	// RulingDensity is the grating ruling in lines/mm.
	RulingDensity float64
}

// Interval is a closed range of binned pixel coordinates.
type Interval struct {
	Lo, Hi float64
}

// Contains reports whether p lies in the interval.
func (iv Interval) Contains(p float64) bool { return p >= iv.Lo && p <= iv.Hi }

// Mosaic is the per-configuration detector model.
type Mosaic struct {
	geom Geometry
	gap  int

	// mask holds the binned transmission, one value per binned pixel.
	mask []float64

	// bounds alternates segment start and end in unbinned pixels.
	bounds []int
}

// Build derives the mosaic from a gap table of (pixel, marker) rows, where
// marker is 1 on a CCD and 0 in a gap, and the last row sits at the full
// unbinned width. Between rows the last marker is carried forward.
func Build(t calib.Table, g Geometry) (*Mosaic, error) {
	if g.SpectralBinning < 1 {
		return nil, itcerr.Internal("detector.Build", "spectral binning %d", g.SpectralBinning)
	}
	if len(g.Detector.CCDs) == 0 {
		return nil, itcerr.Internal("detector.Build", "detector %q has no CCDs", g.Detector.Kind)
	}
	gap, ok := g.Detector.Gap(g.Site)
	if !ok {
		return nil, itcerr.Internal("detector.Build", "no gap size for %s at site %q", g.Detector.Kind, g.Site)
	}
	if t.Len() < 2 {
		return nil, itcerr.Internal("detector.Build", "gap table %s has %d rows", t.Name, t.Len())
	}

	final := int(t.X[t.Len()-1])
	if final < 2 {
		return nil, itcerr.Internal("detector.Build", "gap table %s ends at pixel %d", t.Name, final)
	}

	dense := make([]float64, final)
	dense[0] = 1
	bounds := []int{0}
	prev := 1
	last := 1.0
	j := 0
	for i := 1; i < final; i++ {
		// rows behind the scan position only update the carried value
		for j < t.Len()-1 && int(t.X[j]) < i {
			last = t.Y[j]
			j++
		}
		x, y := int(t.X[j]), int(t.Y[j])
		if y != prev {
			bounds = append(bounds, x-prev-1)
			prev = y
		}
		if x == i {
			dense[i] = float64(y)
			last = t.Y[j]
			if j < t.Len()-1 {
				j++
			}
		} else {
			dense[i] = last
		}
	}
	bounds = append(bounds, final-1)

	m := &Mosaic{geom: g, gap: gap, mask: binMask(dense, g.SpectralBinning), bounds: bounds}
	if n := len(g.Detector.CCDs); n > 1 && len(bounds) < 2*n {
		return nil, itcerr.Internal("detector.Build",
			"gap table %s describes %d segments, detector %s has %d CCDs", t.Name, len(bounds)/2, g.Detector.Kind, n)
	}
	return m, nil
}

// binMask averages contiguous groups of factor pixels. A trailing partial
// group is averaged over the pixels it has.
func binMask(dense []float64, factor int) []float64 {
	unbinned := &spectrum.Sampled{Start: 0, Sampling: 1, Values: dense}
	return spectrum.Apply(unbinned, spectrum.Bin(factor)).Values
}

// CCDCount returns the number of CCDs in the mosaic.
func (m *Mosaic) CCDCount() int { return len(m.geom.Detector.CCDs) }

// CCDName returns the display name of a CCD. Single-CCD mosaics have an
// empty name.
func (m *Mosaic) CCDName(ccd int) string { return m.geom.Detector.CCDs[ccd].Name }

// Geometry returns the configuration the mosaic was built from.
func (m *Mosaic) Geometry() Geometry { return m.geom }

// Width returns the number of binned pixels in the mosaic.
func (m *Mosaic) Width() int { return len(m.mask) }

// Mask returns a copy of the binned transmission.
func (m *Mosaic) Mask() []float64 { return append([]float64(nil), m.mask...) }

// Boundaries returns a copy of the unbinned segment boundaries.
func (m *Mosaic) Boundaries() []int { return append([]int(nil), m.bounds...) }

// SegmentStart returns the first binned pixel of a CCD.
func (m *Mosaic) SegmentStart(ccd int) int {
	return m.bounds[ccd*2] / m.geom.SpectralBinning
}

// SegmentEnd returns the last binned pixel of a CCD. With a single CCD the
// whole mosaic is one segment and the gaps are ignored.
func (m *Mosaic) SegmentEnd(ccd, count int) int {
	if count == 1 {
		return m.bounds[len(m.bounds)-1] / m.geom.SpectralBinning
	}
	return m.bounds[ccd*2+1] / m.geom.SpectralBinning
}

// Transmission multiplies sample i of a spectrum by the mask value of
// binned pixel i. The spectrum must already be on the pixel grid.
func (m *Mosaic) Transmission() spectrum.Transform {
	return spectrum.MultiplyIndexed(m.mask)
}

// FullArrayPix returns the binned width of three CCDs and two gaps.
func (m *Mosaic) FullArrayPix() float64 {
	return (3*ccdPixels + 2*float64(m.gap)) / float64(m.geom.SpectralBinning)
}

// Gaps returns the two inter-CCD gaps in binned pixel coordinates. The gap
// width is a whole number of binned pixels, rounded down.
func (m *Mosaic) Gaps() [2]Interval {
	bin := float64(m.geom.SpectralBinning)
	g := float64(m.gap / m.geom.SpectralBinning)
	g1 := ccdPixels / bin
	g2 := (2*ccdPixels + float64(m.gap)) / bin
	return [2]Interval{{g1, g1 + g}, {g2, g2 + g}}
}

// PixelWidth returns nm per binned pixel.
func (m *Mosaic) PixelWidth() float64 {
	return m.geom.Dispersion * float64(m.geom.SpectralBinning)
}

func (m *Mosaic) String() string {
	return fmt.Sprintf("%s mosaic, %d CCDs, %d binned pixels", m.geom.Detector.Kind, m.CCDCount(), m.Width())
}
