// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package detector

import (
	"math"

	"github.com/pdiddy/spectro-itc/internal/itcerr"
	"github.com/pdiddy/spectro-itc/internal/spectrum"
)

// cameraAngle is the fixed collimator-camera angle of the spectrograph in
// degrees.
const cameraAngle = 50.0

// IFU2ShiftPixels returns the separation in unbinned pixels between the two
// IFU slit images on the detector. The on-sky slit separation projects
// through the grating with anamorphic factor cos(α)/cos(β), where α and β are
// the incidence and diffraction angles at the central wavelength.
func IFU2ShiftPixels(centralWavelength, rulingDensity, separation float64) (float64, error) {
	half := cameraAngle / 2 * math.Pi / 180
	// ρλ with λ converted to mm
	s := rulingDensity * centralWavelength * 1e-6 / (2 * math.Cos(half))
	if s > 1 || s < -1 {
		return 0, itcerr.Internal("detector.IFU2ShiftPixels",
			"no diffraction at %g nm with %g lines/mm", centralWavelength, rulingDensity)
	}
	gamma := math.Asin(s)
	alpha, beta := gamma+half, gamma-half
	return separation * math.Cos(alpha) / math.Cos(beta), nil
}

// WavelengthShift returns the half-separation of the two IFU-2 slits in nm.
// The blue slit is observed at +shift and the red slit at -shift.
func (m *Mosaic) WavelengthShift() (float64, error) {
	g := m.geom
	px, err := IFU2ShiftPixels(g.CentralWavelength, g.RulingDensity, g.Detector.IFU2Separation)
	if err != nil {
		return 0, err
	}
	return 0.5 * m.PixelWidth() * px / float64(g.SpectralBinning), nil
}

// SlitShift returns the wavelength shift of a slit: 0 for a single slit,
// +shift for the blue slit (0) and -shift for the red slit (1) of IFU-2.
func (m *Mosaic) SlitShift(slit, slits int) (float64, error) {
	if slits < 2 {
		return 0, nil
	}
	shift, err := m.WavelengthShift()
	if err != nil {
		return 0, err
	}
	if slit == 0 {
		return shift, nil
	}
	return -shift, nil
}

// ObservingRange returns the wavelengths at the two ends of the unbinned
// detector for a slit shifted by shift nm.
func (m *Mosaic) ObservingRange(shift float64) (start, end float64) {
	g := m.geom
	half := g.Dispersion * float64(g.Detector.Pixels) / 2
	return g.CentralWavelength - half + shift, g.CentralWavelength + half + shift
}

// IFU2Red returns the wavelength range seen by the red IFU-2 slit across
// the full array.
func (m *Mosaic) IFU2Red() (start, end float64, err error) {
	shift, err := m.WavelengthShift()
	if err != nil {
		return 0, 0, err
	}
	half := m.PixelWidth() * m.FullArrayPix() / 2
	return m.geom.CentralWavelength - half - shift, m.geom.CentralWavelength + half - shift, nil
}

// IFU2Blue returns the wavelength range seen by the blue IFU-2 slit.
func (m *Mosaic) IFU2Blue() (start, end float64, err error) {
	shift, err := m.WavelengthShift()
	if err != nil {
		return 0, 0, err
	}
	half := m.PixelWidth() * m.FullArrayPix() / 2
	return m.geom.CentralWavelength - half + shift, m.geom.CentralWavelength + half + shift, nil
}

// PixelOf maps a wavelength to a binned pixel coordinate. Pixel coordinates
// increase toward shorter wavelengths.
func (m *Mosaic) PixelOf(wavelength, shift float64) float64 {
	return m.FullArrayPix()/2 - (wavelength-m.geom.CentralWavelength+shift)/m.PixelWidth()
}

// ToPixelSpace converts wavelength samples to pixel samples. Values that land
// inside a gap are set to 0. The input is not modified.
func (m *Mosaic) ToPixelSpace(d spectrum.Series, shift float64) spectrum.Series {
	out := d.Clone()
	gaps := m.Gaps()
	for i, x := range out.X {
		p := m.PixelOf(x, shift)
		out.X[i] = p
		if gaps[0].Contains(p) || gaps[1].Contains(p) {
			out.Y[i] = 0
		}
	}
	return out
}

// FixGapBorders returns a copy of d with its first and last values set to 0.
// Resampling next to a gap leaves spikes at the segment ends; the clamp
// hides them in charts.
func FixGapBorders(d spectrum.Series) spectrum.Series {
	out := d.Clone()
	if n := len(out.Y); n > 0 {
		out.Y[0] = 0
		out.Y[n-1] = 0
	}
	return out
}
