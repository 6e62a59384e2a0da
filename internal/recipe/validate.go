// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package recipe

import (
	"github.com/pdiddy/spectro-itc/internal/aperture"
	"github.com/pdiddy/spectro-itc/internal/catalog"
	"github.com/pdiddy/spectro-itc/internal/itcerr"
	"github.com/pdiddy/spectro-itc/pkg/types"
)

// Instrument is a validated instrument configuration with its catalog rows
// resolved.
type Instrument struct {
	Grating  catalog.Grating
	Mask     catalog.Mask
	Filter   catalog.Filter
	Detector catalog.Detector
	Amp      catalog.Amp

	// SlitWidth is the effective slit width in arcsec.
	SlitWidth float64

	Site            string
	SpatialBinning  int
	SpectralBinning int
}

// IFUUsed reports whether the mask feeds an IFU.
func (in Instrument) IFUUsed() bool { return in.Mask.IFU }

// IFU2 reports whether two IFU slits are imaged at once.
func (in Instrument) IFU2() bool { return in.Mask.IsIFU2() }

// DarkCurrent returns the dark current per binned pixel in e-/s.
func (in Instrument) DarkCurrent() float64 {
	return in.Detector.DarkCurrent * float64(in.SpatialBinning*in.SpectralBinning)
}

// PixelSize returns the spatial size of a binned pixel in arcsec.
func (in Instrument) PixelSize() float64 {
	return in.Detector.PlateScale * float64(in.SpatialBinning)
}

// SaturationLimit returns the electrons a binned pixel holds before either
// the well or the converter saturates.
func (in Instrument) SaturationLimit() float64 {
	well := in.Detector.WellDepth * float64(in.SpatialBinning*in.SpectralBinning)
	adc := in.Detector.ADSaturation * in.Amp.GainPerADU
	if adc < well {
		return adc
	}
	return well
}

// Validate resolves the instrument parameters against cat and checks every
// configuration rule. It does no numeric work; a calculation that fails here
// has synthesized nothing.
func Validate(p types.ITCParameters, cat *catalog.Catalog) (Instrument, error) {
	ip := p.Instrument

	grating, ok := cat.Grating(ip.Grating)
	if !ok {
		return Instrument{}, itcerr.Config("Unknown grating %q.", ip.Grating)
	}
	mask, ok := cat.Mask(ip.Mask)
	if !ok {
		return Instrument{}, itcerr.Config("Unknown focal plane mask %q.", ip.Mask)
	}
	filter, ok := cat.Filter(ip.Filter)
	if !ok {
		return Instrument{}, itcerr.Config("Unknown filter %q.", ip.Filter)
	}
	det, ok := cat.Detector(ip.Detector)
	if !ok {
		return Instrument{}, itcerr.Internal("recipe.Validate", "unknown detector kind %q", ip.Detector)
	}
	amp, ok := det.Amp(ip.AmpGain, ip.ReadMode)
	if !ok {
		return Instrument{}, itcerr.Config("The %s detector has no %s gain, %s read mode setting.",
			det.Kind, ip.AmpGain, ip.ReadMode)
	}
	if ip.SpatialBinning < 1 || ip.SpectralBinning < 1 {
		return Instrument{}, itcerr.Config("Binning must be at least 1, got %d spatial and %d spectral.",
			ip.SpatialBinning, ip.SpectralBinning)
	}

	in := Instrument{
		Grating:         grating,
		Mask:            mask,
		Filter:          filter,
		Detector:        det,
		Amp:             amp,
		SlitWidth:       mask.Width,
		Site:            string(p.Telescope.Site),
		SpatialBinning:  ip.SpatialBinning,
		SpectralBinning: ip.SpectralBinning,
	}

	switch p.Observation.Mode {
	case types.ModeSpectroscopy, "":
		if err := validateSpectroscopy(p, cat, &in); err != nil {
			return Instrument{}, err
		}
	case types.ModeImaging:
		if err := validateImaging(p, in); err != nil {
			return Instrument{}, err
		}
	default:
		return Instrument{}, itcerr.Config("Unknown calculation method %q.", p.Observation.Mode)
	}

	method := p.Observation.Analysis.IFU
	if in.IFUUsed() && method == nil {
		return Instrument{}, itcerr.Config("IFU is selected but no IFU analysis method is selected.\n" +
			"Please deselect the IFU or select an IFU analysis method.")
	}
	if !in.IFUUsed() && method != nil {
		return Instrument{}, itcerr.Config("An IFU analysis method is selected but no IFU is selected.\n" +
			"Please select the IFU or select another analysis method.")
	}

	if p.Observation.Mode == types.ModeImaging {
		return Instrument{}, itcerr.Config("Imaging calculations are not available for this instrument.\n" +
			"Please select the spectroscopy calculation method.")
	}

	if err := validateObservation(p.Observation); err != nil {
		return Instrument{}, err
	}
	return in, nil
}

func validateSpectroscopy(p types.ITCParameters, cat *catalog.Catalog, in *Instrument) error {
	ip := p.Instrument
	if in.Grating.IsMirror() {
		return itcerr.Config("Spectroscopy calculation method is selected but a grating is not.\n" +
			"Please select a grating and a focal plane mask in the Instrument configuration section.")
	}
	if in.Mask.IsNone() {
		return itcerr.Config("Spectroscopy calculation method is selected but a focal plane mask is not.\n" +
			"Please select a grating and a focal plane mask in the Instrument configuration section.")
	}

	if in.Mask.Custom {
		if ip.CustomSlitWidth == "" {
			return itcerr.Config("Custom mask is selected but custom slit width is undefined.")
		}
		w, ok := cat.CustomSlitWidth(ip.CustomSlitWidth)
		if !ok {
			return itcerr.Config("Unknown custom slit width %q.", ip.CustomSlitWidth)
		}
		if w.ID == catalog.CustomOther || !(w.Width > 0) {
			return itcerr.Config("Slit width for the custom mask is not known.")
		}
		in.SlitWidth = w.Width
	}

	if in.IFUUsed() {
		if ip.SpatialBinning != 1 {
			return itcerr.Config("Spatial binning must be 1 with IFU observations.\n" +
				"The fiber traces on the detector blend together if the detector is binned spatially " +
				"and the fibers cannot be extracted reliably.")
		}
		in.SlitWidth = aperture.IFUSlitWidth
	}

	lo := 0.0
	switch p.Telescope.Site {
	case types.SiteNorth:
		lo = 360
	case types.SiteSouth:
		lo = 300
	default:
		return itcerr.Config("Unknown site %q.", p.Telescope.Site)
	}
	if cw := ip.CentralWavelength; cw < lo || cw > 1000 {
		return itcerr.Config("Central wavelength must be between %.0f nm and 1000 nm.", lo)
	}
	return nil
}

func validateImaging(p types.ITCParameters, in Instrument) error {
	if in.Filter.IsNone() {
		return itcerr.Config("Imaging calculation method is selected but a filter is not.")
	}
	if !in.Grating.IsMirror() {
		return itcerr.Config("Imaging calculation method is selected but a grating is also selected.\n" +
			"Please deselect the grating or change the method to spectroscopy.")
	}
	if !in.Mask.IsNone() {
		return itcerr.Config("Imaging calculation method is selected but a Focal Plane Mask is also selected.\n" +
			"Please deselect the Focal Plane Mask or change the method to spectroscopy.")
	}
	if p.Instrument.CustomSlitWidth != "" {
		return itcerr.Config("Imaging calculation method is selected but a Custom Slit Width is also selected.")
	}
	return nil
}

func validateObservation(o types.ObservationDetails) error {
	if !(o.ExposureTime > 0) {
		return itcerr.Config("Exposure time must be positive, got %g s.", o.ExposureTime)
	}
	if o.Exposures < 1 {
		return itcerr.Config("The number of exposures must be at least 1, got %d.", o.Exposures)
	}
	if f := o.SourceFraction; f < 0 || f > 1 {
		return itcerr.Config("The fraction of exposures on source must be between 0 and 1, got %g.", f)
	}
	if o.Analysis.ApertureLength < 0 {
		return itcerr.Config("Aperture length must not be negative, got %g arcsec.", o.Analysis.ApertureLength)
	}
	return nil
}
