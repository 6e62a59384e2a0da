// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures of the calculator: the
// request parameters, the tool configuration, and the chart and summary
// records handed to renderers.
package types

// SourceProfile is the spatial morphology of a target.
type SourceProfile string

const (
	ProfilePoint    SourceProfile = "point"
	ProfileGaussian SourceProfile = "gaussian"
	ProfileUniform  SourceProfile = "uniform"
)

// Distribution selects the spectral energy distribution of a target.
type Distribution string

const (
	DistFlat         Distribution = "flat"
	DistBlackBody    Distribution = "blackbody"
	DistPowerLaw     Distribution = "powerlaw"
	DistEmissionLine Distribution = "emission_line"
	DistLibrary      Distribution = "library"
)

// EmissionLine describes a single Gaussian line on a flat continuum.
type EmissionLine struct {
	// Wavelength is the line centre in nm.
	Wavelength float64 `json:"wavelength" yaml:"wavelength"`

	// Width is the line FWHM in km/s.
	Width float64 `json:"width" yaml:"width"`

	// Flux is the integrated line flux in W/m².
	Flux float64 `json:"flux" yaml:"flux"`

	// Continuum is the continuum flux density in W/m²/µm.
	Continuum float64 `json:"continuum" yaml:"continuum"`
}

// SourceDefinition describes the target.
type SourceDefinition struct {
	Profile SourceProfile `json:"profile" yaml:"profile"`

	// FWHM is the intrinsic size of a Gaussian source in arcsec.
	FWHM float64 `json:"fwhm,omitempty" yaml:"fwhm,omitempty"`

	Distribution Distribution `json:"distribution" yaml:"distribution"`

	// Temperature is the black-body temperature in K.
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`

	// Index is the power-law index of f_λ ∝ λ^index.
	Index float64 `json:"index,omitempty" yaml:"index,omitempty"`

	Line *EmissionLine `json:"line,omitempty" yaml:"line,omitempty"`

	// Library names a calibration table holding the spectrum (x in nm).
	Library string `json:"library,omitempty" yaml:"library,omitempty"`

	// Magnitude is the AB brightness at NormWavelength. For uniform sources
	// it is per arcsec².
	Magnitude float64 `json:"magnitude" yaml:"magnitude"`

	// NormWavelength is the wavelength in nm where Magnitude applies.
	NormWavelength float64 `json:"norm_wavelength" yaml:"norm_wavelength"`

	Redshift float64 `json:"redshift,omitempty" yaml:"redshift,omitempty"`
}

// IsUniform reports whether the source has constant surface brightness.
func (s SourceDefinition) IsUniform() bool { return s.Profile == ProfileUniform }

// ObservingConditions describes the atmosphere during the observation.
type ObservingConditions struct {
	// Seeing is the zenith FWHM at 500 nm in arcsec.
	Seeing float64 `json:"seeing" yaml:"seeing"`

	Airmass float64 `json:"airmass" yaml:"airmass"`

	// SkyMagnitude is the sky continuum in AB mag/arcsec², used when no sky
	// table is available.
	SkyMagnitude float64 `json:"sky_magnitude" yaml:"sky_magnitude"`

	// SkyTable names an optional calibration table with the sky spectrum in
	// photons/s/m²/nm/arcsec².
	SkyTable string `json:"sky_table,omitempty" yaml:"sky_table,omitempty"`

	// Extinction is the atmospheric extinction in mag per airmass.
	Extinction float64 `json:"extinction" yaml:"extinction"`
}

// Site identifies the telescope.
type Site string

const (
	SiteNorth Site = "GN"
	SiteSouth Site = "GS"
)

// TelescopeDetails describes the collecting area.
type TelescopeDetails struct {
	Site Site `json:"site" yaml:"site"`

	// Diameter is the primary mirror diameter in m.
	Diameter float64 `json:"diameter" yaml:"diameter"`

	// Obstruction is the fraction of the collecting area lost to the
	// secondary and its supports.
	Obstruction float64 `json:"obstruction" yaml:"obstruction"`
}

// CalculationMode selects imaging or spectroscopy.
type CalculationMode string

const (
	ModeSpectroscopy CalculationMode = "spectroscopy"
	ModeImaging      CalculationMode = "imaging"
)

// IFUMethodKind selects how IFU elements are placed.
type IFUMethodKind string

const (
	IFUSingle IFUMethodKind = "single"
	IFURadial IFUMethodKind = "radial"
	IFUSum    IFUMethodKind = "sum"
)

// IFUMethod places IFU elements relative to the source centre. Offsets and
// radii are in arcsec.
type IFUMethod struct {
	Kind      IFUMethodKind `json:"kind" yaml:"kind"`
	Offset    float64       `json:"offset,omitempty" yaml:"offset,omitempty"`
	MinOffset float64       `json:"min_offset,omitempty" yaml:"min_offset,omitempty"`
	MaxOffset float64       `json:"max_offset,omitempty" yaml:"max_offset,omitempty"`
	Radius    float64       `json:"radius,omitempty" yaml:"radius,omitempty"`
}

// AnalysisMethod selects the extraction aperture.
type AnalysisMethod struct {
	// ApertureLength is the slit extraction length in arcsec; 0 selects the
	// automatic length.
	ApertureLength float64 `json:"aperture_length,omitempty" yaml:"aperture_length,omitempty"`

	IFU *IFUMethod `json:"ifu,omitempty" yaml:"ifu,omitempty"`
}

// ObservationDetails describes the exposures.
type ObservationDetails struct {
	Mode CalculationMode `json:"mode" yaml:"mode"`

	// ExposureTime is the time per exposure in s.
	ExposureTime float64 `json:"exposure_time" yaml:"exposure_time"`

	Exposures int `json:"exposures" yaml:"exposures"`

	// SourceFraction is the fraction of exposures on source; 0 means 1.
	SourceFraction float64 `json:"source_fraction,omitempty" yaml:"source_fraction,omitempty"`

	Analysis AnalysisMethod `json:"analysis" yaml:"analysis"`
}

// OnSourceFraction returns SourceFraction with the zero value read as 1.
func (o ObservationDetails) OnSourceFraction() float64 {
	if o.SourceFraction <= 0 {
		return 1
	}
	return o.SourceFraction
}

// InstrumentParameters selects the spectrograph configuration. Identifiers
// refer to catalog rows.
type InstrumentParameters struct {
	Grating           string  `json:"grating" yaml:"grating"`
	CentralWavelength float64 `json:"central_wavelength" yaml:"central_wavelength"`
	Mask              string  `json:"mask" yaml:"mask"`
	CustomSlitWidth   string  `json:"custom_slit_width,omitempty" yaml:"custom_slit_width,omitempty"`
	Filter            string  `json:"filter,omitempty" yaml:"filter,omitempty"`
	SpatialBinning    int     `json:"spatial_binning" yaml:"spatial_binning"`
	SpectralBinning   int     `json:"spectral_binning" yaml:"spectral_binning"`
	Detector          string  `json:"detector" yaml:"detector"`
	AmpGain           string  `json:"amp_gain" yaml:"amp_gain"`
	ReadMode          string  `json:"read_mode" yaml:"read_mode"`
}

// ITCParameters is a complete calculation request.
type ITCParameters struct {
	Source      SourceDefinition     `json:"source" yaml:"source"`
	Conditions  ObservingConditions  `json:"conditions" yaml:"conditions"`
	Telescope   TelescopeDetails     `json:"telescope" yaml:"telescope"`
	Observation ObservationDetails   `json:"observation" yaml:"observation"`
	Instrument  InstrumentParameters `json:"instrument" yaml:"instrument"`
}
