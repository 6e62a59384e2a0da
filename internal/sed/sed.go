// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sed synthesizes the source and sky spectra seen by one CCD: a
// spectral energy distribution normalized to an AB magnitude, extinguished by
// the atmosphere, collected by the telescope and filtered by the instrument
// optics and the CCD quantum efficiency.
package sed

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/pdiddy/spectro-itc/internal/calib"
	"github.com/pdiddy/spectro-itc/internal/itcerr"
	"github.com/pdiddy/spectro-itc/internal/spectrum"
	"github.com/pdiddy/spectro-itc/pkg/types"
)

// Physical constants in SI units.
const (
	planck   = 6.62607015e-34
	light    = 2.99792458e8
	boltzman = 1.380649e-23
)

// Request selects what to synthesize and on which wavelength grid.
type Request struct {
	Source     types.SourceDefinition
	Conditions types.ObservingConditions
	Telescope  types.TelescopeDetails

	// Start, End and Sampling define the output grid in nm.
	Start    float64
	End      float64
	Sampling float64

	// Throughput names the instrument tables (optics, grating, CCD QE)
	// multiplied into both spectra. Missing tables are skipped with a
	// warning.
	Throughput []string
}

// Result holds the synthesized spectra at the detector.
type Result struct {
	// Source is in photons/s/nm; for uniform sources per arcsec².
	Source *spectrum.Sampled

	// Sky is in photons/s/nm/arcsec².
	Sky *spectrum.Sampled
}

// Synthesizer builds spectra from calibration tables. It is safe for
// concurrent use when its Source is.
type Synthesizer struct {
	tables calib.Source
	log    *zap.Logger
}

// New returns a Synthesizer reading tables from src.
func New(src calib.Source, log *zap.Logger) *Synthesizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Synthesizer{tables: src, log: log}
}

// Synthesize builds the source and sky spectra for req.
func (s *Synthesizer) Synthesize(ctx context.Context, req Request) (Result, error) {
	if !(req.Sampling > 0) || !(req.End > req.Start) {
		return Result{}, itcerr.Internal("sed.Synthesize", "grid [%g, %g] step %g", req.Start, req.End, req.Sampling)
	}

	flux, err := s.sourceFlux(ctx, req.Source)
	if err != nil {
		return Result{}, err
	}
	sky, err := s.skyFlux(ctx, req.Conditions)
	if err != nil {
		return Result{}, err
	}

	response, err := s.response(ctx, req.Throughput)
	if err != nil {
		return Result{}, err
	}

	area := CollectingArea(req.Telescope)
	ext := math.Pow(10, -0.4*req.Conditions.Extinction*math.Max(1, req.Conditions.Airmass))

	src := spectrum.FromFunc(req.Start, req.End, req.Sampling, func(x float64) float64 {
		return flux(x) * ext * area * response(x)
	})
	bkg := spectrum.FromFunc(req.Start, req.End, req.Sampling, func(x float64) float64 {
		return sky(x) * area * response(x)
	})
	return Result{Source: src, Sky: bkg}, nil
}

// CollectingArea returns the unobstructed primary area in m².
func CollectingArea(t types.TelescopeDetails) float64 {
	r := t.Diameter / 2
	return math.Pi * r * r * (1 - t.Obstruction)
}

// ABPhotons returns the photon flux density of an AB magnitude at
// wavelength nm in photons/s/m²/nm.
func ABPhotons(mag, wavelength float64) float64 {
	// f_ν in W/m²/Hz
	fnu := math.Pow(10, -0.4*(mag+48.6)) * 1e-3
	// N_λ = f_ν / (h λ), per m of wavelength; then per nm
	return fnu / (planck * wavelength * 1e-9) * 1e-9
}

// response returns the product of the named throughput tables.
func (s *Synthesizer) response(ctx context.Context, names []string) (func(float64) float64, error) {
	var tables []calib.Table
	for _, name := range names {
		t, err := s.tables.Table(ctx, name)
		if errors.Is(err, calib.ErrNotFound) {
			s.log.Warn("throughput table missing, assuming unit response", zap.String("table", name))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading throughput %s: %w", name, err)
		}
		tables = append(tables, t)
	}
	return func(x float64) float64 {
		v := 1.0
		for _, t := range tables {
			v *= t.At(x)
		}
		return v
	}, nil
}

// sourceFlux returns the source photon flux density in photons/s/m²/nm
// before the atmosphere.
func (s *Synthesizer) sourceFlux(ctx context.Context, src types.SourceDefinition) (func(float64) float64, error) {
	z := 1 + src.Redshift
	if z <= 0 {
		return nil, itcerr.Config("Redshift must be greater than -1, got %g.", src.Redshift)
	}

	if src.Distribution == types.DistEmissionLine {
		if src.Line == nil {
			return nil, itcerr.Config("Emission line source needs a line definition.")
		}
		return emissionLine(*src.Line, z), nil
	}

	// shape is proportional to the rest-frame photon flux
	var shape func(float64) float64
	switch src.Distribution {
	case types.DistFlat, "":
		shape = func(x float64) float64 { return 1 / x }
	case types.DistBlackBody:
		if !(src.Temperature > 0) {
			return nil, itcerr.Config("Black body temperature must be positive, got %g K.", src.Temperature)
		}
		shape = func(x float64) float64 { return planckLambda(src.Temperature, x) * x }
	case types.DistPowerLaw:
		shape = func(x float64) float64 { return math.Pow(x, src.Index+1) }
	case types.DistLibrary:
		t, err := s.tables.Table(ctx, src.Library)
		if err != nil {
			if errors.Is(err, calib.ErrNotFound) {
				return nil, itcerr.Config("Library spectrum %q is not available.", src.Library)
			}
			return nil, fmt.Errorf("loading library spectrum: %w", err)
		}
		shape = func(x float64) float64 { return t.At(x) * x }
	default:
		return nil, itcerr.Config("Unknown spectral distribution %q.", src.Distribution)
	}

	if !(src.NormWavelength > 0) {
		return nil, itcerr.Config("Normalization wavelength must be positive, got %g nm.", src.NormWavelength)
	}
	ref := shape(src.NormWavelength / z)
	if !(ref > 0) {
		return nil, itcerr.Config("The spectrum has no flux at the normalization wavelength %g nm.", src.NormWavelength)
	}
	k := ABPhotons(src.Magnitude, src.NormWavelength) / ref
	return func(x float64) float64 { return k * shape(x/z) }, nil
}

// emissionLine returns a Gaussian line on a flat f_λ continuum.
func emissionLine(l types.EmissionLine, z float64) func(float64) float64 {
	centre := l.Wavelength * z
	sigma := centre * l.Width * 1e3 / light / 2.3548200450309493
	return func(x float64) float64 {
		energy := planck * light / (x * 1e-9)
		// continuum W/m²/µm to W/m²/nm
		cont := l.Continuum * 1e-3
		var line float64
		if sigma > 0 {
			d := (x - centre) / sigma
			line = l.Flux * math.Exp(-0.5*d*d) / (sigma * math.Sqrt(2*math.Pi))
		}
		return (cont + line) / energy
	}
}

// planckLambda returns the black-body spectral radiance per unit
// wavelength, up to a constant factor, at wavelength nm.
func planckLambda(temp, wavelength float64) float64 {
	l := wavelength * 1e-9
	return 1 / (l * l * l * l * l) / math.Expm1(planck*light/(l*boltzman*temp))
}

// skyFlux returns the sky photon flux in photons/s/m²/nm/arcsec².
func (s *Synthesizer) skyFlux(ctx context.Context, c types.ObservingConditions) (func(float64) float64, error) {
	if c.SkyTable != "" {
		t, err := s.tables.Table(ctx, c.SkyTable)
		if err == nil {
			return t.At, nil
		}
		if !errors.Is(err, calib.ErrNotFound) {
			return nil, fmt.Errorf("loading sky table: %w", err)
		}
		s.log.Warn("sky table missing, using flat sky magnitude",
			zap.String("table", c.SkyTable), zap.Float64("sky_magnitude", c.SkyMagnitude))
	}
	return func(x float64) float64 { return ABPhotons(c.SkyMagnitude, x) }, nil
}
