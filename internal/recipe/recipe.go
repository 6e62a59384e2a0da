// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package recipe runs a spectroscopy calculation end to end. It validates
// the instrument configuration, builds the detector mosaic, synthesizes the
// source and sky spectra for every CCD, computes S/N for every slit and IFU
// element, and assembles the per-CCD results, chart series and summaries.
//
// CCDs are independent and computed in parallel. Each goroutine writes only
// its own result slot; the mosaic, catalog and calibration tables are shared
// read-only.
package recipe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/spectro-itc/internal/aperture"
	"github.com/pdiddy/spectro-itc/internal/calib"
	"github.com/pdiddy/spectro-itc/internal/catalog"
	"github.com/pdiddy/spectro-itc/internal/detector"
	"github.com/pdiddy/spectro-itc/internal/itcerr"
	"github.com/pdiddy/spectro-itc/internal/metrics"
	"github.com/pdiddy/spectro-itc/internal/s2n"
	"github.com/pdiddy/spectro-itc/internal/sed"
	"github.com/pdiddy/spectro-itc/pkg/types"
)

// uniformImageQuality is passed to the S/N calculator for uniform sources so
// that the slit width sets the resolution element.
const uniformImageQuality = 10000

// fiberPixels is the spatial pitch of IFU fibres on the detector in unbinned
// pixels.
const fiberPixels = 5.0

// Synthesizer produces the source and sky spectra at the detector.
type Synthesizer interface {
	Synthesize(ctx context.Context, req sed.Request) (sed.Result, error)
}

// Options tune a calculation. The zero value is usable.
type Options struct {
	// Workers bounds the number of CCDs computed in parallel.
	Workers int

	// Sampling is the synthesis grid in nm.
	Sampling float64

	// Headless keeps only the S/N charts.
	Headless bool

	Log     *zap.Logger
	Metrics *metrics.Collector
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 3
	}
	if !(o.Sampling > 0) {
		o.Sampling = 0.01
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	return o
}

// Recipe is a validated calculation ready to run.
type Recipe struct {
	params types.ITCParameters
	inst   Instrument
	mosaic *detector.Mosaic
	synth  Synthesizer
	opts   Options
}

// New validates p against cat and builds the detector mosaic from the gap
// table in tables. Configuration errors are returned before anything is
// synthesized.
func New(ctx context.Context, p types.ITCParameters, cat *catalog.Catalog, tables calib.Source, synth Synthesizer, opts Options) (*Recipe, error) {
	opts = opts.withDefaults()

	inst, err := Validate(p, cat)
	if err != nil {
		return nil, err
	}
	if n := len(inst.Detector.CCDs); n > len(ccdDark) {
		return nil, itcerr.Internal("recipe.New", "detector %s has %d CCDs", inst.Detector.Kind, n)
	}

	gaps, err := tables.Table(ctx, inst.Detector.GapTable)
	if err != nil {
		if errors.Is(err, calib.ErrNotFound) {
			return nil, itcerr.Internal("recipe.New", "gap table %s is not available", inst.Detector.GapTable)
		}
		return nil, fmt.Errorf("loading gap table: %w", err)
	}

	mosaic, err := detector.Build(gaps, detector.Geometry{
		Detector:          inst.Detector,
		Site:              inst.Site,
		SpectralBinning:   inst.SpectralBinning,
		CentralWavelength: p.Instrument.CentralWavelength,
		Dispersion:        inst.Grating.Dispersion,
		RulingDensity:     inst.Grating.RulingDensity,
	})
	if err != nil {
		return nil, err
	}
	if inst.IFU2() {
		if _, err := mosaic.WavelengthShift(); err != nil {
			return nil, err
		}
	}

	opts.Log.Debug("recipe configured",
		zap.String("mosaic", mosaic.String()),
		zap.String("grating", inst.Grating.ID),
		zap.String("mask", inst.Mask.ID),
		zap.Float64("slit_width", inst.SlitWidth))

	return &Recipe{params: p, inst: inst, mosaic: mosaic, synth: synth, opts: opts}, nil
}

// Run builds a Recipe and calculates it, recording the outcome in
// opts.Metrics.
func Run(ctx context.Context, p types.ITCParameters, cat *catalog.Catalog, tables calib.Source, synth Synthesizer, opts Options) (*Output, error) {
	start := time.Now()
	r, err := New(ctx, p, cat, tables, synth, opts)
	if err != nil {
		opts.Metrics.ObserveCalculation(start, err)
		return nil, err
	}
	out, err := r.Calculate(ctx)
	opts.Metrics.ObserveCalculation(start, err)
	return out, err
}

// Instrument returns the validated instrument configuration.
func (r *Recipe) Instrument() Instrument { return r.inst }

// Mosaic returns the detector mosaic.
func (r *Recipe) Mosaic() *detector.Mosaic { return r.mosaic }

// CCDResult is the outcome for one CCD.
type CCDResult struct {
	Index int
	Name  string

	// First and Last are the binned pixel range of the CCD.
	First int
	Last  int

	// Elements holds one result per displayed IFU element, or a single
	// result for a slit or summed IFU. Each has one SlitResult per slit.
	Elements []s2n.Result

	Throughput   aperture.Throughput
	ImageQuality float64
	PeakPixel    float64
}

// Output is the merged result of a calculation. It is not modified after
// Calculate returns.
type Output struct {
	ID uuid.UUID

	Instrument Instrument
	Mosaic     *detector.Mosaic

	CCDs []CCDResult

	// PeakPixel is the largest peak over all CCDs and slits and PeakCCD the
	// CCD that produced it.
	PeakPixel float64
	PeakCCD   int

	Groups    []types.ChartGroup
	Summaries []types.CCDSummary
	Warnings  []string
}

// Report converts the output for renderers and exporters.
func (o *Output) Report() types.Report {
	return types.Report{
		ID:              o.ID.String(),
		Detector:        o.Instrument.Detector.Kind,
		PeakPixel:       o.PeakPixel,
		PeakCCD:         o.PeakCCD,
		SaturationLimit: o.Instrument.SaturationLimit(),
		CCDs:            o.Summaries,
		Groups:          o.Groups,
		Warnings:        o.Warnings,
	}
}

// plan is the aperture setup shared by all CCDs.
type plan struct {
	slit        aperture.Slit
	throughputs []aperture.Throughput
	offsets     []float64
	ifu         *aperture.IFUResult

	// imageQuality is the delivered FWHM; s2nQuality is what the S/N
	// calculator sees.
	imageQuality float64
	s2nQuality   float64
}

// Calculate runs every CCD and merges the results.
func (r *Recipe) Calculate(ctx context.Context) (*Output, error) {
	pl, err := r.plan()
	if err != nil {
		return nil, err
	}

	n := r.mosaic.CCDCount()
	results := make([]CCDResult, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for ccd := 0; ccd < n; ccd++ {
		ccd := ccd
		g.Go(func() error {
			res, err := r.calculateCCD(gctx, ccd, pl)
			if err != nil {
				return fmt.Errorf("ccd %d: %w", ccd, err)
			}
			results[ccd] = res
			r.opts.Metrics.ObserveCCD(r.inst.Detector.Kind)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Output{
		ID:         uuid.New(),
		Instrument: r.inst,
		Mosaic:     r.mosaic,
		CCDs:       results,
	}
	for _, res := range results {
		if res.PeakPixel > out.PeakPixel {
			out.PeakPixel = res.PeakPixel
			out.PeakCCD = res.Index
		}
	}
	if limit := r.inst.SaturationLimit(); limit > 0 {
		r.opts.Metrics.ObservePeak(r.inst.Detector.Kind, out.PeakPixel/limit)
	}
	r.opts.Log.Info("calculation complete",
		zap.String("id", out.ID.String()),
		zap.Int("ccds", n),
		zap.Float64("peak_pixel", out.PeakPixel),
		zap.Int("peak_ccd", out.PeakCCD))

	groups, err := r.charts(out, pl)
	if err != nil {
		return nil, err
	}
	out.Groups = groups
	out.Summaries = r.summaries(out)
	out.Warnings = r.warnings()
	return out, nil
}

// plan computes image quality and aperture throughput. Every configuration
// error it can raise surfaces here, before synthesis.
func (r *Recipe) plan() (plan, error) {
	src := r.params.Source
	cond := r.params.Conditions

	var fwhm float64
	if src.Profile == types.ProfileGaussian {
		fwhm = src.FWHM
	}
	iq := aperture.ImageQuality(cond.Seeing, cond.Airmass, r.params.Instrument.CentralWavelength, fwhm)
	if !src.IsUniform() && !(iq > 0) {
		return plan{}, itcerr.Config("Image quality must be positive; check the seeing (%g arcsec).", cond.Seeing)
	}
	morph := aperture.Morphology{Uniform: src.IsUniform(), FWHM: iq}

	pl := plan{imageQuality: iq, s2nQuality: iq}
	if src.IsUniform() {
		pl.s2nQuality = uniformImageQuality
	}
	pixelSize := r.inst.PixelSize()

	if !r.inst.IFUUsed() {
		length := r.params.Observation.Analysis.ApertureLength
		if length == 0 {
			length = aperture.AutoLength(morph)
		}
		pl.slit = aperture.Slit{Width: r.inst.SlitWidth, Length: length, PixelSize: pixelSize}
		tp, err := aperture.SlitThroughput(morph, pl.slit)
		if err != nil {
			return plan{}, err
		}
		pl.throughputs = []aperture.Throughput{tp}
		pl.offsets = []float64{0}
		r.opts.Log.Info("fraction of source in aperture",
			zap.Float64("total", tp.Fraction), zap.Float64("one_pixel", tp.OnePixel))
		return pl, nil
	}

	ifu, err := aperture.IFU(morph, *r.params.Observation.Analysis.IFU)
	if err != nil {
		return plan{}, err
	}
	if len(ifu.Elements) == 0 {
		return plan{}, itcerr.Config("The IFU analysis method selects no IFU elements.")
	}
	pl.ifu = &ifu
	r.opts.Log.Info("fraction of source in IFU elements",
		zap.Int("elements", len(ifu.Elements)), zap.Float64s("fractions", ifu.Fractions()))

	fibers := 1.0
	switch {
	case ifu.Summed():
		fibers = float64(len(ifu.Elements))
		pl.throughputs = []aperture.Throughput{ifu.Sum()}
		pl.offsets = []float64{0}
	case src.IsUniform():
		// every element sees the same surface brightness
		pl.throughputs = []aperture.Throughput{ifu.Element(0)}
		pl.offsets = ifu.Offsets()[:1]
	default:
		pl.offsets = ifu.Offsets()
		for i := range ifu.Elements {
			pl.throughputs = append(pl.throughputs, ifu.Element(i))
		}
	}

	lengthPixels := fibers * fiberPixels / float64(r.inst.SpatialBinning)
	pl.slit = aperture.Slit{Width: r.inst.SlitWidth, Length: lengthPixels * pixelSize, PixelSize: pixelSize}
	if err := pl.slit.Validate(); err != nil {
		return plan{}, err
	}
	r.opts.Log.Debug("IFU slit length",
		zap.Float64("fibers", fibers), zap.Float64("pixels", lengthPixels))
	return pl, nil
}

// calculateCCD synthesizes the spectra for one CCD and runs the S/N
// calculator for every element and slit.
func (r *Recipe) calculateCCD(ctx context.Context, ccd int, pl plan) (CCDResult, error) {
	m := r.mosaic
	slits := r.inst.Mask.SlitCount()
	first, last := m.SegmentStart(ccd), m.SegmentEnd(ccd, m.CCDCount())

	obs := r.params.Observation
	base := s2n.Input{
		Slit:         pl.slit,
		PixelWidth:   m.PixelWidth(),
		Dispersion:   r.inst.Grating.Dispersion,
		PlateScale:   r.inst.Detector.PlateScale,
		ImageQuality: pl.s2nQuality,
		Detector: s2n.Detector{
			ReadNoise:   r.inst.Amp.ReadNoise,
			DarkCurrent: r.inst.DarkCurrent(),
		},
		Exposure: s2n.Exposure{
			Time:           obs.ExposureTime,
			Count:          obs.Exposures,
			SourceFraction: obs.OnSourceFraction(),
		},
		FirstPixel: first,
		LastPixel:  last,
	}

	// one synthesis covers every slit of the CCD
	ranges := make([][2]float64, slits)
	lo, hi := math.Inf(1), math.Inf(-1)
	for j := range ranges {
		shift, err := m.SlitShift(j, slits)
		if err != nil {
			return CCDResult{}, err
		}
		start, end := m.ObservingRange(shift)
		ranges[j] = [2]float64{start, end}
		lo, hi = math.Min(lo, start), math.Max(hi, end)
	}
	margin := 2 * (base.PixelWidth + base.Resolution())

	spectra, err := r.synth.Synthesize(ctx, sed.Request{
		Source:     r.params.Source,
		Conditions: r.params.Conditions,
		Telescope:  r.params.Telescope,
		Start:      lo - margin,
		End:        hi + margin,
		Sampling:   r.opts.Sampling,
		Throughput: throughputTables(r.inst, ccd),
	})
	if err != nil {
		return CCDResult{}, err
	}

	res := CCDResult{
		Index:        ccd,
		Name:         m.CCDName(ccd),
		First:        first,
		Last:         last,
		Elements:     make([]s2n.Result, len(pl.throughputs)),
		Throughput:   pl.throughputs[0],
		ImageQuality: pl.imageQuality,
	}
	for i, tp := range pl.throughputs {
		el := s2n.Result{Slits: make([]s2n.SlitResult, slits)}
		for j := 0; j < slits; j++ {
			in := base
			in.Source, in.Sky = spectra.Source, spectra.Sky
			in.Throughput = tp
			in.ObservingStart, in.ObservingEnd = ranges[j][0], ranges[j][1]
			sr, err := s2n.Compute(in)
			if err != nil {
				return CCDResult{}, fmt.Errorf("element %d slit %d: %w", i, j, err)
			}
			el.Slits[j] = *sr
		}
		peak, err := el.PeakPixelCount()
		if err != nil {
			return CCDResult{}, err
		}
		res.PeakPixel = math.Max(res.PeakPixel, peak)
		res.Elements[i] = el
	}

	r.opts.Log.Debug("ccd computed",
		zap.Int("ccd", ccd), zap.String("name", res.Name),
		zap.Int("first", first), zap.Int("last", last),
		zap.Float64("peak_pixel", res.PeakPixel))
	return res, nil
}

// throughputTables names the optics, grating and QE tables for a CCD.
func throughputTables(in Instrument, ccd int) []string {
	return []string{
		"ghost_optics",
		"ghost_" + strings.ToLower(in.Grating.Name),
		in.Detector.CCDs[ccd].QETable,
	}
}
