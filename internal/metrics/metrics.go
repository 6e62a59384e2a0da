// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes Prometheus counters and histograms for
// calculations.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pdiddy/spectro-itc/internal/itcerr"
)

// Result labels.
const (
	ResultOK            = "ok"
	ResultConfigError   = "config_error"
	ResultInternalError = "internal_error"
	ResultCanceled      = "canceled"
)

// Collector bundles the calculation metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	Calculations *prometheus.CounterVec
	Duration     *prometheus.HistogramVec
	CCDs         *prometheus.CounterVec
	PeakPixel    *prometheus.HistogramVec
}

// NewCollector registers the calculation metrics with reg, or with the
// default registerer when reg is nil. Registering twice returns the existing
// collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	calcs, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "itc_calculations_total",
		Help: "Total calculations by result.",
	}, []string{"result"}), "itc_calculations_total")
	if err != nil {
		return nil, err
	}

	duration, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "itc_calculation_duration_seconds",
		Help:    "Calculation latency by result.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"result"}), "itc_calculation_duration_seconds")
	if err != nil {
		return nil, err
	}

	ccds, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "itc_ccd_computations_total",
		Help: "Per-CCD computations by detector kind.",
	}, []string{"detector"}), "itc_ccd_computations_total")
	if err != nil {
		return nil, err
	}

	peak, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "itc_peak_pixel_fraction",
		Help:    "Peak pixel flux as a fraction of the saturation limit.",
		Buckets: []float64{0.1, 0.25, 0.5, 0.75, 0.95, 1, 2},
	}, []string{"detector"}), "itc_peak_pixel_fraction")
	if err != nil {
		return nil, err
	}

	return &Collector{
		Calculations: calcs,
		Duration:     duration,
		CCDs:         ccds,
		PeakPixel:    peak,
	}, nil
}

// Classify maps a calculation error to its result label.
func Classify(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case itcerr.IsConfig(err):
		return ResultConfigError
	case itcerr.IsInternal(err):
		return ResultInternalError
	default:
		return ResultCanceled
	}
}

// ObserveCalculation records one finished calculation that started at start.
func (c *Collector) ObserveCalculation(start time.Time, err error) {
	if c == nil {
		return
	}
	result := Classify(err)
	if c.Calculations != nil {
		c.Calculations.WithLabelValues(result).Inc()
	}
	if c.Duration != nil {
		c.Duration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	}
}

// ObserveCCD records one per-CCD computation.
func (c *Collector) ObserveCCD(detector string) {
	if c == nil || c.CCDs == nil {
		return
	}
	c.CCDs.WithLabelValues(detector).Inc()
}

// ObservePeak records the peak pixel flux relative to the saturation limit.
func (c *Collector) ObservePeak(detector string, fraction float64) {
	if c == nil || c.PeakPixel == nil {
		return
	}
	c.PeakPixel.WithLabelValues(detector).Observe(fraction)
}

// WriteFile writes everything g gathers to path in the Prometheus text
// format, for a node exporter textfile collector to pick up.
func WriteFile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
