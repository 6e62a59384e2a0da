// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ChartKind identifies a chart in a result group.
type ChartKind string

const (
	ChartSignal      ChartKind = "signal"
	ChartS2N         ChartKind = "s2n"
	ChartSignalPixel ChartKind = "signal_pixel"
)

// SeriesKind identifies the quantity a series plots.
type SeriesKind string

const (
	SeriesSignal     SeriesKind = "signal"
	SeriesBackground SeriesKind = "background"
	SeriesSingleS2N  SeriesKind = "single_s2n"
	SeriesFinalS2N   SeriesKind = "final_s2n"
)

// Color is a rendering hint for a series.
type Color string

const (
	DarkBlue   Color = "dark_blue"
	LightBlue  Color = "light_blue"
	DarkGreen  Color = "dark_green"
	LightGreen Color = "light_green"
	DarkRed    Color = "dark_red"
	LightRed   Color = "light_red"
)

// Series is one plotted line.
type Series struct {
	Kind  SeriesKind `json:"kind" yaml:"kind"`
	Title string     `json:"title" yaml:"title"`
	CCD   int        `json:"ccd" yaml:"ccd"`

	// Slit is 0 for the single or blue slit and 1 for the red slit.
	Slit  int   `json:"slit" yaml:"slit"`
	Color Color `json:"color" yaml:"color"`

	// Visible controls the legend entry; data is always drawn.
	Visible bool `json:"visible" yaml:"visible"`

	X []float64 `json:"x" yaml:"x,flow"`
	Y []float64 `json:"y" yaml:"y,flow"`
}

// AxisRange is an inclusive axis range.
type AxisRange struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

// Axis describes a chart axis. Secondary axes are drawn opposite the main
// axis on the same chart.
type Axis struct {
	Label    string     `json:"label" yaml:"label"`
	Inverted bool       `json:"inverted,omitempty" yaml:"inverted,omitempty"`
	Range    *AxisRange `json:"range,omitempty" yaml:"range,omitempty"`
}

// Chart is a titled set of series.
type Chart struct {
	Kind      ChartKind `json:"kind" yaml:"kind"`
	Title     string    `json:"title" yaml:"title"`
	XAxis     Axis      `json:"x_axis" yaml:"x_axis"`
	YAxis     Axis      `json:"y_axis" yaml:"y_axis"`
	Secondary []Axis    `json:"secondary,omitempty" yaml:"secondary,omitempty"`
	Series    []Series  `json:"series" yaml:"series"`
}

// ChartGroup holds the charts for one IFU element, or the single group of a
// slit calculation.
type ChartGroup struct {
	// Offset is the IFU element offset in arcsec; 0 for slits and summed IFUs.
	Offset float64 `json:"offset" yaml:"offset"`
	Charts []Chart `json:"charts" yaml:"charts"`
}

// CCDSummary is the per-CCD report block.
type CCDSummary struct {
	CCD          int      `json:"ccd" yaml:"ccd"`
	Name         string   `json:"name" yaml:"name"`
	ReadNoise    float64  `json:"read_noise" yaml:"read_noise"`
	DarkCurrent  float64  `json:"dark_current" yaml:"dark_current"`
	PeakPixel    float64  `json:"peak_pixel" yaml:"peak_pixel"`
	PeakADU      float64  `json:"peak_adu" yaml:"peak_adu"`
	PercentFull  float64  `json:"percent_full" yaml:"percent_full"`
	ImageQuality float64  `json:"image_quality" yaml:"image_quality"`
	Warnings     []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Report is the renderer-facing result of one calculation.
type Report struct {
	ID       string `json:"id" yaml:"id"`
	Detector string `json:"detector" yaml:"detector"`

	// PeakPixel is the largest one-pixel signal + background in e- over all
	// CCDs and slits; PeakCCD is the CCD that produced it.
	PeakPixel float64 `json:"peak_pixel" yaml:"peak_pixel"`
	PeakCCD   int     `json:"peak_ccd" yaml:"peak_ccd"`

	// SaturationLimit is the per-pixel saturation limit in e-.
	SaturationLimit float64 `json:"saturation_limit" yaml:"saturation_limit"`

	CCDs     []CCDSummary `json:"ccds" yaml:"ccds"`
	Groups   []ChartGroup `json:"groups" yaml:"groups"`
	Warnings []string     `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}
