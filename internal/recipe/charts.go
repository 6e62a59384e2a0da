// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package recipe

import (
	"fmt"
	"strings"

	"github.com/pdiddy/spectro-itc/internal/detector"
	"github.com/pdiddy/spectro-itc/internal/spectrum"
	"github.com/pdiddy/spectro-itc/pkg/types"
)

// Chart labels.
const (
	labelWavelength = "Wavelength (nm)"
	labelSignal     = "e- per exposure per spectral pixel"
	labelS2N        = "Signal / Noise per spectral pixel"
	labelPixels     = "Pixels"
)

// Per-CCD colours, blue to red along the mosaic.
var (
	ccdDark  = [...]types.Color{types.DarkBlue, types.DarkGreen, types.DarkRed}
	ccdLight = [...]types.Color{types.LightBlue, types.LightGreen, types.LightRed}
)

// charts builds one group per displayed element.
func (r *Recipe) charts(out *Output, pl plan) ([]types.ChartGroup, error) {
	groups := make([]types.ChartGroup, len(pl.throughputs))
	for i := range groups {
		g := types.ChartGroup{Offset: pl.offsets[i]}
		if !r.opts.Headless {
			g.Charts = append(g.Charts, r.signalChart(out, pl, i))
		}
		g.Charts = append(g.Charts, r.s2nChart(out, pl, i))
		if !r.opts.Headless && r.inst.IFU2() {
			c, err := r.signalPixelChart(out, pl, i)
			if err != nil {
				return nil, err
			}
			g.Charts = append(g.Charts, c)
		}
		groups[i] = g
	}
	return groups, nil
}

// offsetLine returns the title line naming the IFU element offset.
func (r *Recipe) offsetLine(pl plan, i int) string {
	if !r.inst.IFUUsed() {
		return ""
	}
	return fmt.Sprintf("\nIFU element offset: %.2f arcsec", pl.offsets[i])
}

func (r *Recipe) signalChart(out *Output, pl plan, i int) types.Chart {
	c := types.Chart{
		Kind:  types.ChartSignal,
		Title: "Signal and SQRT(Background) in one pixel" + r.offsetLine(pl, i),
		XAxis: types.Axis{Label: labelWavelength},
		YAxis: types.Axis{Label: labelSignal},
	}
	for _, ccd := range out.CCDs {
		el := ccd.Elements[i]
		for j := range el.Slits {
			sig, bkg := r.wavelengthSeries(ccd, el.Slits[j].Signal), r.wavelengthSeries(ccd, el.Slits[j].Background)
			sigColor, bkgColor := ccdDark[ccd.Index], ccdLight[ccd.Index]
			if len(el.Slits) > 1 {
				sigColor, bkgColor = slitDark(j), slitLight(j)
			}
			c.Series = append(c.Series,
				r.series(types.SeriesSignal, slitPrefix(j, len(el.Slits))+"Signal", ccd, j, sigColor, sig),
				r.series(types.SeriesBackground, sqrtTitle(j, len(el.Slits)), ccd, j, bkgColor, bkg),
			)
		}
	}
	return c
}

func (r *Recipe) s2nChart(out *Output, pl plan, i int) types.Chart {
	title := "Intermediate Single Exp and Final S/N in aperture" + r.offsetLine(pl, i)
	if pl.ifu != nil && pl.ifu.Summed() {
		title = fmt.Sprintf("Intermediate Single Exp and Final S/N in aperture\n%d IFU elements summed in a radius of %.2f arcsec",
			len(pl.ifu.Elements), r.params.Observation.Analysis.IFU.Radius)
	}
	c := types.Chart{
		Kind:  types.ChartS2N,
		Title: title,
		XAxis: types.Axis{Label: labelWavelength},
		YAxis: types.Axis{Label: labelS2N},
	}
	for _, ccd := range out.CCDs {
		el := ccd.Elements[i]
		for j := range el.Slits {
			single, final := r.wavelengthSeries(ccd, el.Slits[j].ExpS2N), r.wavelengthSeries(ccd, el.Slits[j].FinalS2N)
			singleColor, finalColor := ccdLight[ccd.Index], ccdDark[ccd.Index]
			if len(el.Slits) > 1 {
				singleColor, finalColor = slitLight(j), slitDark(j)
			}
			prefix := slitPrefix(j, len(el.Slits))
			c.Series = append(c.Series,
				r.series(types.SeriesSingleS2N, prefix+"Single Exp S/N", ccd, j, singleColor, single),
				r.series(types.SeriesFinalS2N, prefix+"Final S/N", ccd, j, finalColor, final),
			)
		}
	}
	return c
}

// signalPixelChart places both IFU-2 slits on the shared pixel axis. The
// spectra are used without detector transmission; ToPixelSpace zeroes the
// samples that fall in a gap.
func (r *Recipe) signalPixelChart(out *Output, pl plan, i int) (types.Chart, error) {
	m := r.mosaic
	shift, err := m.WavelengthShift()
	if err != nil {
		return types.Chart{}, err
	}
	redStart, redEnd, err := m.IFU2Red()
	if err != nil {
		return types.Chart{}, err
	}
	blueStart, blueEnd, err := m.IFU2Blue()
	if err != nil {
		return types.Chart{}, err
	}

	offset := 0.0
	if pl.ifu != nil && !pl.ifu.Summed() {
		offset = pl.offsets[i]
	}
	c := types.Chart{
		Kind:  types.ChartSignalPixel,
		Title: fmt.Sprintf("Pixel Signal and SQRT(Background)\nIFU element offset: %.2f arcsec", offset),
		XAxis: types.Axis{Label: labelPixels, Inverted: true, Range: &types.AxisRange{Start: 0, End: m.FullArrayPix()}},
		YAxis: types.Axis{Label: labelSignal},
		Secondary: []types.Axis{
			{Label: "Wavelength (nm) (Red slit)", Range: &types.AxisRange{Start: redStart, End: redEnd}},
			{Label: "Wavelength (nm) (Blue slit)", Range: &types.AxisRange{Start: blueStart, End: blueEnd}},
		},
	}

	pixels := func(s *spectrum.Sampled, ccd CCDResult, shift float64) spectrum.Series {
		return detector.FixGapBorders(m.ToPixelSpace(s.Data(ccd.First, ccd.Last), shift))
	}
	for _, ccd := range out.CCDs {
		blue, red := ccd.Elements[i].Slits[0], ccd.Elements[i].Slits[1]
		c.Series = append(c.Series,
			r.series(types.SeriesSignal, "Blue Slit Signal", ccd, 0, types.DarkBlue, pixels(blue.Signal, ccd, -shift)),
			r.series(types.SeriesBackground, "SQRT(Blue Slit Background)", ccd, 0, types.LightBlue, pixels(blue.Background, ccd, -shift)),
			r.series(types.SeriesSignal, "Red Slit Signal", ccd, 1, types.DarkRed, pixels(red.Signal, ccd, shift)),
			r.series(types.SeriesBackground, "SQRT(Red Slit Background)", ccd, 1, types.LightRed, pixels(red.Background, ccd, shift)),
		)
	}
	return c, nil
}

// wavelengthSeries applies the detector transmission to a copy of s and
// extracts the CCD's pixel range. Multi-CCD series have their borders
// clamped to hide resampling spikes next to the gaps.
func (r *Recipe) wavelengthSeries(ccd CCDResult, s *spectrum.Sampled) spectrum.Series {
	d := spectrum.Apply(s, r.mosaic.Transmission()).Data(ccd.First, ccd.Last)
	if r.mosaic.CCDCount() > 1 {
		d = detector.FixGapBorders(d)
	}
	return d
}

// series builds a chart series. For IFU-2 all CCDs share the slit colours,
// so only the first CCD gets legend entries; the CCD name keeps titles
// unique.
func (r *Recipe) series(kind types.SeriesKind, title string, ccd CCDResult, slit int, color types.Color, d spectrum.Series) types.Series {
	visible := !(ccd.Index != 0 && r.inst.IFU2())
	suffix := ""
	if r.mosaic.CCDCount() > 1 && !(ccd.Index == 0 && r.inst.IFU2()) {
		suffix = ccd.Name
	}
	return types.Series{
		Kind:    kind,
		Title:   strings.TrimSpace(title + " " + suffix),
		CCD:     ccd.Index,
		Slit:    slit,
		Color:   color,
		Visible: visible,
		X:       d.X,
		Y:       d.Y,
	}
}

func slitPrefix(slit, slits int) string {
	switch {
	case slits == 1:
		return ""
	case slit == 0:
		return "Blue Slit "
	default:
		return "Red Slit "
	}
}

func sqrtTitle(slit, slits int) string {
	return "SQRT(" + slitPrefix(slit, slits) + "Background)"
}

func slitDark(slit int) types.Color {
	if slit == 0 {
		return types.DarkBlue
	}
	return types.DarkRed
}

func slitLight(slit int) types.Color {
	if slit == 0 {
		return types.LightBlue
	}
	return types.LightRed
}
