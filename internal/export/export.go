// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes calculation reports as text, YAML, JSON or FITS.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/spectro-itc/pkg/types"
)

// Write renders r to w in the given format.
func Write(w io.Writer, r types.Report, format types.OutputFormat) error {
	switch format {
	case types.OutputText, "":
		return WriteText(w, r)
	case types.OutputYAML:
		return WriteYAML(w, r)
	case types.OutputJSON:
		return WriteJSON(w, r)
	case types.OutputFITS:
		return WriteFITS(w, r)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// WriteFile renders r to path, replacing any existing file.
func WriteFile(path string, r types.Report, format types.OutputFormat) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Write(f, r, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteYAML writes the full report including every chart series.
func WriteYAML(w io.Writer, r types.Report) error {
	data, err := yaml.Marshal(&r)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// WriteJSON writes the full report as indented JSON.
func WriteJSON(w io.Writer, r types.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// WriteText writes the per-CCD summary a user reads after a calculation.
// Chart data is omitted.
func WriteText(w io.Writer, r types.Report) error {
	p := &printer{w: w}
	p.printf("Calculation %s (%s detector)\n\n", r.ID, r.Detector)

	if len(r.CCDs) > 1 {
		// one peak for the whole mosaic, from the CCD that produced it
		for _, c := range r.CCDs {
			if c.CCD == r.PeakCCD {
				p.peak(c, r.SaturationLimit)
			}
		}
		p.printf("\n")
	}
	for _, c := range r.CCDs {
		if c.Name != "" {
			p.printf("CCD %s\n", c.Name)
		}
		p.printf("Read noise: %.2f e-\n", c.ReadNoise)
		p.printf("Dark current: %.4g e-/s/pix\n", c.DarkCurrent)
		p.printf("Image quality: %.2f arcsec\n", c.ImageQuality)
		p.peak(c, r.SaturationLimit)
		for _, msg := range c.Warnings {
			p.printf("%s\n", msg)
		}
		p.printf("\n")
	}
	for _, msg := range r.Warnings {
		p.printf("%s\n", msg)
	}
	return p.err
}

// printer remembers the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) peak(c types.CCDSummary, limit float64) {
	p.printf("The peak pixel signal + background is %.0f e- (%d ADU). This is %.0f%% of the saturation limit of %.0f e-.\n",
		c.PeakPixel, int(c.PeakADU), c.PercentFull, limit)
}
