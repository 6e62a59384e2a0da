// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/astrogo/fitsio"

	"github.com/pdiddy/spectro-itc/pkg/types"
)

// maxCardString is the longest string value written to a header card.
const maxCardString = 60

// WriteFITS streams r as a FITS file. The primary HDU is empty and carries
// the report summary; every chart series follows as a 2 x N float64 image
// extension with the x values in the first row and y in the second.
func WriteFITS(w io.Writer, r types.Report) (err error) {
	f, err := fitsio.Create(w)
	if err != nil {
		return fmt.Errorf("creating FITS stream: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing FITS stream: %w", cerr)
		}
	}()

	primary := fitsio.NewImage(8, nil)
	defer primary.Close()
	err = primary.Header().Append(
		fitsio.Card{Name: "ITCID", Value: cardString(r.ID), Comment: "calculation id"},
		fitsio.Card{Name: "DETECTOR", Value: cardString(r.Detector), Comment: "detector kind"},
		fitsio.Card{Name: "PEAKPIX", Value: r.PeakPixel, Comment: "peak pixel signal + background [e-]"},
		fitsio.Card{Name: "PEAKCCD", Value: r.PeakCCD, Comment: "CCD with the peak pixel"},
		fitsio.Card{Name: "SATLIMIT", Value: r.SaturationLimit, Comment: "saturation limit [e-]"},
		fitsio.Card{Name: "NGROUPS", Value: len(r.Groups), Comment: "chart groups"},
	)
	if err != nil {
		return fmt.Errorf("writing primary header: %w", err)
	}
	if err := f.Write(primary); err != nil {
		return fmt.Errorf("writing primary HDU: %w", err)
	}

	for gi, g := range r.Groups {
		for ci, c := range g.Charts {
			for si, s := range c.Series {
				if err := writeSeries(f, gi, ci, si, g, c, s); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func writeSeries(f *fitsio.File, gi, ci, si int, g types.ChartGroup, c types.Chart, s types.Series) error {
	n := len(s.X)
	im := fitsio.NewImage(-64, []int{n, 2})
	defer im.Close()

	err := im.Header().Append(
		fitsio.Card{Name: "EXTNAME", Value: fmt.Sprintf("G%dC%dS%d", gi, ci, si)},
		fitsio.Card{Name: "OFFSET", Value: g.Offset, Comment: "IFU element offset [arcsec]"},
		fitsio.Card{Name: "CHART", Value: string(c.Kind)},
		fitsio.Card{Name: "CTITLE", Value: cardString(c.Title)},
		fitsio.Card{Name: "XLABEL", Value: cardString(c.XAxis.Label)},
		fitsio.Card{Name: "YLABEL", Value: cardString(c.YAxis.Label)},
		fitsio.Card{Name: "SERIES", Value: string(s.Kind)},
		fitsio.Card{Name: "STITLE", Value: cardString(s.Title)},
		fitsio.Card{Name: "CCD", Value: s.CCD},
		fitsio.Card{Name: "SLIT", Value: s.Slit},
		fitsio.Card{Name: "COLOR", Value: string(s.Color)},
		fitsio.Card{Name: "VISIBLE", Value: s.Visible},
	)
	if err != nil {
		return fmt.Errorf("writing header of %s: %w", s.Title, err)
	}

	data := make([]float64, 0, 2*n)
	data = append(data, s.X...)
	data = append(data, s.Y...)
	if err := im.Write(data); err != nil {
		return fmt.Errorf("writing data of %s: %w", s.Title, err)
	}
	if err := f.Write(im); err != nil {
		return fmt.Errorf("writing HDU of %s: %w", s.Title, err)
	}
	return nil
}

// cardString makes s safe for a header card: one line, at most
// maxCardString bytes, cut on a rune boundary.
func cardString(s string) string {
	s = strings.ReplaceAll(s, "\n", "; ")
	if len(s) <= maxCardString {
		return s
	}
	cut := maxCardString
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
