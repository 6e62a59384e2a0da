// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/spectro-itc/pkg/types"
)

func sampleReport() types.Report {
	return types.Report{
		ID:              "0b6f6f4e-4c1b-4a44-9d0e-6d8a3f0f2a11",
		Detector:        "HAMAMATSU",
		PeakPixel:       1234.4,
		PeakCCD:         1,
		SaturationLimit: 106822,
		CCDs: []types.CCDSummary{
			{CCD: 0, Name: "BB(B)", ReadNoise: 4.14, DarkCurrent: 0.004, PeakPixel: 900, PeakADU: 552, PercentFull: 0.8, ImageQuality: 0.72},
			{CCD: 1, Name: "HSC", ReadNoise: 4.14, DarkCurrent: 0.004, PeakPixel: 1234.4, PeakADU: 757, PercentFull: 1.2, ImageQuality: 0.70,
				Warnings: []string{"Warning: near saturation."}},
		},
		Groups: []types.ChartGroup{{
			Charts: []types.Chart{{
				Kind:  types.ChartS2N,
				Title: "Intermediate Single Exp and Final S/N in aperture\nIFU element offset: 0.00 arcsec",
				XAxis: types.Axis{Label: "Wavelength (nm)"},
				YAxis: types.Axis{Label: "Signal / Noise per spectral pixel"},
				Series: []types.Series{
					{Kind: types.SeriesSingleS2N, Title: "Single Exp S/N", Color: types.LightBlue, Visible: true, X: []float64{500, 501}, Y: []float64{3, 4}},
					{Kind: types.SeriesFinalS2N, Title: "Final S/N", Color: types.DarkBlue, Visible: true, X: []float64{500, 501}, Y: []float64{6, 8}},
				},
			}},
		}},
		Warnings: []string{"THE SPECTRAL RESOLUTION IS UNDERSAMPLED."},
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), types.OutputText))
	out := buf.String()

	assert.Contains(t, out, "HAMAMATSU detector")
	assert.Contains(t, out, "CCD BB(B)")
	assert.Contains(t, out, "Read noise: 4.14 e-")
	assert.Contains(t, out, "The peak pixel signal + background is 1234 e- (757 ADU). This is 1% of the saturation limit of 106822 e-.")
	assert.Contains(t, out, "Warning: near saturation.")
	assert.Contains(t, out, "UNDERSAMPLED")
	assert.NotContains(t, out, "Single Exp S/N")
	// mosaic peak line plus one per CCD
	assert.Equal(t, 3, strings.Count(out, "The peak pixel"))
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), types.OutputYAML))

	var got types.Report
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	if diff := cmp.Diff(sampleReport(), got); diff != "" {
		t.Errorf("YAML round trip mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, buf.String(), "x: [500, 501]")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), types.OutputJSON))

	var got types.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	if diff := cmp.Diff(sampleReport(), got); diff != "" {
		t.Errorf("JSON round trip mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, buf.String(), `"saturation_limit": 106822`)
}

func TestWriteFITS(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport(), types.OutputFITS))
	out := buf.String()

	require.NotEmpty(t, out)
	assert.True(t, strings.HasPrefix(out, "SIMPLE"))
	assert.Zero(t, buf.Len()%2880, "FITS files are made of 2880 byte blocks")
	assert.Contains(t, out, "HAMAMATSU")
	assert.Contains(t, out, "G0C0S0")
	assert.Contains(t, out, "G0C0S1")
	assert.Contains(t, out, "Final S/N")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteFITSWriterError(t *testing.T) {
	err := WriteFITS(failingWriter{}, sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestWriteUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, sampleReport(), types.OutputFormat("png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "png")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, WriteFile(path, sampleReport(), types.OutputJSON))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "BB(B)")
}

func TestCardString(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"short", "short"},
		{"two\nlines", "two; lines"},
		{strings.Repeat("a", 80), strings.Repeat("a", maxCardString)},
		// a two-byte rune straddling the limit is dropped whole
		{strings.Repeat("a", maxCardString-1) + "Å and more", strings.Repeat("a", maxCardString-1)},
	}
	for _, tt := range tests {
		got := cardString(tt.in)
		assert.Equal(t, tt.want, got)
		assert.True(t, utf8.ValidString(got))
	}
}
