// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/spectro-itc/internal/calib"
	"github.com/pdiddy/spectro-itc/pkg/types"
)

const hamamatsuGaps = `# unbinned pixel, transmission
1    1
2048 1
2049 0
2115 0
2116 1
4163 1
4164 0
4230 0
4231 1
6278 1
`

func testParams() types.ITCParameters {
	return types.ITCParameters{
		Source: types.SourceDefinition{
			Profile:        types.ProfilePoint,
			Distribution:   types.DistFlat,
			Magnitude:      18,
			NormWavelength: 500,
		},
		Conditions: types.ObservingConditions{Seeing: 0.8, Airmass: 1.2, SkyMagnitude: 21},
		Telescope:  types.TelescopeDetails{Site: types.SiteNorth, Diameter: 8.1, Obstruction: 0.05},
		Observation: types.ObservationDetails{
			Mode:         types.ModeSpectroscopy,
			ExposureTime: 600,
			Exposures:    4,
		},
		Instrument: types.InstrumentParameters{
			Grating:           "B600_G5307",
			CentralWavelength: 500,
			Mask:              "LONGSLIT_3",
			SpatialBinning:    1,
			SpectralBinning:   2,
			Detector:          "HAMAMATSU",
			AmpGain:           "LOW",
			ReadMode:          "SLOW",
		},
	}
}

// writeFixtures writes a parameters file and a calibration directory holding
// only the gap table; the other tables default to unit response.
func writeFixtures(t *testing.T, p types.ITCParameters) (paramsPath, calibDir string) {
	t.Helper()
	dir := t.TempDir()
	calibDir = filepath.Join(dir, "calib")
	require.NoError(t, os.Mkdir(calibDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(calibDir, "ghost_ccdpix_hamamatsu.dat"), []byte(hamamatsuGaps), 0o644))

	data, err := yaml.Marshal(&p)
	require.NoError(t, err)
	paramsPath = filepath.Join(dir, "params.yaml")
	require.NoError(t, os.WriteFile(paramsPath, data, 0o644))
	return paramsPath, calibDir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestLoadParams(t *testing.T) {
	path, _ := writeFixtures(t, testParams())
	p, err := loadParams(path)
	require.NoError(t, err)
	assert.Equal(t, testParams(), p)

	_, err = loadParams(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestOpenTables(t *testing.T) {
	_, calibDir := writeFixtures(t, testParams())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	tables, release, err := openTables(types.CalibConfig{Dir: calibDir})
	require.NoError(t, err)
	defer release()
	tbl, err := tables.Table(ctx, "ghost_ccdpix_hamamatsu")
	require.NoError(t, err)
	assert.Equal(t, 10, tbl.Len())

	dbPath := filepath.Join(t.TempDir(), "calib.db")
	db, err := calib.OpenSQLite(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.Put(ctx, tbl))
	require.NoError(t, db.Close())

	// the database wins over the directory
	tables, release, err = openTables(types.CalibConfig{Dir: t.TempDir(), DBPath: dbPath})
	require.NoError(t, err)
	defer release()
	tbl, err = tables.Table(ctx, "ghost_ccdpix_hamamatsu")
	require.NoError(t, err)
	assert.Equal(t, 10, tbl.Len())
}

func TestCalcJSON(t *testing.T) {
	paramsPath, calibDir := writeFixtures(t, testParams())
	out := filepath.Join(t.TempDir(), "result.json")

	stdout, stderr, err := execute(t, "calc", "-p", paramsPath, "--calib-dir", calibDir,
		"--sampling", "0.05", "--format", "json", "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote "+out)
	// logs go to the command's error stream
	assert.Contains(t, stderr, `"msg":"calculation finished"`)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var r types.Report
	require.NoError(t, json.Unmarshal(data, &r))
	assert.Equal(t, "HAMAMATSU", r.Detector)
	assert.Len(t, r.CCDs, 3)
	require.Len(t, r.Groups, 1)
	assert.Greater(t, r.PeakPixel, 0.0)
}

func TestCalcConfigError(t *testing.T) {
	p := testParams()
	p.Instrument.CentralWavelength = 1200
	paramsPath, calibDir := writeFixtures(t, p)

	_, stderr, err := execute(t, "calc", "-p", paramsPath, "--calib-dir", calibDir, "--format", "text")
	require.Error(t, err)
	assert.Contains(t, stderr, "between 360 nm and 1000 nm")
}

func TestCalibImport(t *testing.T) {
	_, calibDir := writeFixtures(t, testParams())
	dbPath := filepath.Join(t.TempDir(), "calib.db")
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	stdout, _, err := execute(t, "calib", "import", "--dir", calibDir, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "imported ghost_ccdpix_hamamatsu (10 rows)")

	db, err := calib.OpenSQLite(dbPath)
	require.NoError(t, err)
	defer db.Close()
	tbl, err := db.Table(ctx, "ghost_ccdpix_hamamatsu")
	require.NoError(t, err)
	assert.Equal(t, 10, tbl.Len())
}

func TestCatalog(t *testing.T) {
	tests := []struct {
		table    string
		contains string
	}{
		{"gratings", "B600_G5307"},
		{"masks", "IFU_1"},
		{"filters", "g_G0301"},
	}
	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			stdout, _, err := execute(t, "catalog", tt.table)
			require.NoError(t, err)
			assert.Contains(t, stdout, tt.contains)
		})
	}

	_, _, err := execute(t, "catalog", "lasers")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "spectro-itc "))
}

// Flags persist between executions of rootCmd, so the metrics tests come last
// and every later calc in this file would also write metrics.
func TestCalcMetricsFile(t *testing.T) {
	paramsPath, calibDir := writeFixtures(t, testParams())
	dir := t.TempDir()
	metricsPath := filepath.Join(dir, "itc.prom")

	_, _, err := execute(t, "calc", "-p", paramsPath, "--calib-dir", calibDir,
		"--sampling", "0.05", "--format", "yaml", "-o", filepath.Join(dir, "result.yaml"),
		"--metrics-file", metricsPath)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `itc_calculations_total{result="ok"} 1`)
	assert.Contains(t, string(data), `itc_ccd_computations_total{detector="HAMAMATSU"} 3`)
}

func TestCalcMetricsFileOnConfigError(t *testing.T) {
	p := testParams()
	p.Instrument.Mask = "FPU_NONE"
	paramsPath, calibDir := writeFixtures(t, p)
	metricsPath := filepath.Join(t.TempDir(), "itc.prom")

	_, _, err := execute(t, "calc", "-p", paramsPath, "--calib-dir", calibDir, "--metrics-file", metricsPath)
	require.Error(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `itc_calculations_total{result="config_error"} 1`)
	assert.NotContains(t, string(data), `result="ok"`)
}
