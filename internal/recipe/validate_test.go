// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/spectro-itc/internal/aperture"
	"github.com/pdiddy/spectro-itc/internal/catalog"
	"github.com/pdiddy/spectro-itc/internal/itcerr"
	"github.com/pdiddy/spectro-itc/pkg/types"
)

func TestValidateSlitWidth(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.ITCParameters)
		width  float64
	}{
		{name: "longslit", mutate: func(*types.ITCParameters) {}, width: 0.75},
		{name: "custom mask", mutate: func(p *types.ITCParameters) {
			p.Instrument.Mask = "CUSTOM_MASK"
			p.Instrument.CustomSlitWidth = "CUSTOM_WIDTH_1_00"
		}, width: 1},
		{name: "ifu", mutate: func(p *types.ITCParameters) {
			p.Instrument.Mask = "IFU_1"
			p.Observation.Analysis.IFU = &types.IFUMethod{Kind: types.IFUSingle}
		}, width: aperture.IFUSlitWidth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseParams()
			tt.mutate(&p)
			in, err := Validate(p, catalog.Default())
			require.NoError(t, err)
			assert.Equal(t, tt.width, in.SlitWidth)
		})
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*types.ITCParameters)
		contains string
		internal bool
	}{
		{
			name:     "spectroscopy without grating",
			mutate:   func(p *types.ITCParameters) { p.Instrument.Grating = "MIRROR" },
			contains: "a grating is not",
		},
		{
			name:     "spectroscopy without mask",
			mutate:   func(p *types.ITCParameters) { p.Instrument.Mask = catalog.MaskNone },
			contains: "focal plane mask is not",
		},
		{
			name:     "custom mask without width",
			mutate:   func(p *types.ITCParameters) { p.Instrument.Mask = "CUSTOM_MASK" },
			contains: "custom slit width is undefined",
		},
		{
			name: "custom mask with unknown width",
			mutate: func(p *types.ITCParameters) {
				p.Instrument.Mask = "CUSTOM_MASK"
				p.Instrument.CustomSlitWidth = catalog.CustomOther
			},
			contains: "is not known",
		},
		{
			name: "ifu with spatial binning",
			mutate: func(p *types.ITCParameters) {
				p.Instrument.Mask = "IFU_1"
				p.Instrument.SpatialBinning = 2
				p.Observation.Analysis.IFU = &types.IFUMethod{Kind: types.IFUSingle}
			},
			contains: "Spatial binning must be 1",
		},
		{
			name:     "GN central wavelength",
			mutate:   func(p *types.ITCParameters) { p.Instrument.CentralWavelength = 350 },
			contains: "between 360 nm and 1000 nm",
		},
		{
			name: "GS central wavelength",
			mutate: func(p *types.ITCParameters) {
				p.Telescope.Site = types.SiteSouth
				p.Instrument.CentralWavelength = 1001
			},
			contains: "between 300 nm and 1000 nm",
		},
		{
			name:     "unknown site",
			mutate:   func(p *types.ITCParameters) { p.Telescope.Site = "CP" },
			contains: "Unknown site",
		},
		{
			name:     "ifu without method",
			mutate:   func(p *types.ITCParameters) { p.Instrument.Mask = "IFU_2" },
			contains: "no IFU analysis method",
		},
		{
			name: "method without ifu",
			mutate: func(p *types.ITCParameters) {
				p.Observation.Analysis.IFU = &types.IFUMethod{Kind: types.IFUSingle}
			},
			contains: "no IFU is selected",
		},
		{
			name: "imaging without filter",
			mutate: func(p *types.ITCParameters) {
				p.Observation.Mode = types.ModeImaging
				p.Instrument.Grating, p.Instrument.Mask = "", ""
			},
			contains: "a filter is not",
		},
		{
			name: "imaging with grating",
			mutate: func(p *types.ITCParameters) {
				p.Observation.Mode = types.ModeImaging
				p.Instrument.Filter = "g_G0301"
				p.Instrument.Mask = ""
			},
			contains: "grating is also selected",
		},
		{
			name: "imaging with mask",
			mutate: func(p *types.ITCParameters) {
				p.Observation.Mode = types.ModeImaging
				p.Instrument.Filter = "g_G0301"
				p.Instrument.Grating = ""
			},
			contains: "Focal Plane Mask is also selected",
		},
		{
			name: "imaging with custom width",
			mutate: func(p *types.ITCParameters) {
				p.Observation.Mode = types.ModeImaging
				p.Instrument.Filter = "g_G0301"
				p.Instrument.Grating, p.Instrument.Mask = "", ""
				p.Instrument.CustomSlitWidth = "CUSTOM_WIDTH_1_00"
			},
			contains: "Custom Slit Width",
		},
		{
			name: "valid imaging is not supported",
			mutate: func(p *types.ITCParameters) {
				p.Observation.Mode = types.ModeImaging
				p.Instrument.Filter = "g_G0301"
				p.Instrument.Grating, p.Instrument.Mask = "", ""
			},
			contains: "Imaging calculations are not available",
		},
		{
			name:     "unknown grating",
			mutate:   func(p *types.ITCParameters) { p.Instrument.Grating = "R9000" },
			contains: "Unknown grating",
		},
		{
			name:     "unknown amp",
			mutate:   func(p *types.ITCParameters) { p.Instrument.ReadMode = "MEDIUM" },
			contains: "read mode setting",
		},
		{
			name:     "zero binning",
			mutate:   func(p *types.ITCParameters) { p.Instrument.SpectralBinning = 0 },
			contains: "Binning must be at least 1",
		},
		{
			name:     "no exposures",
			mutate:   func(p *types.ITCParameters) { p.Observation.Exposures = 0 },
			contains: "number of exposures",
		},
		{
			name:     "source fraction above one",
			mutate:   func(p *types.ITCParameters) { p.Observation.SourceFraction = 1.5 },
			contains: "on source",
		},
		{
			name:     "unknown detector",
			mutate:   func(p *types.ITCParameters) { p.Instrument.Detector = "CMOS" },
			internal: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseParams()
			tt.mutate(&p)
			_, err := Validate(p, catalog.Default())
			require.Error(t, err)
			if tt.internal {
				assert.True(t, itcerr.IsInternal(err), "%v", err)
				return
			}
			assert.True(t, itcerr.IsConfig(err), "%v", err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestSaturationLimit(t *testing.T) {
	in, err := Validate(baseParams(), catalog.Default())
	require.NoError(t, err)
	// the converter saturates before the binned well
	assert.InDelta(t, 65535*1.63, in.SaturationLimit(), 1e-6)

	in.Amp.GainPerADU = 5.11
	assert.InDelta(t, 125000*2, in.SaturationLimit(), 1e-6)
	assert.InDelta(t, 0.080778, in.PixelSize(), 1e-12)
}
