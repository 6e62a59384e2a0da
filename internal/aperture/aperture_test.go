// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aperture

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/spectro-itc/internal/itcerr"
	"github.com/pdiddy/spectro-itc/pkg/types"
)

func TestSlitThroughput(t *testing.T) {
	tests := []struct {
		name     string
		morph    Morphology
		slit     Slit
		fraction float64
		onePixel float64
	}{
		{
			name:     "uniform is area",
			morph:    Morphology{Uniform: true},
			slit:     Slit{Width: 1, Length: 2, PixelSize: 0.08},
			fraction: 2,
			onePixel: 0.08,
		},
		{
			name:     "huge aperture collects everything",
			morph:    Morphology{FWHM: 0.7},
			slit:     Slit{Width: 100, Length: 100, PixelSize: 100},
			fraction: 1,
			onePixel: 1,
		},
		{
			// erf(sqrt(ln 2)) for a slit one FWHM wide and very long
			name:     "slit one FWHM wide",
			morph:    Morphology{FWHM: 1},
			slit:     Slit{Width: 1, Length: 1000, PixelSize: 1000},
			fraction: math.Erf(math.Sqrt(math.Ln2)),
			onePixel: math.Erf(math.Sqrt(math.Ln2)),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SlitThroughput(tt.morph, tt.slit)
			require.NoError(t, err)
			assert.InDelta(t, tt.fraction, got.Fraction, 1e-9)
			assert.InDelta(t, tt.onePixel, got.OnePixel, 1e-9)
		})
	}
}

func TestSlitThroughputRejectsBadGeometry(t *testing.T) {
	for _, s := range []Slit{
		{Width: 0, Length: 1, PixelSize: 0.1},
		{Width: 1, Length: -1, PixelSize: 0.1},
		{Width: 1, Length: 1, PixelSize: 0},
	} {
		_, err := SlitThroughput(Morphology{FWHM: 1}, s)
		assert.True(t, itcerr.IsConfig(err), "%+v", s)
	}

	_, err := SlitThroughput(Morphology{}, Slit{Width: 1, Length: 1, PixelSize: 0.1})
	assert.True(t, itcerr.IsConfig(err))
}

func TestLengthPixels(t *testing.T) {
	assert.InDelta(t, 12.5, Slit{Length: 1, PixelSize: 0.08}.LengthPixels(), 1e-12)
	assert.Equal(t, 1.0, Slit{Length: 0.01, PixelSize: 0.08}.LengthPixels())
}

func TestAutoLength(t *testing.T) {
	assert.InDelta(t, 1.4, AutoLength(Morphology{FWHM: 1}), 1e-12)
	assert.Equal(t, 1.0, AutoLength(Morphology{Uniform: true, FWHM: 5}))
}

func TestImageQuality(t *testing.T) {
	assert.InDelta(t, 0.8, ImageQuality(0.8, 1, 500, 0), 1e-12)
	assert.InDelta(t, 1.0, ImageQuality(0.8, 1, 500, 0.6), 1e-12)
	assert.InDelta(t, 0.8*math.Pow(2, 0.6), ImageQuality(0.8, 2, 500, 0), 1e-12)
	assert.Less(t, ImageQuality(0.8, 1, 900, 0), 0.8)
	// airmass below 1 is read as zenith
	assert.InDelta(t, 0.8, ImageQuality(0.8, 0, 500, 0), 1e-12)
}

func TestIFUSingle(t *testing.T) {
	morph := Morphology{FWHM: 0.6}
	centre, err := IFU(morph, types.IFUMethod{Kind: types.IFUSingle})
	require.NoError(t, err)
	require.Len(t, centre.Elements, 1)

	edge, err := IFU(morph, types.IFUMethod{Kind: types.IFUSingle, Offset: 0.5})
	require.NoError(t, err)
	assert.Less(t, edge.Elements[0].Fraction, centre.Elements[0].Fraction)
	assert.InDelta(t, 0.5, edge.Offsets()[0], 1e-12)
	assert.False(t, edge.Summed())

	tp := edge.Element(0)
	assert.Equal(t, tp.Fraction, tp.OnePixel)
}

func TestIFURadial(t *testing.T) {
	r, err := IFU(Morphology{FWHM: 0.6}, types.IFUMethod{Kind: types.IFURadial, MinOffset: 0, MaxOffset: 0.4})
	require.NoError(t, err)
	require.Len(t, r.Elements, 3)
	assert.InDeltaSlice(t, []float64{0, 0.2, 0.4}, r.Offsets(), 1e-12)

	f := r.Fractions()
	assert.Greater(t, f[0], f[1])
	assert.Greater(t, f[1], f[2])

	_, err = IFU(Morphology{FWHM: 0.6}, types.IFUMethod{Kind: types.IFURadial, MinOffset: 1, MaxOffset: 0.5})
	assert.True(t, itcerr.IsConfig(err))
}

func TestIFUSum(t *testing.T) {
	r, err := IFU(Morphology{FWHM: 0.6}, types.IFUMethod{Kind: types.IFUSum, Radius: 0.2})
	require.NoError(t, err)
	require.Len(t, r.Elements, 5)
	assert.True(t, r.Summed())

	centre := r.Elements[2]
	assert.Equal(t, 0.0, centre.X)
	assert.Equal(t, 0.0, centre.Y)

	sum := r.Sum()
	assert.Equal(t, centre.Fraction, sum.OnePixel)
	total := 0.0
	for _, f := range r.Fractions() {
		total += f
	}
	assert.InDelta(t, total, sum.Fraction, 1e-12)
	assert.LessOrEqual(t, sum.Fraction, 1.0)

	only, err := IFU(Morphology{FWHM: 0.6}, types.IFUMethod{Kind: types.IFUSum, Radius: 0})
	require.NoError(t, err)
	assert.Len(t, only.Elements, 1)
}

func TestIFUUniformIsPositionIndependent(t *testing.T) {
	r, err := IFU(Morphology{Uniform: true}, types.IFUMethod{Kind: types.IFURadial, MinOffset: 0, MaxOffset: 1})
	require.NoError(t, err)
	for _, f := range r.Fractions() {
		assert.InDelta(t, ElementSize*ElementSize, f, 1e-12)
	}
}

func TestIFUUnknownMethod(t *testing.T) {
	_, err := IFU(Morphology{FWHM: 0.6}, types.IFUMethod{Kind: "spiral"})
	assert.True(t, itcerr.IsInternal(err))
}
