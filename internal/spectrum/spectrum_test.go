// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package spectrum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	s, err := New(400, 0.5, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.InDelta(t, 401.0, s.End(), 1e-12)

	_, err = New(400, 0.5, nil)
	assert.Error(t, err)
	_, err = New(400, 0, []float64{1})
	assert.Error(t, err)
}

func TestLengthInvariant(t *testing.T) {
	tests := []struct {
		start, end, sampling float64
		want                 int
	}{
		{400, 500, 1, 101},
		{400, 500, 0.1, 1001},
		{0, 6143, 1, 6144},
		{400, 400, 1, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Length(tt.start, tt.end, tt.sampling))
	}
}

func TestY(t *testing.T) {
	s := &Sampled{Start: 10, Sampling: 2, Values: []float64{0, 4, 8}}
	assert.InDelta(t, 0.0, s.Y(10), 1e-12)
	assert.InDelta(t, 2.0, s.Y(11), 1e-12)
	assert.InDelta(t, 8.0, s.Y(14), 1e-12)
	assert.Equal(t, 0.0, s.Y(9))
	assert.Equal(t, 0.0, s.Y(15))
}

func TestCloneDoesNotAlias(t *testing.T) {
	orig := &Sampled{Start: 500, Sampling: 1, Values: []float64{1, 2, 3, 4}}
	clone := orig.Clone()
	clone.Values[0] = 99

	scaled := Apply(clone, Scale(10))
	scaled.Values[1] = -1

	assert.Equal(t, []float64{1, 2, 3, 4}, orig.Values)
	assert.Equal(t, []float64{99, 2, 3, 4}, clone.Values)
	assert.Equal(t, []float64{990, -1, 30, 40}, scaled.Values)
}

func TestApplyWithoutTransformsCopies(t *testing.T) {
	orig := Constant(0, 1, 3, 5)
	out := Apply(orig)
	out.Values[0] = 0
	assert.Equal(t, 5.0, orig.Values[0])
}

func TestData(t *testing.T) {
	s := &Sampled{Start: 100, Sampling: 0.5, Values: []float64{1, 2, 3, 4, 5}}

	d := s.Data(1, 3)
	assert.Equal(t, []float64{100.5, 101, 101.5}, d.X)
	assert.Equal(t, []float64{2, 3, 4}, d.Y)

	d.Y[0] = 42
	assert.Equal(t, 2.0, s.Values[1], "Data must copy")

	clamped := s.Data(-3, 99)
	assert.Equal(t, 5, clamped.Len())

	empty := s.Data(3, 1)
	assert.Equal(t, 0, empty.Len())
}

func TestMax(t *testing.T) {
	peak := &Sampled{Start: 0, Sampling: 1, Values: []float64{1, 7, 3}}
	v, i := peak.Max()
	assert.Equal(t, 7.0, v)
	assert.Equal(t, 1, i)

	_, i = (&Sampled{Start: 0, Sampling: 1}).Max()
	assert.Equal(t, -1, i)
}

func TestSameGrid(t *testing.T) {
	a := Constant(400, 1, 10, 0)
	b := Constant(400, 1, 10, 1)
	c := Constant(401, 1, 10, 1)
	assert.True(t, a.SameGrid(b))
	assert.False(t, a.SameGrid(c))
}
