package sample

import (
	"testing"

	"github.com/itohio/smokealarm/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLineFitting_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		points []config.CalibrationPoint
	}{
		{name: "no points"},
		{name: "single point", points: []config.CalibrationPoint{{Raw: 10, Millivolts: 10}}},
		{name: "duplicate raw", points: []config.CalibrationPoint{{Raw: 10, Millivolts: 10}, {Raw: 10, Millivolts: 20}}},
		{name: "descending raw", points: []config.CalibrationPoint{{Raw: 20, Millivolts: 10}, {Raw: 10, Millivolts: 20}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cal, err := NewLineFitting(tt.points)
			assert.Error(t, err)
			assert.Nil(t, cal)
		})
	}
}

func TestLineFitting_Millivolts(t *testing.T) {
	cal, err := NewLineFitting([]config.CalibrationPoint{
		{Raw: 0, Millivolts: 100},
		{Raw: 1000, Millivolts: 900},
		{Raw: 3000, Millivolts: 2500},
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  uint16
		want int
	}{
		{name: "first point", raw: 0, want: 100},
		{name: "first segment", raw: 500, want: 500},
		{name: "middle point", raw: 1000, want: 900},
		{name: "second segment", raw: 2000, want: 1700},
		{name: "last point", raw: 3000, want: 2500},
		{name: "extrapolated above", raw: 4000, want: 3300},
		{name: "rounded", raw: 1, want: 101},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mv, ok := cal.Millivolts(tt.raw)
			assert.True(t, ok)
			assert.Equal(t, tt.want, mv)
		})
	}
}

func TestLineFitting_ClampsNegative(t *testing.T) {
	cal, err := NewLineFitting([]config.CalibrationPoint{
		{Raw: 1000, Millivolts: 100},
		{Raw: 2000, Millivolts: 1100},
	})
	require.NoError(t, err)

	mv, ok := cal.Millivolts(0)
	assert.True(t, ok)
	assert.Equal(t, 0, mv)
}

func TestLineFitting_CopiesPoints(t *testing.T) {
	points := []config.CalibrationPoint{{Raw: 0, Millivolts: 0}, {Raw: 100, Millivolts: 100}}
	cal, err := NewLineFitting(points)
	require.NoError(t, err)

	points[1].Millivolts = 1000
	mv, _ := cal.Millivolts(100)
	assert.Equal(t, 100, mv)
}
