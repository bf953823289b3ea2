package sample

import (
	"fmt"
	"math"

	"github.com/itohio/smokealarm/pkg/config"
)

// Calibration maps raw ADC readings to millivolts using device specific data.
// ok is false when no calibrated value is available for raw.
type Calibration interface {
	Millivolts(raw uint16) (mv int, ok bool)
}

// LineFitting is a piecewise-linear calibration through measured points.
// Readings outside the measured range extrapolate along the outer segments.
type LineFitting struct {
	points []config.CalibrationPoint
}

var _ Calibration = (*LineFitting)(nil)

// NewLineFitting builds a calibration from at least two points with strictly
// ascending raw values.
func NewLineFitting(points []config.CalibrationPoint) (*LineFitting, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("calibration needs at least 2 points, got %d", len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i].Raw <= points[i-1].Raw {
			return nil, fmt.Errorf("calibration points must have ascending raw values (point %d: %d after %d)",
				i, points[i].Raw, points[i-1].Raw)
		}
	}

	pts := make([]config.CalibrationPoint, len(points))
	copy(pts, points)
	return &LineFitting{points: pts}, nil
}

// Millivolts returns the calibrated voltage for raw, never negative.
func (l *LineFitting) Millivolts(raw uint16) (int, bool) {
	// Pick the segment containing raw, or the outer one when outside.
	i := 1
	for i < len(l.points)-1 && raw > l.points[i].Raw {
		i++
	}
	p0, p1 := l.points[i-1], l.points[i]

	slope := float64(p1.Millivolts-p0.Millivolts) / float64(p1.Raw-p0.Raw)
	mv := float64(p0.Millivolts) + slope*(float64(raw)-float64(p0.Raw))
	if mv < 0 {
		mv = 0
	}

	return int(math.Round(mv)), true
}
