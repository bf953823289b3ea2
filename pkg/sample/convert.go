package sample

import (
	"math"

	"github.com/itohio/smokealarm/pkg/config"
)

const (
	// minMillivolts replaces a zero voltage before it is used as a divisor.
	minMillivolts = 1.0
	// minResistance replaces a non-positive sensor resistance (kOhm) so the
	// power law never sees a non-positive base.
	minResistance = 0.1
)

// Reading is a raw sample converted to physical values.
type Reading struct {
	Raw        uint16
	Voltage    float64 // V
	Resistance float64 // Sensor resistance Rs, kOhm
	Ratio      float64 // Rs/Ro
	PPM        float64 // Smoke concentration estimate
}

// Converter turns raw ADC samples into voltage and smoke concentration.
type Converter struct {
	supplyMV  float64
	fullScale float64
	rl        float64
	ro        float64
	a         float64
	b         float64
	cal       Calibration
}

// NewConverter creates a converter from the ADC and sensor configuration.
// cal may be nil, in which case the linear ADC transfer function is used.
func NewConverter(cfg *config.Config, cal Calibration) *Converter {
	return &Converter{
		supplyMV:  cfg.ADC.SupplyMillivolts,
		fullScale: float64(cfg.ADC.FullScale),
		rl:        cfg.Sensor.LoadResistance,
		ro:        cfg.Sensor.CleanAirResistance,
		a:         cfg.Sensor.CurveA,
		b:         cfg.Sensor.CurveB,
		cal:       cal,
	}
}

// Calibrated reports whether a calibration mapping is in use.
func (c *Converter) Calibrated() bool {
	return c.cal != nil
}

// Millivolts converts a raw sample to millivolts.
func (c *Converter) Millivolts(raw uint16) float64 {
	if c.cal != nil {
		if mv, ok := c.cal.Millivolts(raw); ok {
			return float64(mv)
		}
	}
	return float64(raw) * c.supplyMV / c.fullScale
}

// Voltage converts a raw sample to volts.
func (c *Converter) Voltage(raw uint16) float64 {
	return c.Millivolts(raw) / 1000
}

// Resistance computes the sensor resistance in kOhm from the voltage across
// the load resistor.
func (c *Converter) Resistance(mv float64) float64 {
	if mv <= 0 {
		mv = minMillivolts
	}

	rs := c.supplyMV*c.rl/mv - c.rl
	if rs <= 0 {
		rs = minResistance
	}

	return rs
}

// Concentration converts a raw sample to a ppm estimate.
func (c *Converter) Concentration(raw uint16) float64 {
	return c.Convert(raw).PPM
}

// Convert computes every derived value of a raw sample.
func (c *Converter) Convert(raw uint16) Reading {
	mv := c.Millivolts(raw)
	rs := c.Resistance(mv)
	ratio := rs / c.ro

	return Reading{
		Raw:        raw,
		Voltage:    mv / 1000,
		Resistance: rs,
		Ratio:      ratio,
		PPM:        c.a * math.Pow(ratio, c.b),
	}
}
