package device

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/itohio/smokealarm/pkg/config"
)

// Mock simulates a sensor board for testing and development.
// The simulated air is clean most of the time; once per EventPeriod a smoke
// event ramps the reading up to PeakRaw and back over EventDuration.
type Mock struct {
	cfg       config.MockConfig
	fullScale uint16
	now       func() time.Time

	mu        sync.Mutex
	connected bool
	startTime time.Time
	output    bool
	toggles   int
}

// NewMock creates a new mocked device instance.
func NewMock(cfg *config.MockConfig, fullScale uint16) *Mock {
	if cfg == nil {
		cfg = &config.Default().Mock
	}
	if fullScale == 0 {
		fullScale = 4095
	}

	return &Mock{
		cfg:       *cfg,
		fullScale: fullScale,
		now:       time.Now,
	}
}

// Connect simulates connecting to the device.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.connected = true
	m.startTime = m.now()
	m.output = false

	return nil
}

// Close stops the mocked device.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connected = false
	m.output = false

	return nil
}

// ReadRaw returns the simulated reading for the current time.
func (m *Mock) ReadRaw() (uint16, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return 0, ErrNotConnected
	}

	return m.reading(m.now().Sub(m.startTime)), nil
}

// SetOutput records the simulated buzzer state.
func (m *Mock) SetOutput(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return ErrNotConnected
	}

	if m.output != on {
		m.toggles++
	}
	m.output = on

	return nil
}

// Output returns the simulated buzzer state.
func (m *Mock) Output() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.output
}

// Toggles returns how many times the output changed state.
func (m *Mock) Toggles() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.toggles
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// reading computes the simulated raw value at the given time since connect.
func (m *Mock) reading(elapsed time.Duration) uint16 {
	base := float64(m.cfg.BaselineRaw)
	peak := float64(m.cfg.PeakRaw)

	value := base + (peak-base)*m.envelope(elapsed)

	// Deterministic noise so runs are reproducible
	t := float64(elapsed.Nanoseconds())
	value += (math.Sin(t*0.001) + math.Cos(t*0.0013)) * m.cfg.Noise * 0.5

	if value < 0 {
		value = 0
	} else if value > float64(m.fullScale) {
		value = float64(m.fullScale)
	}

	return uint16(value)
}

// envelope returns the smoke event shape in [0, 1]: zero in clean air and a
// triangle rising to 1 halfway through the event.
func (m *Mock) envelope(elapsed time.Duration) float64 {
	period := m.cfg.EventPeriod
	duration := m.cfg.EventDuration
	if period <= 0 || duration <= 0 {
		return 0
	}
	if duration > period {
		duration = period
	}

	phase := elapsed % period
	start := period - duration
	if phase < start {
		return 0
	}

	x := float64(phase-start) / float64(duration)
	return 1 - math.Abs(2*x-1)
}
