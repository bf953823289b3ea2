// Package monitor runs the sense, decide and act cycle of the smoke alarm.
package monitor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/itohio/smokealarm/pkg/alarm"
	"github.com/itohio/smokealarm/pkg/config"
	"github.com/itohio/smokealarm/pkg/sample"
	"github.com/itohio/smokealarm/pkg/smoke"
)

// Board is the peripheral the monitor reads from and drives.
type Board interface {
	sample.Source
	alarm.Output
}

// Record describes one monitoring cycle.
type Record struct {
	Seq         uint64
	Timestamp   time.Time
	Raw         uint16
	Voltage     float64 // V
	Resistance  float64 // kOhm
	PPM         float64
	Level       smoke.Level
	AlarmActive bool
	Action      alarm.Action
}

// Monitor samples the sensor, classifies the reading and drives the alarm,
// one cycle at a time. Cycles never overlap; alarm patterns play inside the
// cycle that triggered them.
type Monitor struct {
	board      Board
	cal        sample.Calibration
	sleep      func(time.Duration)
	now        func() time.Time
	sampler    *sample.Sampler
	converter  *sample.Converter
	classifier *smoke.Classifier
	controller *alarm.Controller
	player     *alarm.Player
	period     time.Duration
	seq        uint64

	// Config handed over by Reload, applied at the start of the next cycle.
	pending   *config.Config
	pendingMu sync.Mutex

	callbacks []func(Record)
	cbMu      sync.RWMutex
}

// New creates a monitor for board. cal may be nil when no ADC calibration is
// available. The configuration must be valid.
func New(cfg *config.Config, board Board, cal sample.Calibration) (*Monitor, error) {
	return newMonitor(cfg, board, cal, time.Sleep)
}

func newMonitor(cfg *config.Config, board Board, cal sample.Calibration, sleep func(time.Duration)) (*Monitor, error) {
	m := &Monitor{
		board:      board,
		cal:        cal,
		sleep:      sleep,
		now:        time.Now,
		controller: alarm.NewController(),
	}
	if err := m.apply(cfg); err != nil {
		return nil, err
	}
	if cal == nil {
		log.Printf("ADC calibration unavailable, using linear conversion")
	}
	return m, nil
}

// apply rebuilds the configurable collaborators. Alarm state is kept.
func (m *Monitor) apply(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	classifier, err := smoke.NewClassifier(cfg.Thresholds)
	if err != nil {
		return err
	}

	m.classifier = classifier
	m.sampler = sample.NewSampler(m.board, cfg.ADC.Oversample)
	m.converter = sample.NewConverter(cfg, m.cal)
	m.player = alarm.NewPlayer(m.board, cfg.Alarm, m.sleep)
	m.period = cfg.Monitor.Period
	return nil
}

// OnRecord registers a callback invoked with every cycle's record, before
// the alarm pattern for that cycle plays.
func (m *Monitor) OnRecord(cb func(Record)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

// State returns the alarm controller state.
func (m *Monitor) State() alarm.State {
	return m.controller.State()
}

// Reload validates cfg and schedules it for the next cycle. It is safe to
// call from any goroutine. The serial and mock sections and the calibration
// are only read at startup.
func (m *Monitor) Reload(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("rejecting config: %w", err)
	}

	m.pendingMu.Lock()
	m.pending = cfg
	m.pendingMu.Unlock()
	return nil
}

func (m *Monitor) applyPending() {
	m.pendingMu.Lock()
	cfg := m.pending
	m.pending = nil
	m.pendingMu.Unlock()

	if cfg == nil {
		return
	}
	if err := m.apply(cfg); err != nil {
		log.Printf("Failed to apply new config: %v", err)
		return
	}
	log.Printf("Config applied: thresholds %v/%v/%v ppm, period %v",
		cfg.Thresholds.Low, cfg.Thresholds.Medium, cfg.Thresholds.High, cfg.Monitor.Period)
}

// Cycle runs one monitoring cycle: sample, convert, classify, decide and play.
// A sampling error is returned; the board is considered lost. Output errors
// during playback are logged and the cycle completes.
func (m *Monitor) Cycle() (Record, error) {
	raw, err := m.sampler.Sample()
	if err != nil {
		return Record{}, fmt.Errorf("sampling failed: %w", err)
	}

	reading := m.converter.Convert(raw)
	level := m.classifier.Classify(reading.PPM)
	action := m.controller.Update(level)

	m.seq++
	rec := Record{
		Seq:         m.seq,
		Timestamp:   m.now(),
		Raw:         reading.Raw,
		Voltage:     reading.Voltage,
		Resistance:  reading.Resistance,
		PPM:         reading.PPM,
		Level:       level,
		AlarmActive: m.controller.State().Active,
		Action:      action,
	}
	m.notify(rec)

	if err := m.player.Perform(action, level); err != nil {
		log.Printf("Alarm playback failed: %v", err)
	}

	return rec, nil
}

// Run executes cycles until ctx is done or sampling fails. Cancellation is
// observed between cycles only; a playing pattern always completes.
func (m *Monitor) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
		if ctx.Err() != nil {
			return nil
		}

		m.applyPending()
		if _, err := m.Cycle(); err != nil {
			return err
		}
		timer.Reset(m.period)
	}
}

func (m *Monitor) notify(rec Record) {
	m.cbMu.RLock()
	defer m.cbMu.RUnlock()
	for _, cb := range m.callbacks {
		cb(rec)
	}
}
