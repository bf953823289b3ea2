package monitor

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/itohio/smokealarm/pkg/alarm"
	"github.com/itohio/smokealarm/pkg/config"
	"github.com/itohio/smokealarm/pkg/smoke"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Raw readings that land in each level with the default configuration.
const (
	rawClear     = 300 // ~84 ppm
	rawDetected  = 504 // ~806 ppm
	rawWarning   = 578 // ~1500 ppm
	rawFireAlert = 646 // ~2510 ppm
)

// fakeBoard returns a settable reading and counts buzzer pulses.
type fakeBoard struct {
	mu        sync.Mutex
	raw       uint16
	readErr   error
	outputErr error
	reads     int
	pulses    int
	on        bool
}

func (b *fakeBoard) ReadRaw() (uint16, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reads++
	if b.readErr != nil {
		return 0, b.readErr
	}
	return b.raw, nil
}

func (b *fakeBoard) SetOutput(on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.outputErr != nil {
		return b.outputErr
	}
	if on && !b.on {
		b.pulses++
	}
	b.on = on
	return nil
}

func (b *fakeBoard) set(raw uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.raw = raw
}

// takePulses returns the pulses played since the last call.
func (b *fakeBoard) takePulses() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.pulses
	b.pulses = 0
	return n
}

func newTestMonitor(t *testing.T, board *fakeBoard) (*Monitor, *time.Duration) {
	t.Helper()
	var slept time.Duration
	m, err := newMonitor(config.Default(), board, nil, func(d time.Duration) { slept += d })
	require.NoError(t, err)
	return m, &slept
}

func TestNew(t *testing.T) {
	m, err := New(config.Default(), &fakeBoard{}, nil)
	require.NoError(t, err)
	assert.Equal(t, alarm.State{Previous: smoke.Clear, Active: false}, m.State())
	assert.Equal(t, 3*time.Second, m.period)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Thresholds.Medium = cfg.Thresholds.High

	m, err := New(cfg, &fakeBoard{}, nil)
	assert.ErrorIs(t, err, config.ErrInvalid)
	assert.Nil(t, m)
}

func TestCycle_HalfScaleIsFireAlert(t *testing.T) {
	board := &fakeBoard{raw: 2048}
	m, slept := newTestMonitor(t, board)

	rec, err := m.Cycle()
	require.NoError(t, err)

	assert.Equal(t, uint64(1), rec.Seq)
	assert.Equal(t, uint16(2048), rec.Raw)
	assert.InDelta(t, 1.65, rec.Voltage, 0.001)
	assert.InDelta(t, 9.995, rec.Resistance, 0.001)
	assert.Greater(t, rec.PPM, 2500.0)
	assert.Equal(t, smoke.FireAlert, rec.Level)
	assert.Equal(t, alarm.ActionStart, rec.Action)
	assert.True(t, rec.AlarmActive)

	assert.Equal(t, 64, board.reads)
	assert.Equal(t, 8, board.takePulses())
	assert.Equal(t, 2*time.Second, *slept)
}

func TestCycle_EscalationSequence(t *testing.T) {
	board := &fakeBoard{}
	m, _ := newTestMonitor(t, board)

	steps := []struct {
		raw        uint16
		level      smoke.Level
		action     alarm.Action
		active     bool
		wantPulses int
	}{
		{raw: rawClear, level: smoke.Clear, action: alarm.ActionNone, active: false, wantPulses: 0},
		{raw: rawDetected, level: smoke.Detected, action: alarm.ActionStart, active: true, wantPulses: 2},
		{raw: rawWarning, level: smoke.Warning, action: alarm.ActionChange, active: true, wantPulses: 3},
		{raw: rawFireAlert, level: smoke.FireAlert, action: alarm.ActionChange, active: true, wantPulses: 8},
		{raw: rawClear, level: smoke.Clear, action: alarm.ActionStop, active: false, wantPulses: 1},
	}

	for i, step := range steps {
		board.set(step.raw)
		rec, err := m.Cycle()
		require.NoError(t, err)

		assert.Equal(t, step.level, rec.Level, "cycle %d", i)
		assert.Equal(t, step.action, rec.Action, "cycle %d", i)
		assert.Equal(t, step.active, rec.AlarmActive, "cycle %d", i)
		assert.Equal(t, step.wantPulses, board.takePulses(), "cycle %d", i)
	}
}

func TestCycle_AllClearCue(t *testing.T) {
	board := &fakeBoard{raw: rawDetected}
	m, slept := newTestMonitor(t, board)

	_, err := m.Cycle()
	require.NoError(t, err)
	*slept = 0

	board.set(rawClear)
	rec, err := m.Cycle()
	require.NoError(t, err)
	assert.Equal(t, alarm.ActionStop, rec.Action)
	assert.Equal(t, 500*time.Millisecond, *slept)
}

func TestCycle_NagsWhileDangerous(t *testing.T) {
	board := &fakeBoard{raw: rawFireAlert}
	m, _ := newTestMonitor(t, board)

	_, err := m.Cycle()
	require.NoError(t, err)
	board.takePulses()

	for i := 0; i < 5; i++ {
		rec, err := m.Cycle()
		require.NoError(t, err)
		assert.Equal(t, alarm.ActionRepeat, rec.Action, "cycle %d", i)
		assert.True(t, rec.AlarmActive)
		assert.Equal(t, 8, board.takePulses(), "cycle %d", i)
	}
}

func TestCycle_QuietWhileDetected(t *testing.T) {
	board := &fakeBoard{raw: rawDetected}
	m, _ := newTestMonitor(t, board)

	_, err := m.Cycle()
	require.NoError(t, err)
	assert.Equal(t, 2, board.takePulses())

	for i := 0; i < 10; i++ {
		rec, err := m.Cycle()
		require.NoError(t, err)
		assert.Equal(t, alarm.ActionNone, rec.Action)
		assert.Equal(t, 0, board.takePulses())
	}
}

func TestCycle_SamplingError(t *testing.T) {
	board := &fakeBoard{readErr: errors.New("board unplugged")}
	m, _ := newTestMonitor(t, board)

	_, err := m.Cycle()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "board unplugged")
	assert.Equal(t, uint64(0), m.seq)
}

func TestCycle_OutputErrorDoesNotStopCycle(t *testing.T) {
	board := &fakeBoard{raw: rawFireAlert, outputErr: errors.New("uart write failed")}
	m, _ := newTestMonitor(t, board)

	rec, err := m.Cycle()
	require.NoError(t, err)
	assert.Equal(t, smoke.FireAlert, rec.Level)
	assert.True(t, m.State().Active)
}

func TestOnRecord_BeforePlayback(t *testing.T) {
	board := &fakeBoard{raw: rawWarning}
	m, _ := newTestMonitor(t, board)

	var got []Record
	var pulsesAtCallback []int
	m.OnRecord(func(r Record) {
		got = append(got, r)
		board.mu.Lock()
		pulsesAtCallback = append(pulsesAtCallback, board.pulses)
		board.mu.Unlock()
	})

	_, err := m.Cycle()
	require.NoError(t, err)
	_, err = m.Cycle()
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].Seq)
	assert.Equal(t, uint64(2), got[1].Seq)
	assert.Equal(t, alarm.ActionStart, got[0].Action)
	assert.Equal(t, alarm.ActionRepeat, got[1].Action)
	assert.Equal(t, []int{0, 3}, pulsesAtCallback)
}

func TestReload(t *testing.T) {
	board := &fakeBoard{raw: rawFireAlert}
	m, _ := newTestMonitor(t, board)

	rec, err := m.Cycle()
	require.NoError(t, err)
	require.Equal(t, smoke.FireAlert, rec.Level)

	cfg := config.Default()
	cfg.Thresholds = config.ThresholdConfig{Low: 5000, Medium: 6000, High: 7000}
	cfg.Monitor.Period = time.Second
	require.NoError(t, m.Reload(cfg))

	// Not applied until the next cycle boundary
	assert.Equal(t, 3*time.Second, m.period)

	m.applyPending()
	assert.Equal(t, time.Second, m.period)

	rec, err = m.Cycle()
	require.NoError(t, err)
	assert.Equal(t, smoke.Clear, rec.Level)
	assert.Equal(t, alarm.ActionStop, rec.Action, "alarm state survives a reload")
	assert.Equal(t, uint64(2), rec.Seq)
}

func TestReload_CalibrationWarningOnce(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	m, _ := newTestMonitor(t, &fakeBoard{raw: rawClear})
	for i := 0; i < 3; i++ {
		require.NoError(t, m.Reload(config.Default()))
		m.applyPending()
	}

	assert.Equal(t, 1, strings.Count(buf.String(), "ADC calibration unavailable"))
	assert.Equal(t, 3, strings.Count(buf.String(), "Config applied"))
}

func TestReload_Invalid(t *testing.T) {
	m, _ := newTestMonitor(t, &fakeBoard{})

	cfg := config.Default()
	cfg.Thresholds.Low = 3000
	assert.ErrorIs(t, m.Reload(cfg), config.ErrInvalid)
	assert.Nil(t, m.pending)
}

func TestRun_StopsOnCancel(t *testing.T) {
	board := &fakeBoard{raw: rawClear}
	m, _ := newTestMonitor(t, board)
	m.period = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	count := 0
	m.OnRecord(func(r Record) {
		count++
		if count == 3 {
			cancel()
		}
	})

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 3, count)
}

func TestRun_SamplingErrorStops(t *testing.T) {
	board := &fakeBoard{readErr: errors.New("no reply")}
	m, _ := newTestMonitor(t, board)

	err := m.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no reply")
}

func TestRun_AppliesPendingConfig(t *testing.T) {
	board := &fakeBoard{raw: rawFireAlert}
	m, _ := newTestMonitor(t, board)

	cfg := config.Default()
	cfg.Thresholds = config.ThresholdConfig{Low: 5000, Medium: 6000, High: 7000}
	cfg.Monitor.Period = time.Millisecond
	require.NoError(t, m.Reload(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var first Record
	m.OnRecord(func(r Record) {
		first = r
		cancel()
	})

	require.NoError(t, m.Run(ctx))
	assert.Equal(t, smoke.Clear, first.Level)
}
