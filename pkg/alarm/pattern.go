package alarm

import (
	"time"

	"github.com/itohio/smokealarm/pkg/config"
	"github.com/itohio/smokealarm/pkg/smoke"
)

// Pulse is one buzzer beep followed by a pause.
type Pulse struct {
	On  time.Duration
	Off time.Duration
}

// Pattern is a sequence of pulses.
type Pattern []Pulse

// Duration returns the total time the pattern occupies.
func (p Pattern) Duration() time.Duration {
	var d time.Duration
	for _, pulse := range p {
		d += pulse.On + pulse.Off
	}
	return d
}

// Patterns holds one pattern per smoke level, indexed by level.
type Patterns [smoke.NumLevels]Pattern

// For returns the pattern of level, or nil for an unknown level.
func (p *Patterns) For(level smoke.Level) Pattern {
	if !level.Valid() {
		return nil
	}
	return p[level]
}

// NewPattern converts configured pulses.
func NewPattern(pulses []config.PulseConfig) Pattern {
	p := make(Pattern, len(pulses))
	for i, pulse := range pulses {
		p[i] = Pulse{On: pulse.On, Off: pulse.Off}
	}
	return p
}

// NewPatterns builds the level pattern table from configuration.
func NewPatterns(cfg config.PatternsConfig) Patterns {
	return Patterns{
		smoke.Clear:     NewPattern(cfg.Clear),
		smoke.Detected:  NewPattern(cfg.Detected),
		smoke.Warning:   NewPattern(cfg.Warning),
		smoke.FireAlert: NewPattern(cfg.FireAlert),
	}
}
