package alarm

import (
	"fmt"
	"log"
	"time"

	"github.com/itohio/smokealarm/pkg/config"
	"github.com/itohio/smokealarm/pkg/smoke"
)

// Output drives the buzzer.
type Output interface {
	SetOutput(on bool) error
}

// Player plays buzzer patterns. Play calls block for the whole pattern and
// cannot be interrupted.
type Player struct {
	out      Output
	patterns Patterns
	allClear Pattern
	sleep    func(time.Duration)
}

// NewPlayer creates a player for the configured patterns. sleep performs the
// timed waits; nil means time.Sleep.
func NewPlayer(out Output, cfg config.AlarmConfig, sleep func(time.Duration)) *Player {
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Player{
		out:      out,
		patterns: NewPatterns(cfg.Patterns),
		allClear: NewPattern(cfg.AllClear),
		sleep:    sleep,
	}
}

// Play plays the pattern of level.
func (p *Player) Play(level smoke.Level) error {
	pattern := p.patterns.For(level)
	if pattern == nil {
		return fmt.Errorf("no alarm pattern for level %d", int(level))
	}
	return p.PlayPattern(pattern)
}

// PlayAllClear plays the cue that confirms the alarm was silenced.
func (p *Player) PlayAllClear() error {
	return p.PlayPattern(p.allClear)
}

// PlayPattern plays an arbitrary pattern.
func (p *Player) PlayPattern(pattern Pattern) error {
	for i, pulse := range pattern {
		if err := p.out.SetOutput(true); err != nil {
			return fmt.Errorf("pulse %d: failed to switch output on: %w", i, err)
		}
		p.sleep(pulse.On)
		if err := p.out.SetOutput(false); err != nil {
			// The output must not be left on.
			log.Printf("Failed to switch output off, retrying: %v", err)
			if err := p.out.SetOutput(false); err != nil {
				return fmt.Errorf("pulse %d: failed to switch output off: %w", i, err)
			}
		}
		if pulse.Off > 0 {
			p.sleep(pulse.Off)
		}
	}
	return nil
}

// Perform carries out a controller action for level.
func (p *Player) Perform(action Action, level smoke.Level) error {
	switch action {
	case ActionStart, ActionChange, ActionRepeat:
		return p.Play(level)
	case ActionStop:
		return p.PlayAllClear()
	}
	return nil
}
