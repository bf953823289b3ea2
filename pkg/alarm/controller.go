// Package alarm decides when the buzzer sounds and plays its patterns.
package alarm

import "github.com/itohio/smokealarm/pkg/smoke"

// Action is what the controller asks for after a level update.
type Action int

const (
	ActionNone   Action = iota
	ActionStart         // Smoke appeared: play the level's pattern
	ActionChange        // Level changed while sounding: play the new pattern
	ActionRepeat        // Level held at Warning or above: play again
	ActionStop          // Smoke cleared: play the all-clear cue
)

var actionNames = [...]string{
	ActionNone:   "none",
	ActionStart:  "start",
	ActionChange: "change",
	ActionRepeat: "repeat",
	ActionStop:   "stop",
}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return "unknown"
	}
	return actionNames[a]
}

// Plays reports whether the action drives the buzzer.
func (a Action) Plays() bool {
	return a != ActionNone
}

// State is the controller's memory between cycles.
type State struct {
	Previous smoke.Level
	Active   bool
}

// Controller is the alarm state machine. It starts in {Clear, inactive}.
// Not safe for concurrent use.
type Controller struct {
	state State
}

// NewController returns a controller in its initial state.
func NewController() *Controller {
	return &Controller{}
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Update feeds the freshly classified level and returns the action to take.
// The previous level is replaced by current on every call.
func (c *Controller) Update(current smoke.Level) Action {
	action := c.next(current)

	switch action {
	case ActionStart, ActionChange:
		c.state.Active = true
	case ActionStop:
		c.state.Active = false
	}
	c.state.Previous = current

	return action
}

func (c *Controller) next(current smoke.Level) Action {
	smokePresent := current.IsSmoke()

	if current != c.state.Previous {
		switch {
		case smokePresent && !c.state.Active:
			return ActionStart
		case !smokePresent && c.state.Active:
			return ActionStop
		case smokePresent && c.state.Active:
			return ActionChange
		}
		return ActionNone
	}

	if c.state.Active && current >= smoke.Warning {
		return ActionRepeat
	}
	return ActionNone
}
