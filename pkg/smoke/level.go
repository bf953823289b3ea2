// Package smoke classifies smoke concentration into severity levels.
package smoke

// Level is a smoke severity. Levels are ordered: a higher value is more
// severe.
type Level int

const (
	Clear Level = iota
	Detected
	Warning
	FireAlert

	// NumLevels is the number of defined levels.
	NumLevels = int(FireAlert) + 1
)

var levelNames = [NumLevels]string{
	Clear:     "CLEAR",
	Detected:  "SMOKE DETECTED",
	Warning:   "HEAVY SMOKE",
	FireAlert: "FIRE ALERT",
}

var levelAdvice = [NumLevels][]string{
	Clear:     {"Environment is safe"},
	Detected:  {"Smoke detected", "Check for fire sources"},
	Warning:   {"Heavy smoke warning", "Evacuate immediately if fire is present"},
	FireAlert: {"Fire alert", "Evacuate now", "Call emergency services"},
}

// Valid reports whether l is one of the defined levels.
func (l Level) Valid() bool {
	return l >= Clear && l <= FireAlert
}

// IsSmoke reports whether the level indicates smoke.
func (l Level) IsSmoke() bool {
	return l != Clear
}

// String returns the status text of the level.
func (l Level) String() string {
	if !l.Valid() {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// Advice returns operator guidance for the level.
func (l Level) Advice() []string {
	if !l.Valid() {
		return nil
	}
	return levelAdvice[l]
}
