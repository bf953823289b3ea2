package monitor

import (
	"log"

	"github.com/itohio/smokealarm/pkg/alarm"
)

// LogRecords returns a record callback that renders each cycle to logger.
func LogRecords(logger *log.Logger) func(Record) {
	return func(r Record) {
		logger.Printf("Reading #%d: raw=%d voltage=%.2fV rs=%.2fkOhm ppm=%.0f status=%s alarm=%v",
			r.Seq, r.Raw, r.Voltage, r.Resistance, r.PPM, r.Level, r.AlarmActive)

		if r.Level.IsSmoke() {
			for _, line := range r.Level.Advice() {
				logger.Printf("  %s", line)
			}
		}

		switch r.Action {
		case alarm.ActionStart:
			logger.Printf("Activating alarm: %s", r.Level)
		case alarm.ActionChange:
			logger.Printf("Smoke level changed: %s", r.Level)
		case alarm.ActionStop:
			logger.Printf("Air cleared, alarm deactivated")
		}
	}
}
