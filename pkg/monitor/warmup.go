package monitor

import (
	"context"
	"time"
)

// WarmUp waits d for the sensor heater to stabilize. tick is called once per
// second with the whole seconds remaining, starting with the full duration.
// It returns ctx.Err() if cancelled.
func WarmUp(ctx context.Context, d time.Duration, tick func(remaining int)) error {
	return warmUp(ctx, d, time.Second, tick)
}

func warmUp(ctx context.Context, d, step time.Duration, tick func(remaining int)) error {
	if d <= 0 {
		return nil
	}

	ticker := time.NewTicker(step)
	defer ticker.Stop()

	for remaining := d; remaining > 0; remaining -= step {
		if err := ctx.Err(); err != nil {
			return err
		}
		if tick != nil {
			tick(int((remaining + step - 1) / step))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
