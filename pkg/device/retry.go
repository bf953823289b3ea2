package device

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	retryInitialInterval = 100 * time.Millisecond
	retryMaxElapsed      = 30 * time.Second
)

// ConnectWithRetry connects the device, retrying with exponential backoff up
// to attempts times in total. attempts <= 0 retries until the backoff gives up
// or ctx is done.
func ConnectWithRetry(ctx context.Context, dev Device, attempts int) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = retryInitialInterval
	bo.MaxElapsedTime = retryMaxElapsed

	var b backoff.BackOff = bo
	if attempts > 0 {
		b = backoff.WithMaxRetries(bo, uint64(attempts-1))
	}

	try := 0
	err := backoff.Retry(func() error {
		try++
		if err := dev.Connect(); err != nil {
			log.Printf("Failed to connect to sensor board (attempt %d): %v", try, err)
			return err
		}
		return nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return fmt.Errorf("could not connect to sensor board after %d attempts: %w", try, err)
	}

	return nil
}
