package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the configuration file whenever it changes and calls onChange
// with every config that loads and validates. Broken edits are logged and
// skipped. The directory is watched rather than the file so that editors
// which replace the file on save are still seen.
//
// Events are coalesced until the file has been quiet for settleDelay, and an
// empty file is skipped, so a save that truncates before writing is never
// loaded as defaults.
//
// Watch returns once the watcher is installed; it stops when ctx is done.
const settleDelay = 100 * time.Millisecond

func Watch(ctx context.Context, filename string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed creating config watcher: %w", err)
	}

	target := filepath.Clean(filename)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed watching %s: %w", filepath.Dir(target), err)
	}

	go func() {
		defer watcher.Close()

		settle := time.NewTimer(settleDelay)
		settle.Stop()
		defer settle.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				settle.Reset(settleDelay)
			case <-settle.C:
				if cfg := reload(target); cfg != nil {
					onChange(cfg)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("Config watcher error: %v", err)
			}
		}
	}()

	return nil
}

// reload loads and validates filename, or returns nil when it must be skipped.
func reload(filename string) *Config {
	info, err := os.Stat(filename)
	if err != nil {
		log.Printf("Config reload failed: %v", err)
		return nil
	}
	if info.Size() == 0 {
		return nil
	}

	cfg, err := Load(filename)
	if err != nil {
		log.Printf("Config reload failed: %v", err)
		return nil
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("Config reload rejected: %v", err)
		return nil
	}
	return cfg
}
