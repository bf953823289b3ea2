package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itohio/smokealarm/pkg/alarm"
	"github.com/itohio/smokealarm/pkg/config"
	"github.com/itohio/smokealarm/pkg/device"
	"github.com/itohio/smokealarm/pkg/monitor"
	"github.com/itohio/smokealarm/pkg/sample"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., /dev/ttyUSB0 or COM3)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use simulated sensor board instead of serial port")
		listFlag   = flag.Bool("list", false, "List serial ports and exit")
		periodFlag = flag.Duration("period", 0, "Monitoring period override (e.g., 3s)")
		warmupFlag = flag.Duration("warmup", -1, "Sensor warm-up override (0 disables)")
		watchFlag  = flag.Bool("watch", true, "Reload configuration when the file changes")
	)
	flag.Parse()

	if *listFlag {
		listPorts()
		return
	}

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	overrides := func(c *config.Config) {
		if *portFlag != "" {
			c.Serial.Port = *portFlag
		}
		if *periodFlag > 0 {
			c.Monitor.Period = *periodFlag
		}
		if *warmupFlag >= 0 {
			c.Monitor.Warmup = *warmupFlag
		}
	}
	overrides(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Refusing to start: %v", err)
	}

	// Peripherals
	var dev device.Device
	if *mockFlag {
		dev = device.NewMock(&cfg.Mock, cfg.ADC.FullScale)
	} else {
		dev = device.NewSerial(cfg.Serial.Port, cfg.Serial.BaudRate, cfg.Serial.ReadTimeout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, dev, *configFlag, *watchFlag, overrides)
	stop()
	if err != nil {
		log.Fatalf("%v", err)
	}
}

// run owns the device from connect to close. Every exit path after connecting
// returns through it so the buzzer is silenced and the port released.
func run(ctx context.Context, cfg *config.Config, dev device.Device, configFile string, watch bool, overrides func(*config.Config)) error {
	if err := device.ConnectWithRetry(ctx, dev, cfg.Monitor.ConnectAttempts); err != nil {
		return fmt.Errorf("failed to initialize sensor board: %w", err)
	}
	defer func() {
		if err := dev.SetOutput(false); err != nil {
			log.Printf("Failed to silence buzzer: %v", err)
		}
		if err := dev.Close(); err != nil {
			log.Printf("Failed to close device: %v", err)
		}
	}()
	if err := dev.SetOutput(false); err != nil {
		return fmt.Errorf("failed to initialize buzzer: %w", err)
	}

	var cal sample.Calibration
	if lf, err := sample.NewLineFitting(cfg.Calibration.Points); err == nil {
		log.Printf("ADC calibration: line fitting over %d points", len(cfg.Calibration.Points))
		cal = lf
	} else if len(cfg.Calibration.Points) > 0 {
		log.Printf("Ignoring ADC calibration: %v", err)
	}

	mon, err := monitor.New(cfg, dev, cal)
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}
	mon.OnRecord(monitor.LogRecords(log.Default()))

	cues := alarm.NewPlayer(dev, cfg.Alarm, nil)

	log.Printf("Smoke alarm initializing...")
	playCue(cues, cfg.Alarm.Startup)

	if err := warmUp(ctx, cfg.Monitor.Warmup); err != nil {
		log.Printf("Warm-up interrupted: %v", err)
		return nil
	}

	log.Printf("System ready, fire detection active")
	playCue(cues, cfg.Alarm.Ready)

	if watch {
		err := config.Watch(ctx, configFile, func(c *config.Config) {
			overrides(c)
			if err := mon.Reload(c); err != nil {
				log.Printf("Config change ignored: %v", err)
			}
		})
		if err != nil {
			log.Printf("Config watching disabled: %v", err)
		}
	}

	log.Printf("Monitoring started, period %v", cfg.Monitor.Period)
	if err := mon.Run(ctx); err != nil {
		return fmt.Errorf("monitoring stopped: %w", err)
	}
	log.Printf("Monitoring stopped")
	return nil
}

func listPorts() {
	ports, err := device.Ports()
	if err != nil {
		log.Fatalf("Failed to list ports: %v", err)
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found")
		return
	}
	for _, p := range ports {
		fmt.Println(p.Name)
	}
}

func playCue(p *alarm.Player, pulses []config.PulseConfig) {
	if err := p.PlayPattern(alarm.NewPattern(pulses)); err != nil {
		log.Printf("Failed to play cue: %v", err)
	}
}

// warmUp logs the countdown every 10 seconds and for the last 5.
func warmUp(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	log.Printf("Warming up smoke sensor for %v", d)
	return monitor.WarmUp(ctx, d, func(remaining int) {
		if remaining%10 == 0 || remaining <= 5 {
			log.Printf("  Countdown: %d seconds...", remaining)
		}
	})
}
