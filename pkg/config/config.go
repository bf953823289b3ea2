package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the application configuration.
type Config struct {
	Serial      SerialConfig      `yaml:"serial"`
	ADC         ADCConfig         `yaml:"adc"`
	Sensor      SensorConfig      `yaml:"sensor"`
	Thresholds  ThresholdConfig   `yaml:"thresholds"`
	Alarm       AlarmConfig       `yaml:"alarm"`
	Monitor     MonitorConfig     `yaml:"monitor"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Mock        MockConfig        `yaml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port        string        `yaml:"port"`
	BaudRate    int           `yaml:"baud_rate"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

// ADCConfig describes the analog front-end.
type ADCConfig struct {
	SupplyMillivolts float64 `yaml:"supply_mv"`
	FullScale        uint16  `yaml:"full_scale"` // Highest raw value (4095 for 12 bits)
	Oversample       int     `yaml:"oversample"` // Reads averaged into one sample
}

// SensorConfig contains the load resistor and the sensor's power-law curve.
type SensorConfig struct {
	LoadResistance     float64 `yaml:"load_resistance"`      // RL, kOhm
	CleanAirResistance float64 `yaml:"clean_air_resistance"` // Ro, kOhm
	CurveA             float64 `yaml:"curve_a"`
	CurveB             float64 `yaml:"curve_b"`
}

// ThresholdConfig contains the ppm thresholds between smoke levels.
type ThresholdConfig struct {
	Low    float64 `yaml:"low"`
	Medium float64 `yaml:"medium"`
	High   float64 `yaml:"high"`
}

// PulseConfig is one on/off step of a buzzer pattern.
type PulseConfig struct {
	On  time.Duration `yaml:"on"`
	Off time.Duration `yaml:"off"`
}

// PatternsConfig holds the buzzer pattern of every smoke level.
type PatternsConfig struct {
	Clear     []PulseConfig `yaml:"clear"`
	Detected  []PulseConfig `yaml:"detected"`
	Warning   []PulseConfig `yaml:"warning"`
	FireAlert []PulseConfig `yaml:"fire_alert"`
}

// AlarmConfig contains the alarm patterns and the auxiliary cues.
type AlarmConfig struct {
	Patterns PatternsConfig `yaml:"patterns"`
	AllClear []PulseConfig  `yaml:"all_clear"`
	Startup  []PulseConfig  `yaml:"startup"`
	Ready    []PulseConfig  `yaml:"ready"`
}

// MonitorConfig contains the monitoring loop parameters.
type MonitorConfig struct {
	Period          time.Duration `yaml:"period"`
	Warmup          time.Duration `yaml:"warmup"`
	ConnectAttempts int           `yaml:"connect_attempts"`
}

// CalibrationConfig contains ADC calibration points.
// Fewer than two points disables calibration.
type CalibrationConfig struct {
	Points []CalibrationPoint `yaml:"points"`
}

// CalibrationPoint maps a raw reading to measured millivolts.
type CalibrationPoint struct {
	Raw        uint16 `yaml:"raw"`
	Millivolts int    `yaml:"millivolts"`
}

// MockConfig contains simulated board configuration.
type MockConfig struct {
	BaselineRaw   uint16        `yaml:"baseline_raw"`   // Clean air reading
	PeakRaw       uint16        `yaml:"peak_raw"`       // Reading at the top of a smoke event
	Noise         float64       `yaml:"noise"`          // Noise amplitude in raw counts
	EventPeriod   time.Duration `yaml:"event_period"`   // Time between smoke events
	EventDuration time.Duration `yaml:"event_duration"` // Rise and fall time of one event
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:        "/dev/ttyUSB0",
			BaudRate:    115200,
			ReadTimeout: 500 * time.Millisecond,
		},
		ADC: ADCConfig{
			SupplyMillivolts: 3300,
			FullScale:        4095,
			Oversample:       64,
		},
		Sensor: SensorConfig{
			LoadResistance:     10.0,
			CleanAirResistance: 76.63, // Typical MQ135 Ro in clean air
			CurveA:             605.18,
			CurveB:             -3.937,
		},
		Thresholds: ThresholdConfig{
			Low:    800,
			Medium: 1500,
			High:   2500,
		},
		Alarm: AlarmConfig{
			Patterns: PatternsConfig{
				Clear: []PulseConfig{
					{On: 200 * time.Millisecond},
				},
				Detected: []PulseConfig{
					{On: 300 * time.Millisecond, Off: 200 * time.Millisecond},
					{On: 300 * time.Millisecond},
				},
				Warning:   repeat(3, 400*time.Millisecond, 150*time.Millisecond),
				FireAlert: repeat(8, 200*time.Millisecond, 50*time.Millisecond),
			},
			AllClear: []PulseConfig{
				{On: 500 * time.Millisecond},
			},
			Startup: []PulseConfig{
				{On: 100 * time.Millisecond, Off: 100 * time.Millisecond},
				{On: 100 * time.Millisecond},
			},
			Ready: []PulseConfig{
				{On: 200 * time.Millisecond, Off: 150 * time.Millisecond},
				{On: 200 * time.Millisecond},
			},
		},
		Monitor: MonitorConfig{
			Period:          3 * time.Second,
			Warmup:          60 * time.Second,
			ConnectAttempts: 5,
		},
		Mock: MockConfig{
			BaselineRaw:   300,
			PeakRaw:       700,
			Noise:         4,
			EventPeriod:   2 * time.Minute,
			EventDuration: 40 * time.Second,
		},
	}
}

func repeat(n int, on, off time.Duration) []PulseConfig {
	pulses := make([]PulseConfig, n)
	for i := range pulses {
		pulses[i] = PulseConfig{On: on, Off: off}
	}
	return pulses
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects configurations that would make the monitor compute
// silently wrong results.
func (c *Config) Validate() error {
	if err := c.Thresholds.Validate(); err != nil {
		return err
	}
	if c.ADC.SupplyMillivolts <= 0 {
		return fmt.Errorf("%w: adc.supply_mv must be positive, got %v", ErrInvalid, c.ADC.SupplyMillivolts)
	}
	if c.ADC.FullScale == 0 {
		return fmt.Errorf("%w: adc.full_scale must be positive", ErrInvalid)
	}
	if c.ADC.Oversample <= 0 {
		return fmt.Errorf("%w: adc.oversample must be positive, got %d", ErrInvalid, c.ADC.Oversample)
	}
	if c.Sensor.LoadResistance <= 0 {
		return fmt.Errorf("%w: sensor.load_resistance must be positive, got %v", ErrInvalid, c.Sensor.LoadResistance)
	}
	if c.Sensor.CleanAirResistance <= 0 {
		return fmt.Errorf("%w: sensor.clean_air_resistance must be positive, got %v", ErrInvalid, c.Sensor.CleanAirResistance)
	}
	if c.Sensor.CurveA <= 0 {
		return fmt.Errorf("%w: sensor.curve_a must be positive, got %v", ErrInvalid, c.Sensor.CurveA)
	}
	if c.Monitor.Period <= 0 {
		return fmt.Errorf("%w: monitor.period must be positive, got %v", ErrInvalid, c.Monitor.Period)
	}
	for name, pulses := range map[string][]PulseConfig{
		"alarm.patterns.clear":      c.Alarm.Patterns.Clear,
		"alarm.patterns.detected":   c.Alarm.Patterns.Detected,
		"alarm.patterns.warning":    c.Alarm.Patterns.Warning,
		"alarm.patterns.fire_alert": c.Alarm.Patterns.FireAlert,
		"alarm.all_clear":           c.Alarm.AllClear,
		"alarm.startup":             c.Alarm.Startup,
		"alarm.ready":               c.Alarm.Ready,
	} {
		for i, p := range pulses {
			if p.On < 0 || p.Off < 0 {
				return fmt.Errorf("%w: %s[%d] has a negative duration", ErrInvalid, name, i)
			}
		}
	}
	return nil
}

// Validate checks that the thresholds are positive and strictly ascending.
func (t ThresholdConfig) Validate() error {
	if t.Low <= 0 {
		return fmt.Errorf("%w: thresholds.low must be positive, got %v", ErrInvalid, t.Low)
	}
	if !(t.Low < t.Medium && t.Medium < t.High) {
		return fmt.Errorf("%w: thresholds must satisfy low < medium < high, got %v/%v/%v",
			ErrInvalid, t.Low, t.Medium, t.High)
	}
	return nil
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}
	if c.Serial.ReadTimeout == 0 {
		c.Serial.ReadTimeout = def.Serial.ReadTimeout
	}

	if c.ADC.SupplyMillivolts == 0 {
		c.ADC.SupplyMillivolts = def.ADC.SupplyMillivolts
	}
	if c.ADC.FullScale == 0 {
		c.ADC.FullScale = def.ADC.FullScale
	}
	if c.ADC.Oversample == 0 {
		c.ADC.Oversample = def.ADC.Oversample
	}

	if c.Sensor.LoadResistance == 0 {
		c.Sensor.LoadResistance = def.Sensor.LoadResistance
	}
	if c.Sensor.CleanAirResistance == 0 {
		c.Sensor.CleanAirResistance = def.Sensor.CleanAirResistance
	}
	if c.Sensor.CurveA == 0 {
		c.Sensor.CurveA = def.Sensor.CurveA
	}
	if c.Sensor.CurveB == 0 {
		c.Sensor.CurveB = def.Sensor.CurveB
	}

	if c.Thresholds == (ThresholdConfig{}) {
		c.Thresholds = def.Thresholds
	}

	if len(c.Alarm.Patterns.Clear) == 0 {
		c.Alarm.Patterns.Clear = def.Alarm.Patterns.Clear
	}
	if len(c.Alarm.Patterns.Detected) == 0 {
		c.Alarm.Patterns.Detected = def.Alarm.Patterns.Detected
	}
	if len(c.Alarm.Patterns.Warning) == 0 {
		c.Alarm.Patterns.Warning = def.Alarm.Patterns.Warning
	}
	if len(c.Alarm.Patterns.FireAlert) == 0 {
		c.Alarm.Patterns.FireAlert = def.Alarm.Patterns.FireAlert
	}
	if len(c.Alarm.AllClear) == 0 {
		c.Alarm.AllClear = def.Alarm.AllClear
	}
	if len(c.Alarm.Startup) == 0 {
		c.Alarm.Startup = def.Alarm.Startup
	}
	if len(c.Alarm.Ready) == 0 {
		c.Alarm.Ready = def.Alarm.Ready
	}

	if c.Monitor.Period == 0 {
		c.Monitor.Period = def.Monitor.Period
	}
	if c.Monitor.ConnectAttempts == 0 {
		c.Monitor.ConnectAttempts = def.Monitor.ConnectAttempts
	}

	if c.Mock.BaselineRaw == 0 {
		c.Mock.BaselineRaw = def.Mock.BaselineRaw
	}
	if c.Mock.PeakRaw == 0 {
		c.Mock.PeakRaw = def.Mock.PeakRaw
	}
	if c.Mock.EventPeriod == 0 {
		c.Mock.EventPeriod = def.Mock.EventPeriod
	}
	if c.Mock.EventDuration == 0 {
		c.Mock.EventDuration = def.Mock.EventDuration
	}
}
