// Package config loads the scenario configuration that shapes a simulation
// run: location, tick cadence, transport selection, and responder fleet.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so scenario files can say "3s" or "500ms".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration back as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the underlying time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Transport names.
const (
	TransportMemory = "memory"
	TransportNATS   = "nats"
)

// Scenario is the full run configuration.
type Scenario struct {
	Location       string   `yaml:"location"`
	TickInterval   Duration `yaml:"tick_interval"`   // sensor scan cadence
	RunDuration    Duration `yaml:"run_duration"`    // total simulation time
	ReceiveTimeout Duration `yaml:"receive_timeout"` // FSM idle wait
	StateDelay     Duration `yaml:"state_delay"`     // simulated work per state
	GoalDelay      Duration `yaml:"goal_delay"`      // simulated work per goal
	AllocationTTL  Duration `yaml:"allocation_ttl"`  // coordinator registry expiry
	Transport      string   `yaml:"transport"`       // memory | nats
	NATSURL        string   `yaml:"nats_url"`
	LogsDir        string   `yaml:"logs_dir"`
	Responders     int      `yaml:"responders"`
	RecordHistory  bool     `yaml:"record_history"`
	RandomSeed     int64    `yaml:"random_seed"` // 0 means time-based
}

// Default returns the scenario used when no file is given.
func Default() Scenario {
	return Scenario{
		Location:       "Disaster Zone Alpha",
		TickInterval:   Duration(3 * time.Second),
		RunDuration:    Duration(40 * time.Second),
		ReceiveTimeout: Duration(5 * time.Second),
		StateDelay:     Duration(1 * time.Second),
		GoalDelay:      Duration(500 * time.Millisecond),
		AllocationTTL:  Duration(10 * time.Minute),
		Transport:      TransportMemory,
		NATSURL:        "nats://localhost:4222",
		LogsDir:        "disaster_logs",
		Responders:     2,
		RecordHistory:  true,
	}
}

// Load reads a scenario file over the defaults, overlays environment
// variables, and validates the result. An empty path returns the validated
// defaults.
func Load(path string) (Scenario, error) {
	s := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return s, fmt.Errorf("read scenario %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("parse scenario %s: %w", path, err)
		}
	}

	// ENV beats file, CLI flags beat both (applied by the caller).
	if url := os.Getenv("NATS_URL"); url != "" {
		s.NATSURL = url
	}

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// Validate rejects scenarios that cannot run.
func (s Scenario) Validate() error {
	if s.Location == "" {
		return fmt.Errorf("scenario: location must not be empty")
	}
	if s.TickInterval <= 0 {
		return fmt.Errorf("scenario: tick_interval must be positive")
	}
	if s.RunDuration <= 0 {
		return fmt.Errorf("scenario: run_duration must be positive")
	}
	if s.ReceiveTimeout <= 0 {
		return fmt.Errorf("scenario: receive_timeout must be positive")
	}
	if s.Responders < 1 {
		return fmt.Errorf("scenario: at least one responder is required, got %d", s.Responders)
	}
	switch s.Transport {
	case TransportMemory, TransportNATS:
	default:
		return fmt.Errorf("scenario: unknown transport %q (want %s or %s)",
			s.Transport, TransportMemory, TransportNATS)
	}
	if s.Transport == TransportNATS && s.NATSURL == "" {
		return fmt.Errorf("scenario: nats transport requires nats_url or NATS_URL")
	}
	return nil
}
