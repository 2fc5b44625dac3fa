// Command scenario-check validates a scenario file and prints the resolved
// run settings and agent roster without starting a simulation.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"disaster-sim/internal/core/config"
)

func main() {
	scenarioPath := flag.String("scenario", "", "Path to scenario YAML (defaults built in)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*scenarioPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scenario-check: %v\n", err)
		os.Exit(1)
	}

	source := "built-in defaults"
	if *scenarioPath != "" {
		source = *scenarioPath
	}
	fmt.Printf("Scenario OK (%s)\n\n", source)

	fmt.Printf("  location:        %s\n", cfg.Location)
	fmt.Printf("  tick_interval:   %v\n", cfg.TickInterval.Std())
	fmt.Printf("  run_duration:    %v\n", cfg.RunDuration.Std())
	fmt.Printf("  receive_timeout: %v\n", cfg.ReceiveTimeout.Std())
	fmt.Printf("  state_delay:     %v\n", cfg.StateDelay.Std())
	fmt.Printf("  goal_delay:      %v\n", cfg.GoalDelay.Std())
	fmt.Printf("  allocation_ttl:  %v\n", cfg.AllocationTTL.Std())
	fmt.Printf("  transport:       %s\n", cfg.Transport)
	if cfg.Transport == config.TransportNATS {
		fmt.Printf("  nats_url:        %s\n", cfg.NATSURL)
	}
	fmt.Printf("  logs_dir:        %s\n", cfg.LogsDir)
	fmt.Printf("  record_history:  %t\n", cfg.RecordHistory)
	if cfg.RandomSeed != 0 {
		fmt.Printf("  random_seed:     %d\n", cfg.RandomSeed)
	}

	fmt.Println("\nAgent roster:")
	fmt.Println("  Sensor-01    (sensor)")
	fmt.Println("  Response-01  (responder)")
	fmt.Println("  Command-01   (coordinator)")
	for i := 1; i <= cfg.Responders; i++ {
		fmt.Printf("  Rescue-%02d    (rescue)\n", i)
	}
}
