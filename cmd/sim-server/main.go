// Command sim-server runs the full disaster-response simulation: a sensor
// agent driving an environment model, an FSM response agent, and a command
// center brokering resources from a fleet of rescue agents, all exchanging
// ACL messages over a shared bus.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"disaster-sim/internal/coordination"
	"disaster-sim/internal/core/bus"
	"disaster-sim/internal/core/config"
	"disaster-sim/internal/core/orchestrator"
	"disaster-sim/internal/core/reporter"
	"disaster-sim/internal/environment"
	"disaster-sim/internal/model"
	"disaster-sim/internal/response"
)

const (
	sensorID   = "Sensor-01"
	responseID = "Response-01"
	commandID  = "Command-01"
)

func main() {
	var (
		scenarioPath = flag.String("scenario", "", "Path to scenario YAML (defaults built in)")
		duration     = flag.Duration("duration", 0, "Run duration (overrides scenario)")
		transport    = flag.String("transport", "", "Message transport: 'memory' or 'nats' (overrides scenario)")
		watch        = flag.Bool("watch", false, "Hot-reload the scenario file on change")
		seed         = flag.Int64("seed", 0, "Random seed (overrides scenario; 0 = time-based)")
	)
	flag.Parse()

	// Load .env first so the scenario's env overlay sees it.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load(*scenarioPath)
	if err != nil {
		log.Fatalf("Scenario: %v", err)
	}

	// CLI beats ENV beats file.
	if *duration > 0 {
		cfg.RunDuration = config.Duration(*duration)
	}
	if *transport != "" {
		cfg.Transport = *transport
	}
	if *seed != 0 {
		cfg.RandomSeed = *seed
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Scenario: %v", err)
	}

	if err := os.MkdirAll(cfg.LogsDir, 0o755); err != nil {
		log.Fatalf("Failed to create logs dir: %v", err)
	}

	// Console + file logging.
	logPath := filepath.Join(cfg.LogsDir, fmt.Sprintf("simulation_%s.log", time.Now().Format("20060102_150405")))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer logFile.Close()
	log.SetOutput(io.MultiWriter(os.Stdout, logFile))

	fmt.Println("Disaster Response Coordination Simulator")
	fmt.Printf("Location: %s | Transport: %s | Duration: %v\n",
		cfg.Location, cfg.Transport, cfg.RunDuration.Std())

	seedVal := cfg.RandomSeed
	if seedVal == 0 {
		seedVal = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seedVal))
	log.Printf("[Main] Random seed: %d", seedVal)

	// Transport selection. A failed NATS connection is fatal to this run.
	var b bus.Bus
	switch cfg.Transport {
	case config.TransportNATS:
		nb, err := bus.NewNATSBus(cfg.NATSURL, "disaster-sim")
		if err != nil {
			log.Fatalf("Transport: %v", err)
		}
		b = nb
	default:
		b = bus.NewMemoryBus(256)
	}

	// Build the agents.
	env := environment.New(cfg.Location, rng)
	env.SetRecordHistory(cfg.RecordHistory)

	resp := response.New(responseID, b, response.Options{
		ReceiveTimeout: cfg.ReceiveTimeout.Std(),
		StateDelay:     cfg.StateDelay.Std(),
		GoalDelay:      cfg.GoalDelay.Std(),
	})

	rescueIDs := make([]string, cfg.Responders)
	rescues := make([]*coordination.RescueAgent, cfg.Responders)
	for i := range rescueIDs {
		rescueIDs[i] = fmt.Sprintf("Rescue-%02d", i+1)
		rescues[i] = coordination.NewRescue(rescueIDs[i], b, coordination.RandomPool(rng))
	}

	command := coordination.NewCommandCenter(commandID, b, rescueIDs, cfg.AllocationTTL.Std())
	sensor := coordination.NewSensor(sensorID, b, env, cfg.TickInterval.Std(),
		[]string{responseID, commandID})

	orch := orchestrator.New(b)
	orch.Register(sensor)
	orch.Register(resp)
	orch.Register(command)
	for _, r := range rescues {
		orch.Register(r)
	}
	orch.Start()

	// Scenario hot reload tunes the running sensor's cadence.
	if *watch && *scenarioPath != "" {
		w, err := config.Watch(*scenarioPath, 500*time.Millisecond, func(s config.Scenario) {
			sensor.SetPeriod(s.TickInterval.Std())
		})
		if err != nil {
			log.Printf("[Main] Scenario watch disabled: %v", err)
		} else {
			defer w.Stop()
		}
	}

	// Run until the clock or the operator says stop.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-time.After(cfg.RunDuration.Std()):
		log.Println("[Main] Run duration elapsed")
	case sig := <-sigCh:
		log.Printf("[Main] Received %v, shutting down", sig)
	}

	orch.Stop()
	// Give in-flight handlers a moment to settle before collecting.
	time.Sleep(200 * time.Millisecond)

	// Collect and export artifacts.
	rep := reporter.New(cfg.LogsDir, cfg.Location)
	rep.AddConditions(env.ConditionsHistory())
	rep.AddEvents(env.EventHistory())
	rep.AddTrace(resp.Trace(), resp.Goals())
	rep.AddMessages(sensor.MessageLog())
	rep.AddMessages(resp.MessageLog())
	rep.AddMessages(command.MessageLog())
	for _, r := range rescues {
		rep.AddMessages(r.MessageLog())
	}

	written, err := rep.ExportAll()
	if err != nil {
		log.Printf("[Main] Export failed: %v", err)
	}

	printSummary(env, resp, written, logPath)
}

func printSummary(env *environment.Environment, resp *response.Agent, written []string, logPath string) {
	events := env.EventHistory()
	goals := resp.Goals()

	byType := make(map[model.DisasterType]int)
	bySeverity := make(map[model.SeverityLevel]int)
	for _, e := range events {
		byType[e.Type]++
		bySeverity[e.Severity]++
	}
	completed := 0
	for _, g := range goals {
		if g.Status == model.GoalCompleted {
			completed++
		}
	}

	fmt.Println("\nFINAL REPORT")
	fmt.Printf("Disasters detected: %d\n", len(events))
	for _, t := range model.AllDisasterTypes {
		if n := byType[t]; n > 0 {
			fmt.Printf("  %s: %d\n", t, n)
		}
	}
	for _, s := range model.AllSeverityLevels {
		if n := bySeverity[s]; n > 0 {
			fmt.Printf("  %s: %d\n", s, n)
		}
	}
	fmt.Printf("Goals created: %d, completed: %d\n", len(goals), completed)
	fmt.Printf("FSM states visited: %d\n", len(resp.Trace()))

	fmt.Println("\nGenerated files:")
	fmt.Printf("  %s\n", logPath)
	for _, p := range written {
		fmt.Printf("  %s\n", p)
	}
}
