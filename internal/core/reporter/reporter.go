// Package reporter collects the run's observable artifacts and exports them
// as JSON/CSV files at shutdown: environmental conditions, disaster events,
// the FSM execution trace, and the merged ACL message log.
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"disaster-sim/internal/core/bus"
	"disaster-sim/internal/environment"
	"disaster-sim/internal/model"
	"disaster-sim/internal/response"
)

// Reporter accumulates artifacts across agents. Agents hand over their data
// at collection time; the reporter never reaches into a running agent.
type Reporter struct {
	mu         sync.Mutex
	logsDir    string
	stamp      string
	location   string
	conditions []environment.Condition
	events     []model.DisasterEvent
	trace      []response.TraceEntry
	goals      []model.Goal
	messages   []bus.LogEntry
}

// New creates a reporter writing into logsDir with a session timestamp baked
// into every filename.
func New(logsDir, location string) *Reporter {
	return &Reporter{
		logsDir:  logsDir,
		stamp:    time.Now().Format("20060102_150405"),
		location: location,
	}
}

// AddConditions records the environment's per-tick snapshots.
func (r *Reporter) AddConditions(conditions []environment.Condition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conditions = append(r.conditions, conditions...)
}

// AddEvents records detected disaster events.
func (r *Reporter) AddEvents(events []model.DisasterEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

// AddTrace records the response agent's execution trace and goal history.
func (r *Reporter) AddTrace(trace []response.TraceEntry, goals []model.Goal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trace = append(r.trace, trace...)
	r.goals = append(r.goals, goals...)
}

// AddMessages merges one agent's message log into the combined log.
func (r *Reporter) AddMessages(entries []bus.LogEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, entries...)
}

// ExportAll writes every artifact and returns the written paths.
func (r *Reporter) ExportAll() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(r.logsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create logs dir %s: %w", r.logsDir, err)
	}

	var written []string
	exports := []struct {
		name string
		fn   func(string) error
	}{
		{fmt.Sprintf("environmental_conditions_%s.json", r.stamp), r.exportConditionsJSON},
		{fmt.Sprintf("environmental_conditions_%s.csv", r.stamp), r.exportConditionsCSV},
		{fmt.Sprintf("disaster_events_%s.json", r.stamp), r.exportEventsJSON},
		{fmt.Sprintf("disaster_events_%s.csv", r.stamp), r.exportEventsCSV},
		{fmt.Sprintf("fsm_trace_%s.json", r.stamp), r.exportTraceJSON},
		{fmt.Sprintf("acl_messages_%s.json", r.stamp), r.exportMessagesJSON},
	}

	for _, e := range exports {
		path := filepath.Join(r.logsDir, e.name)
		if err := e.fn(path); err != nil {
			return written, fmt.Errorf("export %s: %w", e.name, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (r *Reporter) exportConditionsJSON(path string) error {
	return writeJSON(path, r.conditions)
}

func (r *Reporter) exportConditionsCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(environment.CSVHeader); err != nil {
		return err
	}
	for _, c := range r.conditions {
		row := []string{
			c.Timestamp,
			strconv.FormatFloat(c.Temperature, 'f', -1, 64),
			strconv.FormatFloat(c.Humidity, 'f', -1, 64),
			strconv.FormatFloat(c.WindSpeed, 'f', -1, 64),
			strconv.Itoa(c.AirQuality),
			strconv.FormatFloat(c.WaterLevel, 'f', -1, 64),
			strconv.FormatFloat(c.SeismicActivity, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (r *Reporter) exportEventsJSON(path string) error {
	return writeJSON(path, map[string]any{
		"monitoring_session": map[string]any{
			"start_time":   time.Now().Format(time.RFC3339),
			"location":     r.location,
			"total_events": len(r.events),
		},
		"events": r.events,
	})
}

func (r *Reporter) exportEventsCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(model.CSVHeader); err != nil {
		return err
	}
	for _, e := range r.events {
		if err := w.Write(e.CSVRow()); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (r *Reporter) exportTraceJSON(path string) error {
	return writeJSON(path, map[string]any{
		"session_start":        time.Now().Format(time.RFC3339),
		"total_states_visited": len(r.trace),
		"goals_created":        len(r.goals),
		"trace":                r.trace,
		"goals":                r.goals,
	})
}

// exportMessagesJSON merges the per-agent logs sorted by timestamp. The
// result is an approximate global order, not a linearizable log.
func (r *Reporter) exportMessagesJSON(path string) error {
	merged := make([]bus.LogEntry, len(r.messages))
	copy(merged, r.messages)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})

	return writeJSON(path, map[string]any{
		"session_timestamp": r.stamp,
		"total_messages":    len(merged),
		"messages":          merged,
	})
}
