package reporter

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disaster-sim/internal/core/bus"
	"disaster-sim/internal/environment"
	"disaster-sim/internal/model"
	"disaster-sim/internal/response"
)

func TestExportAllWritesEveryArtifact(t *testing.T) {
	dir := t.TempDir()
	r := New(dir, "Test Zone")

	r.AddConditions([]environment.Condition{
		{Timestamp: "2026-01-01T00:00:00Z", Temperature: 22.5, Humidity: 60, WindSpeed: 15, AirQuality: 50, WaterLevel: 2, SeismicActivity: 0.3},
		{Timestamp: "2026-01-01T00:00:03Z", Temperature: 23.1, Humidity: 58, WindSpeed: 16, AirQuality: 52, WaterLevel: 2.1, SeismicActivity: 1.1},
	})
	r.AddEvents([]model.DisasterEvent{{
		EventID:   "EVENT-0001",
		Type:      model.Flood,
		Severity:  model.High,
		Location:  "Test Zone",
		Timestamp: "2026-01-01T00:00:03Z",
	}})
	r.AddTrace(
		[]response.TraceEntry{{State: response.StateIdle, Action: "Received disaster alert", EventID: "EVENT-0001"}},
		[]model.Goal{{GoalID: "GOAL-001", Type: model.AssessSituation, Priority: 5, Status: model.GoalCompleted}},
	)
	r.AddMessages([]bus.LogEntry{
		{Timestamp: "2026-01-01T00:00:03.5Z", Sender: "Sensor-01", Receiver: "Command-01", Performative: bus.Inform, MessageType: bus.DisasterAlert, Content: json.RawMessage(`{}`)},
		{Timestamp: "2026-01-01T00:00:03.1Z", Sender: "Sensor-01", Receiver: "Response-01", Performative: bus.Inform, MessageType: bus.DisasterAlert, Content: json.RawMessage(`{}`)},
	})

	written, err := r.ExportAll()
	require.NoError(t, err)
	require.Len(t, written, 6)
	for _, path := range written {
		info, err := os.Stat(path)
		require.NoError(t, err, path)
		assert.Greater(t, info.Size(), int64(0), path)
	}

	var events struct {
		Session struct {
			Location    string `json:"location"`
			TotalEvents int    `json:"total_events"`
		} `json:"monitoring_session"`
		Events []map[string]any `json:"events"`
	}
	data, err := os.ReadFile(find(t, written, "disaster_events", ".json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &events))
	assert.Equal(t, "Test Zone", events.Session.Location)
	assert.Equal(t, 1, events.Session.TotalEvents)
	require.Len(t, events.Events, 1)
	assert.Equal(t, "HIGH", events.Events[0]["severity_name"])

	var messages struct {
		Total    int            `json:"total_messages"`
		Messages []bus.LogEntry `json:"messages"`
	}
	data, err = os.ReadFile(find(t, written, "acl_messages", ".json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &messages))
	require.Equal(t, 2, messages.Total)
	// Merged log is sorted by timestamp.
	assert.Equal(t, "Response-01", messages.Messages[0].Receiver)
	assert.Equal(t, "Command-01", messages.Messages[1].Receiver)

	f, err := os.Open(find(t, written, "environmental_conditions", ".csv"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, environment.CSVHeader, rows[0])
	assert.Equal(t, "22.5", rows[1][1])
}

func TestExportAllEmptyRun(t *testing.T) {
	r := New(t.TempDir(), "Test Zone")
	written, err := r.ExportAll()
	require.NoError(t, err)
	assert.Len(t, written, 6)
}

func find(t *testing.T, paths []string, prefix, ext string) string {
	t.Helper()
	for _, p := range paths {
		base := filepath.Base(p)
		if filepath.Ext(base) == ext && len(base) > len(prefix) && base[:len(prefix)] == prefix {
			return p
		}
	}
	t.Fatalf("no %s%s artifact in %v", prefix, ext, paths)
	return ""
}
