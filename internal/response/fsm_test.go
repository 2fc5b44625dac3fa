package response

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disaster-sim/internal/core/bus"
	"disaster-sim/internal/model"
)

func newTestAgent(t *testing.T) (*Agent, *bus.MemoryBus) {
	t.Helper()
	b := bus.NewMemoryBus(16)
	a := New("Response-01", b, Options{
		ReceiveTimeout: 50 * time.Millisecond,
		StateDelay:     0,
		GoalDelay:      0,
	})
	return a, b
}

func alertMessage(t *testing.T, severity model.SeverityLevel) bus.Message {
	t.Helper()
	e := model.DisasterEvent{
		EventID:             "EVENT-0001",
		Type:                model.Earthquake,
		Severity:            severity,
		Location:            "Test Zone",
		Timestamp:           time.Now().Format(time.RFC3339),
		AffectedAreaKm2:     42.0,
		CasualtiesEstimated: 7,
	}
	msg, err := bus.NewMessage("Sensor-01", "Response-01", bus.Inform, bus.DisasterAlert, e.EventID, model.NewAlert(e))
	require.NoError(t, err)
	return msg
}

func TestFullResponseCycle(t *testing.T) {
	a, _ := newTestAgent(t)
	go a.Run()
	defer a.Stop()

	a.OnMessage(alertMessage(t, model.Moderate))

	require.Eventually(t, func() bool {
		return len(a.Trace()) >= 6
	}, 2*time.Second, 10*time.Millisecond)

	trace := a.Trace()
	require.Len(t, trace, 6)

	wantStates := []State{
		StateIdle, StateAnalyzing, StatePlanning,
		StateResponding, StateMonitoring, StateCompleted,
	}
	for i, want := range wantStates {
		assert.Equal(t, want, trace[i].State, "trace position %d", i)
		assert.Equal(t, "EVENT-0001", trace[i].EventID)
	}

	assert.Equal(t, "Received disaster alert", trace[0].Action)
	assert.Equal(t, 3, trace[1].Counters["severity"])
	// Severity 3 plans deploy, evacuate, medical aid, and monitor recovery.
	assert.Equal(t, 4, trace[2].Counters["goals_count"])
	assert.Equal(t, 4, trace[3].Counters["goals_completed"])
	assert.Equal(t, 5, trace[4].Counters["goals_completed"])
	assert.Equal(t, 5, trace[4].Counters["total_goals"])

	goals := a.Goals()
	require.Len(t, goals, 5)
	for _, g := range goals {
		assert.Equal(t, model.GoalCompleted, g.Status, g.GoalID)
		assert.NotEmpty(t, g.CompletedAt, g.GoalID)
	}
	assert.Equal(t, model.AssessSituation, goals[0].Type)
}

func TestCycleReturnsToIdleAndAcceptsNextAlert(t *testing.T) {
	a, _ := newTestAgent(t)
	go a.Run()
	defer a.Stop()

	a.OnMessage(alertMessage(t, model.Minimal))
	require.Eventually(t, func() bool {
		return len(a.Trace()) == 6
	}, 2*time.Second, 10*time.Millisecond)

	a.OnMessage(alertMessage(t, model.Critical))
	require.Eventually(t, func() bool {
		return len(a.Trace()) == 12
	}, 2*time.Second, 10*time.Millisecond)

	// Minimal plans 3 goals, Critical 5, plus one assessment each.
	assert.Len(t, a.Goals(), 4+6)
}

func TestPlanGoalsBySeverity(t *testing.T) {
	cases := []struct {
		severity model.SeverityLevel
		want     []model.RescueGoal
	}{
		{model.Minimal, []model.RescueGoal{
			model.DeployResources, model.EvacuateCivilians, model.MonitorRecovery,
		}},
		{model.Low, []model.RescueGoal{
			model.DeployResources, model.EvacuateCivilians, model.MonitorRecovery,
		}},
		{model.Moderate, []model.RescueGoal{
			model.DeployResources, model.EvacuateCivilians,
			model.ProvideMedicalAid, model.MonitorRecovery,
		}},
		{model.High, []model.RescueGoal{
			model.DeployResources, model.EvacuateCivilians,
			model.ProvideMedicalAid, model.RestoreInfrastructure, model.MonitorRecovery,
		}},
		{model.Critical, []model.RescueGoal{
			model.DeployResources, model.EvacuateCivilians,
			model.ProvideMedicalAid, model.RestoreInfrastructure, model.MonitorRecovery,
		}},
	}

	for _, tc := range cases {
		a, _ := newTestAgent(t)
		planned := a.planGoals(tc.severity)
		got := make([]model.RescueGoal, len(planned))
		for i, g := range planned {
			got[i] = g.Type
		}
		assert.Equal(t, tc.want, got, "severity %s", tc.severity)
		for _, g := range planned {
			assert.Equal(t, model.GoalPending, g.Status)
		}
	}
}

func TestExecutePendingOrdersByPriorityStable(t *testing.T) {
	a, _ := newTestAgent(t)
	a.newGoal(model.MonitorRecovery, 2)
	a.newGoal(model.DeployResources, 5)
	a.newGoal(model.EvacuateCivilians, 5)
	a.newGoal(model.ProvideMedicalAid, 4)

	executed := a.executePending()
	require.Len(t, executed, 4)
	assert.Equal(t, model.DeployResources, executed[0].Type)
	assert.Equal(t, model.EvacuateCivilians, executed[1].Type)
	assert.Equal(t, model.ProvideMedicalAid, executed[2].Type)
	assert.Equal(t, model.MonitorRecovery, executed[3].Type)

	for _, g := range a.Goals() {
		assert.Equal(t, model.GoalCompleted, g.Status)
	}
}

func TestMalformedAlertKeepsAgentIdle(t *testing.T) {
	a, _ := newTestAgent(t)
	go a.Run()
	defer a.Stop()

	a.OnMessage(bus.Message{
		ID:           "bad-1",
		From:         "Sensor-01",
		To:           "Response-01",
		Performative: bus.Inform,
		Type:         bus.DisasterAlert,
		Body:         json.RawMessage(`{"severity": "not a number"`),
	})

	// The malformed alert is logged but produces no trace entry; a valid one
	// afterwards runs the full cycle.
	a.OnMessage(alertMessage(t, model.Low))
	require.Eventually(t, func() bool {
		return len(a.Trace()) == 6
	}, 2*time.Second, 10*time.Millisecond)

	assert.Len(t, a.MessageLog(), 2)
}

func TestNonAlertMessagesAreIgnored(t *testing.T) {
	a, _ := newTestAgent(t)
	go a.Run()
	defer a.Stop()

	msg, err := bus.NewMessage("Command-01", "Response-01", bus.Request, bus.ResourceRequest, "EVENT-0009", nil)
	require.NoError(t, err)
	a.OnMessage(msg)

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, a.Trace())
	assert.Empty(t, a.Goals())
	assert.Len(t, a.MessageLog(), 1)
}
