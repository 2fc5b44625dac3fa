// Package response implements the reactive response pipeline: a six-state
// machine that turns one incoming disaster alert per cycle into a set of
// prioritized rescue goals and executes them.
package response

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"disaster-sim/internal/core/agent"
	"disaster-sim/internal/core/bus"
	"disaster-sim/internal/model"
)

// State names the pipeline stages.
type State string

const (
	StateIdle       State = "IDLE"
	StateAnalyzing  State = "ANALYZING"
	StatePlanning   State = "PLANNING"
	StateResponding State = "RESPONDING"
	StateMonitoring State = "MONITORING"
	StateCompleted  State = "COMPLETED"
)

// TraceEntry records one state visit. The trace is the audit artifact: one
// entry per state visited, in visitation order.
type TraceEntry struct {
	State     State          `json:"state"`
	Timestamp string         `json:"timestamp"`
	Action    string         `json:"action"`
	EventID   string         `json:"event_id,omitempty"`
	Counters  map[string]int `json:"counters,omitempty"`
}

// Options tune the pipeline's timing. Zero delays are valid (tests use
// them); a zero ReceiveTimeout falls back to 5 seconds.
type Options struct {
	ReceiveTimeout time.Duration // IDLE wait before self-looping
	StateDelay     time.Duration // simulated analysis/planning/monitoring work
	GoalDelay      time.Duration // simulated work per executed goal
}

// Agent is the FSM-driven response agent. All state below is owned by the
// Run loop; OnMessage only enqueues.
type Agent struct {
	id   string
	bus  bus.Bus
	opts Options

	inbox chan bus.Message
	done  chan struct{}

	current *model.DisasterAlert
	goals   []*model.Goal
	goalSeq int

	mu     sync.RWMutex
	trace  []TraceEntry
	msgLog []bus.LogEntry
}

// New creates a response agent listening on its own id topic.
func New(id string, b bus.Bus, opts Options) *Agent {
	if opts.ReceiveTimeout <= 0 {
		opts.ReceiveTimeout = 5 * time.Second
	}
	return &Agent{
		id:    id,
		bus:   b,
		opts:  opts,
		inbox: make(chan bus.Message, 64),
		done:  make(chan struct{}),
	}
}

func (a *Agent) ID() string { return a.id }

func (a *Agent) Role() agent.Role { return agent.Responder }

// OnMessage enqueues a delivered message. A full inbox drops the message;
// the transport is best effort and IDLE will pick up the next alert.
func (a *Agent) OnMessage(msg bus.Message) {
	select {
	case a.inbox <- msg:
	default:
		log.Printf("[%s] Inbox full, dropping message %s", a.id, msg.ID)
	}
}

// Stop asks the loop to exit after the current state completes.
func (a *Agent) Stop() {
	close(a.done)
}

// Run drives the state machine until stopped. Transitions are fixed:
//
//	IDLE -> ANALYZING -> PLANNING -> RESPONDING -> MONITORING -> COMPLETED -> IDLE
//	IDLE -> IDLE on timeout or malformed input
func (a *Agent) Run() error {
	log.Printf("[%s] Online. FSM: %s -> %s -> %s -> %s -> %s -> %s",
		a.id, StateIdle, StateAnalyzing, StatePlanning, StateResponding, StateMonitoring, StateCompleted)

	state := StateIdle
	for {
		select {
		case <-a.done:
			return nil
		default:
		}

		switch state {
		case StateIdle:
			state = a.runIdle()
		case StateAnalyzing:
			state = a.runAnalyzing()
		case StatePlanning:
			state = a.runPlanning()
		case StateResponding:
			state = a.runResponding()
		case StateMonitoring:
			state = a.runMonitoring()
		case StateCompleted:
			state = a.runCompleted()
		default:
			return fmt.Errorf("unknown state %q", state)
		}
	}
}

// runIdle blocks for an alert up to the receive timeout. This is the only
// suspension point that yields while waiting on input; no message is a
// valid, non-error outcome.
func (a *Agent) runIdle() State {
	timer := time.NewTimer(a.opts.ReceiveTimeout)
	defer timer.Stop()

	select {
	case msg := <-a.inbox:
		a.logMessage(msg)

		if msg.Performative != bus.Inform || msg.Type != bus.DisasterAlert {
			log.Printf("[%s] Ignoring %s/%s message in IDLE", a.id, msg.Performative, msg.Type)
			return StateIdle
		}

		var alert model.DisasterAlert
		if err := json.Unmarshal(msg.Body, &alert); err != nil {
			// Malformed input is recovered locally; the machine never
			// halts on bad payloads.
			log.Printf("[%s] Failed to parse alert payload: %v", a.id, err)
			return StateIdle
		}

		a.current = &alert
		a.appendTrace(StateIdle, "Received disaster alert", alert.EventID, nil)
		log.Printf("[%s] ALERT: %s (severity %s)", a.id, alert.DisasterType, alert.SeverityName)
		return StateAnalyzing

	case <-timer.C:
		return StateIdle

	case <-a.done:
		return StateIdle
	}
}

// runAnalyzing performs the synchronous situation assessment. The assessment
// goal is created and completed in one step; there is no observable active
// window.
func (a *Agent) runAnalyzing() State {
	log.Printf("[%s] STATE: ANALYZING - assessing situation", a.id)
	a.sleep(a.opts.StateDelay)

	goal := a.newGoal(model.AssessSituation, 5)
	a.setGoalStatus(goal, model.GoalCompleted)

	log.Printf("[%s] Analysis complete: %s severity %d, area %.1f km2, casualties %d",
		a.id, a.current.DisasterType, a.current.Severity,
		a.current.AffectedAreaKm2, a.current.CasualtiesEstimated)

	a.appendTrace(StateAnalyzing, "Completed situation assessment", a.current.EventID,
		map[string]int{"severity": a.current.Severity})
	return StatePlanning
}

// runPlanning derives the goal set purely from severity.
func (a *Agent) runPlanning() State {
	log.Printf("[%s] STATE: PLANNING - creating response plan", a.id)
	a.sleep(a.opts.StateDelay)

	planned := a.planGoals(model.SeverityLevel(a.current.Severity))
	for i, g := range planned {
		log.Printf("[%s]   %d. %s (priority %d)", a.id, i+1, g.Type.Objective(), g.Priority)
	}

	a.appendTrace(StatePlanning, "Response plan created", a.current.EventID,
		map[string]int{"goals_count": len(planned)})
	return StateResponding
}

// planGoals appends the severity-derived goals to the agent's goal list and
// returns the new ones. DEPLOY_RESOURCES, EVACUATE_CIVILIANS, and
// MONITOR_RECOVERY are unconditional; medical aid needs severity >= 3 and
// infrastructure recovery severity >= 4.
func (a *Agent) planGoals(severity model.SeverityLevel) []*model.Goal {
	type spec struct {
		goal     model.RescueGoal
		priority int
	}
	specs := []spec{
		{model.DeployResources, 5},
		{model.EvacuateCivilians, 5},
	}
	if severity >= model.Moderate {
		specs = append(specs, spec{model.ProvideMedicalAid, 4})
	}
	if severity >= model.High {
		specs = append(specs, spec{model.RestoreInfrastructure, 3})
	}
	specs = append(specs, spec{model.MonitorRecovery, 2})

	planned := make([]*model.Goal, 0, len(specs))
	for _, s := range specs {
		planned = append(planned, a.newGoal(s.goal, s.priority))
	}
	return planned
}

// runResponding executes every pending goal in descending priority order.
// The sort is stable: equal priorities keep creation order.
func (a *Agent) runResponding() State {
	log.Printf("[%s] STATE: RESPONDING - executing response actions", a.id)

	executed := a.executePending()

	a.appendTrace(StateResponding, "Response actions executed", a.current.EventID,
		map[string]int{"goals_completed": len(executed)})
	return StateMonitoring
}

// executePending runs all pending goals to completion and returns them in
// execution order.
func (a *Agent) executePending() []*model.Goal {
	var pending []*model.Goal
	for _, g := range a.goals {
		if g.Status == model.GoalPending {
			pending = append(pending, g)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Priority > pending[j].Priority
	})

	for _, g := range pending {
		a.setGoalStatus(g, model.GoalActive)
		log.Printf("[%s] Executing: %s", a.id, g.Type.Objective())
		a.sleep(a.opts.GoalDelay)
		a.setGoalStatus(g, model.GoalCompleted)
		log.Printf("[%s] Completed: %s", a.id, g.Type.Objective())
	}
	return pending
}

// runMonitoring records the completed/total ratio across the agent's whole
// goal history, not just the current cycle.
func (a *Agent) runMonitoring() State {
	log.Printf("[%s] STATE: MONITORING - monitoring recovery progress", a.id)
	a.sleep(a.opts.StateDelay)

	total := len(a.goals)
	completed := 0
	for _, g := range a.goals {
		if g.Status == model.GoalCompleted {
			completed++
		}
	}
	if total > 0 {
		log.Printf("[%s] Goals completed: %d/%d (%.1f%%)",
			a.id, completed, total, float64(completed)/float64(total)*100)
	}

	a.appendTrace(StateMonitoring, "Recovery monitoring completed", a.current.EventID,
		map[string]int{"goals_completed": completed, "total_goals": total})
	return StateCompleted
}

// runCompleted emits the cycle summary, clears the current event, and hands
// control back to IDLE.
func (a *Agent) runCompleted() State {
	log.Printf("[%s] STATE: COMPLETED - response cycle finished for %s", a.id, a.current.EventID)
	for _, g := range a.goals {
		log.Printf("[%s]   [%s] %s (priority %d)", a.id, g.Status, g.Type.Objective(), g.Priority)
	}

	eventID := a.current.EventID
	a.appendTrace(StateCompleted, "Response cycle completed", eventID, nil)
	a.current = nil

	log.Printf("[%s] Returning to IDLE", a.id)
	return StateIdle
}

func (a *Agent) newGoal(t model.RescueGoal, priority int) *model.Goal {
	a.goalSeq++
	g := &model.Goal{
		GoalID:    fmt.Sprintf("GOAL-%03d", a.goalSeq),
		Type:      t,
		Priority:  priority,
		Status:    model.GoalPending,
		CreatedAt: time.Now().Format(time.RFC3339),
	}
	a.mu.Lock()
	a.goals = append(a.goals, g)
	a.mu.Unlock()
	return g
}

// setGoalStatus guards status writes so Goals snapshots taken mid-run see a
// consistent record.
func (a *Agent) setGoalStatus(g *model.Goal, status model.GoalStatus) {
	a.mu.Lock()
	g.Status = status
	if status == model.GoalCompleted || status == model.GoalFailed {
		g.CompletedAt = time.Now().Format(time.RFC3339)
	}
	a.mu.Unlock()
}

// sleep is the simulated-work pause. It always runs to completion once
// started; only IDLE's receive is cancellable.
func (a *Agent) sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

func (a *Agent) appendTrace(s State, action, eventID string, counters map[string]int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.trace = append(a.trace, TraceEntry{
		State:     s,
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Action:    action,
		EventID:   eventID,
		Counters:  counters,
	})
}

func (a *Agent) logMessage(msg bus.Message) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.msgLog = append(a.msgLog, bus.EntryFor(msg))
}

// Trace returns a copy of the execution trace.
func (a *Agent) Trace() []TraceEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]TraceEntry, len(a.trace))
	copy(out, a.trace)
	return out
}

// Goals returns a snapshot of every goal this agent ever created.
func (a *Agent) Goals() []model.Goal {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]model.Goal, 0, len(a.goals))
	for _, g := range a.goals {
		out = append(out, *g)
	}
	return out
}

// MessageLog returns this agent's observed-message log.
func (a *Agent) MessageLog() []bus.LogEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]bus.LogEntry, len(a.msgLog))
	copy(out, a.msgLog)
	return out
}
