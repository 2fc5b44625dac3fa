package coordination

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"sync"

	"disaster-sim/internal/core/agent"
	"disaster-sim/internal/core/bus"
	"disaster-sim/internal/model"
)

// RescueAgent holds a private resource pool and answers resource requests
// with min(requested, held) per resource. Grants are irreversible: the pool
// is decremented when the reply is sent, and nothing restores it if the
// request is later abandoned. Rescue agents do not coordinate with each
// other; each one answers independently.
type RescueAgent struct {
	id  string
	bus bus.Bus

	pool model.ResourceSet

	inbox chan bus.Message
	done  chan struct{}

	mu     sync.RWMutex
	msgLog []bus.LogEntry
}

// RandomPool draws the initial resource counters: teams 3-8, medical 2-5,
// equipment 5-15.
func RandomPool(rng *rand.Rand) model.ResourceSet {
	return model.ResourceSet{
		RescueTeams:  3 + rng.Intn(6),
		MedicalUnits: 2 + rng.Intn(4),
		Equipment:    5 + rng.Intn(11),
	}
}

// NewRescue creates a rescue agent with the given starting pool.
func NewRescue(id string, b bus.Bus, pool model.ResourceSet) *RescueAgent {
	return &RescueAgent{
		id:    id,
		bus:   b,
		pool:  pool,
		inbox: make(chan bus.Message, 64),
		done:  make(chan struct{}),
	}
}

func (r *RescueAgent) ID() string { return r.id }

func (r *RescueAgent) Role() agent.Role { return agent.Rescue }

// OnMessage enqueues into the rescue agent's single loop.
func (r *RescueAgent) OnMessage(msg bus.Message) {
	select {
	case r.inbox <- msg:
	default:
		log.Printf("[%s] Inbox full, dropping message %s", r.id, msg.ID)
	}
}

// Stop ends the loop.
func (r *RescueAgent) Stop() {
	close(r.done)
}

// Run processes requests one at a time; the pool is touched only here.
func (r *RescueAgent) Run() error {
	log.Printf("[%s] Online. Initial resources: teams %d, medical %d, equipment %d",
		r.id, r.pool.RescueTeams, r.pool.MedicalUnits, r.pool.Equipment)

	for {
		select {
		case msg := <-r.inbox:
			r.logMessage(msg)
			if msg.Performative == bus.Request && msg.Type == bus.ResourceRequest {
				if err := r.handleRequest(msg); err != nil {
					log.Printf("[%s] Request handling failed: %v", r.id, err)
				}
			} else {
				log.Printf("[%s] Ignoring %s/%s from %s", r.id, msg.Performative, msg.Type, msg.From)
			}
		case <-r.done:
			return nil
		}
	}
}

// handleRequest grants what it can, depletes the pool, and replies. A
// shortfall is not an error: the partial grant is always reported back in
// resources_available.
func (r *RescueAgent) handleRequest(msg bus.Message) error {
	var req model.ResourceRequestBody
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		return fmt.Errorf("parse resource request from %s: %w", msg.From, err)
	}

	log.Printf("[%s] RESOURCE REQUEST from %s for %s: teams %d, medical %d, equipment %d",
		r.id, msg.From, req.EventID,
		req.ResourcesRequested.RescueTeams,
		req.ResourcesRequested.MedicalUnits,
		req.ResourcesRequested.Equipment)

	granted := r.grant(req.ResourcesRequested)

	body := model.ResourceResponseBody{
		EventID:            req.EventID,
		AgentID:            r.id,
		Status:             model.StatusResourcesAllocated,
		ResourcesAvailable: granted,
	}
	reply, err := bus.NewMessage(r.id, msg.From, bus.Inform, bus.ResourceResponse, req.EventID, body)
	if err != nil {
		return err
	}
	if err := r.bus.Publish(msg.From, reply); err != nil {
		return fmt.Errorf("publish response to %s: %w", msg.From, err)
	}
	r.logMessage(reply)

	remaining := r.Pool()
	log.Printf("[%s] Allocated teams %d, medical %d, equipment %d; remaining teams %d, medical %d, equipment %d",
		r.id, granted.RescueTeams, granted.MedicalUnits, granted.Equipment,
		remaining.RescueTeams, remaining.MedicalUnits, remaining.Equipment)
	return nil
}

// grant clamps the request against the pool and depletes it.
func (r *RescueAgent) grant(requested model.ResourceSet) model.ResourceSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	granted := r.pool.Clamp(requested)
	r.pool = r.pool.Minus(granted)
	return granted
}

// Pool returns the current resource counters.
func (r *RescueAgent) Pool() model.ResourceSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pool
}

func (r *RescueAgent) logMessage(msg bus.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgLog = append(r.msgLog, bus.EntryFor(msg))
}

// MessageLog returns this agent's observed-message log.
func (r *RescueAgent) MessageLog() []bus.LogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]bus.LogEntry, len(r.msgLog))
	copy(out, r.msgLog)
	return out
}
