package coordination

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"disaster-sim/internal/core/agent"
	"disaster-sim/internal/core/bus"
	"disaster-sim/internal/model"
)

// CommandCenter brokers resources: every disaster alert becomes one
// resource request per known rescue agent, all sharing the alert's event id
// as conversation id. Replies are recorded, never aggregated: the command
// center does not reconcile grants across rescue agents, so two of them may
// both allocate for the same event. That over-allocation is a property of
// the protocol, visible in the exported message logs.
type CommandCenter struct {
	id           string
	bus          bus.Bus
	rescueAgents []string

	// allocations maps conversation id -> []model.ResourceResponseBody.
	// Entries expire so a long-running command center sheds conversations
	// nobody will ask about again.
	allocations *cache.Cache

	inbox chan bus.Message
	done  chan struct{}

	mu     sync.RWMutex
	msgLog []bus.LogEntry
}

// NewCommandCenter creates a coordinator that will request resources from
// the given rescue agents. allocationTTL bounds how long recorded replies
// are retained.
func NewCommandCenter(id string, b bus.Bus, rescueAgents []string, allocationTTL time.Duration) *CommandCenter {
	if allocationTTL <= 0 {
		allocationTTL = cache.NoExpiration
	}
	return &CommandCenter{
		id:           id,
		bus:          b,
		rescueAgents: rescueAgents,
		allocations:  cache.New(allocationTTL, 2*time.Minute),
		inbox:        make(chan bus.Message, 64),
		done:         make(chan struct{}),
	}
}

func (c *CommandCenter) ID() string { return c.id }

func (c *CommandCenter) Role() agent.Role { return agent.Coordinator }

// OnMessage enqueues into the coordinator's single loop.
func (c *CommandCenter) OnMessage(msg bus.Message) {
	select {
	case c.inbox <- msg:
	default:
		log.Printf("[%s] Inbox full, dropping message %s", c.id, msg.ID)
	}
}

// Stop ends the loop.
func (c *CommandCenter) Stop() {
	close(c.done)
}

// Run processes inbound messages one at a time; all coordinator state is
// mutated only from this loop.
func (c *CommandCenter) Run() error {
	log.Printf("[%s] Online. Rescue agents: %v", c.id, c.rescueAgents)

	for {
		select {
		case msg := <-c.inbox:
			c.handle(msg)
		case <-c.done:
			return nil
		}
	}
}

func (c *CommandCenter) handle(msg bus.Message) {
	c.logMessage(msg)

	switch {
	case msg.Performative == bus.Inform && msg.Type == bus.DisasterAlert:
		c.handleAlert(msg)
	case msg.Performative == bus.Inform && msg.Type == bus.ResourceResponse:
		c.handleResponse(msg)
	default:
		log.Printf("[%s] Ignoring %s/%s from %s", c.id, msg.Performative, msg.Type, msg.From)
	}
}

// handleAlert computes demand from severity and broadcasts one request per
// rescue agent, correlated by the alert's event id.
func (c *CommandCenter) handleAlert(msg bus.Message) {
	var alert model.DisasterAlert
	if err := json.Unmarshal(msg.Body, &alert); err != nil {
		log.Printf("[%s] Failed to parse alert from %s: %v", c.id, msg.From, err)
		return
	}

	log.Printf("[%s] DISASTER ALERT from %s: %s %s (%s)",
		c.id, msg.From, alert.EventID, alert.DisasterType, alert.SeverityName)

	demand := model.DemandForSeverity(model.SeverityLevel(alert.Severity))
	body := model.ResourceRequestBody{
		EventID:            alert.EventID,
		DisasterType:       alert.DisasterType,
		Severity:           alert.Severity,
		ResourcesRequested: demand,
	}

	for _, rescue := range c.rescueAgents {
		req, err := bus.NewMessage(c.id, rescue, bus.Request, bus.ResourceRequest, alert.EventID, body)
		if err != nil {
			log.Printf("[%s] Build request for %s: %v", c.id, rescue, err)
			continue
		}
		if err := c.bus.Publish(rescue, req); err != nil {
			log.Printf("[%s] Publish request to %s: %v", c.id, rescue, err)
			continue
		}
		c.logMessage(req)
		log.Printf("[%s] REQUEST sent to %s: teams %d, medical %d, equipment %d",
			c.id, rescue, demand.RescueTeams, demand.MedicalUnits, demand.Equipment)
	}
}

// handleResponse records a rescue agent's grant under its conversation id.
func (c *CommandCenter) handleResponse(msg bus.Message) {
	var resp model.ResourceResponseBody
	if err := json.Unmarshal(msg.Body, &resp); err != nil {
		log.Printf("[%s] Failed to parse response from %s: %v", c.id, msg.From, err)
		return
	}

	key := msg.ConversationID
	if key == "" {
		key = resp.EventID
	}

	var recorded []model.ResourceResponseBody
	if prev, ok := c.allocations.Get(key); ok {
		recorded = prev.([]model.ResourceResponseBody)
	}
	recorded = append(recorded, resp)
	c.allocations.SetDefault(key, recorded)

	log.Printf("[%s] RESOURCE RESPONSE from %s for %s: %s, teams %d, medical %d, equipment %d",
		c.id, msg.From, resp.EventID, resp.Status,
		resp.ResourcesAvailable.RescueTeams,
		resp.ResourcesAvailable.MedicalUnits,
		resp.ResourcesAvailable.Equipment)
}

// Allocations returns the replies recorded so far for one event.
func (c *CommandCenter) Allocations(eventID string) []model.ResourceResponseBody {
	if recorded, ok := c.allocations.Get(eventID); ok {
		return recorded.([]model.ResourceResponseBody)
	}
	return nil
}

func (c *CommandCenter) logMessage(msg bus.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgLog = append(c.msgLog, bus.EntryFor(msg))
}

// MessageLog returns this agent's observed-message log.
func (c *CommandCenter) MessageLog() []bus.LogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]bus.LogEntry, len(c.msgLog))
	copy(out, c.msgLog)
	return out
}
