// Package orchestrator owns the lifecycle of the simulation: it wires agents
// to the bus and starts and stops them together.
package orchestrator

import (
	"log"
	"runtime/debug"
	"sync"

	"disaster-sim/internal/core/agent"
	"disaster-sim/internal/core/bus"
)

// Orchestrator manages the registered agents and the shared bus.
type Orchestrator struct {
	Bus    bus.Bus
	Agents map[string]agent.Agent
	mu     sync.RWMutex
}

// New creates an Orchestrator over the given bus.
func New(b bus.Bus) *Orchestrator {
	return &Orchestrator{
		Bus:    b,
		Agents: make(map[string]agent.Agent),
	}
}

// Register adds an agent and subscribes it to its own topic and BROADCAST.
// Convention: agents listen on their own ID as a topic.
func (o *Orchestrator) Register(a agent.Agent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.Agents[a.ID()] = a
	log.Printf("[Orchestrator] Registered agent: %s (%s)", a.ID(), a.Role())

	o.Bus.Subscribe(a.ID(), func(m bus.Message) {
		a.OnMessage(m)
	})

	o.Bus.Subscribe(bus.Broadcast, func(m bus.Message) {
		// Skip own echoes on the broadcast topic.
		if m.From != a.ID() {
			a.OnMessage(m)
		}
	})
}

// Start boots the bus and launches every agent's loop. A panicking or
// failing agent is logged; co-running agents keep going.
func (o *Orchestrator) Start() {
	log.Println("[Orchestrator] Starting system...")
	o.Bus.Start()

	o.mu.RLock()
	defer o.mu.RUnlock()

	for _, a := range o.Agents {
		a := a
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("[Orchestrator] PANIC in agent %s: %v\n%s", a.ID(), r, debug.Stack())
				}
			}()
			if err := a.Run(); err != nil {
				log.Printf("[Orchestrator] Agent %s stopped with error: %v", a.ID(), err)
			}
		}()
	}
}

// Stop shuts down every agent, then the bus.
func (o *Orchestrator) Stop() {
	log.Println("[Orchestrator] Stopping system...")

	o.mu.RLock()
	defer o.mu.RUnlock()

	for _, a := range o.Agents {
		a.Stop()
	}
	o.Bus.Stop()
}
