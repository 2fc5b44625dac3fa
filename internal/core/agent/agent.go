// Package agent defines the interface every simulation agent implements.
package agent

import "disaster-sim/internal/core/bus"

// Role identifies what part an agent plays in the simulation.
type Role string

const (
	Sensor      Role = "SENSOR"
	Responder   Role = "RESPONDER"
	Coordinator Role = "COORDINATOR"
	Rescue      Role = "RESCUE"
)

// Agent is implemented by every simulation participant. Each agent runs as
// one cooperative loop: OnMessage only enqueues into the agent's inbox, and
// all agent-owned state is mutated from inside Run. That keeps per-agent
// state safe without locks across behaviors.
type Agent interface {
	// ID returns the unique identifier of the agent.
	ID() string

	// Role returns the part this agent plays.
	Role() Role

	// Run starts the agent's main loop. It returns when the agent is
	// stopped or fails fatally.
	Run() error

	// OnMessage is called by the bus when a subscribed message arrives.
	OnMessage(msg bus.Message)

	// Stop asks the agent's loop to exit.
	Stop()
}
