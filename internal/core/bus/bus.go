// Package bus carries typed ACL messages between named agents. Topics are
// agent identifiers (or BROADCAST); delivery is asynchronous and best
// effort.
package bus

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Performative is the speech-act tag on a message, independent of payload.
type Performative string

const (
	Inform  Performative = "inform"
	Request Performative = "request"

	// Declared FIPA vocabulary, reserved but unused by current logic.
	Agree          Performative = "agree"
	Refuse         Performative = "refuse"
	Confirm        Performative = "confirm"
	QueryIf        Performative = "query-if"
	Propose        Performative = "propose"
	AcceptProposal Performative = "accept-proposal"
	RejectProposal Performative = "reject-proposal"
)

// MessageType tags the payload shape.
type MessageType string

const (
	DisasterAlert    MessageType = "disaster_alert"
	ResourceRequest  MessageType = "resource_request"
	ResourceResponse MessageType = "resource_response"

	// Reserved message types.
	StatusUpdate        MessageType = "status_update"
	CoordinationRequest MessageType = "coordination_request"
	TaskAssignment      MessageType = "task_assignment"
)

// Broadcast addresses a message to every subscribed agent.
const Broadcast = "BROADCAST"

// Message is the envelope exchanged between agents.
type Message struct {
	ID             string          `json:"id"`
	Timestamp      time.Time       `json:"timestamp"`
	From           string          `json:"from"`
	To             string          `json:"to"` // Broadcast or a specific agent id
	Performative   Performative    `json:"performative"`
	Type           MessageType     `json:"message_type"`
	ConversationID string          `json:"conversation_id,omitempty"`
	Body           json.RawMessage `json:"body"`
}

// NewMessage builds an envelope with a fresh id and a JSON-encoded body.
func NewMessage(from, to string, p Performative, t MessageType, conversationID string, body any) (Message, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return Message{}, fmt.Errorf("marshal %s body: %w", t, err)
	}
	return Message{
		ID:             uuid.NewString(),
		Timestamp:      time.Now(),
		From:           from,
		To:             to,
		Performative:   p,
		Type:           t,
		ConversationID: conversationID,
		Body:           raw,
	}, nil
}

// LogEntry records one message observed by an agent. Each agent keeps its
// own append-only log; there is no shared ledger, and a global order is
// reconstructed only approximately by merging logs on timestamp.
type LogEntry struct {
	Timestamp      string          `json:"timestamp"`
	Sender         string          `json:"sender"`
	Receiver       string          `json:"receiver"`
	Performative   Performative    `json:"performative"`
	MessageType    MessageType     `json:"message_type"`
	Content        json.RawMessage `json:"content"`
	ConversationID string          `json:"conversation_id,omitempty"`
}

// EntryFor projects a message onto a log entry at observation time.
func EntryFor(m Message) LogEntry {
	return LogEntry{
		Timestamp:      m.Timestamp.Format(time.RFC3339Nano),
		Sender:         m.From,
		Receiver:       m.To,
		Performative:   m.Performative,
		MessageType:    m.Type,
		Content:        m.Body,
		ConversationID: m.ConversationID,
	}
}

// Handler processes one delivered message.
type Handler func(Message)

// Bus delivers addressed messages between agents.
type Bus interface {
	Publish(topic string, msg Message) error
	Subscribe(topic string, handler Handler)
	Start()
	Stop()
}

// MemoryBus is the in-process Bus used for single-process simulations.
type MemoryBus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
	msgChan     chan envelope
	done        chan struct{}
}

type envelope struct {
	topic string
	msg   Message
}

// NewMemoryBus creates an in-memory bus with the given queue depth.
func NewMemoryBus(bufferSize int) *MemoryBus {
	return &MemoryBus{
		subscribers: make(map[string][]Handler),
		msgChan:     make(chan envelope, bufferSize),
		done:        make(chan struct{}),
	}
}

// Subscribe adds a handler for a topic.
func (b *MemoryBus) Subscribe(topic string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[topic] = append(b.subscribers[topic], handler)
}

// Publish enqueues a message. A full queue drops the message after a short
// wait; delivery is best effort.
func (b *MemoryBus) Publish(topic string, msg Message) error {
	select {
	case b.msgChan <- envelope{topic: topic, msg: msg}:
		return nil
	case <-time.After(50 * time.Millisecond):
		return errors.New("bus full, message dropped")
	}
}

// Start begins the dispatch loop.
func (b *MemoryBus) Start() {
	go func() {
		for {
			select {
			case env := <-b.msgChan:
				b.dispatch(env.topic, env.msg)
			case <-b.done:
				return
			}
		}
	}()
}

// Stop halts the dispatch loop.
func (b *MemoryBus) Stop() {
	close(b.done)
}

func (b *MemoryBus) dispatch(topic string, msg Message) {
	b.mu.RLock()
	handlers := b.subscribers[topic]
	b.mu.RUnlock()

	for _, h := range handlers {
		// Handlers run in their own goroutine so a slow agent cannot
		// block the bus.
		go h(msg)
	}
}
