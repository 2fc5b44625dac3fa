package bus

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/nats-io/nats.go"
)

// NATSBus is a Bus backed by a NATS connection, for runs where agents live
// in separate processes. Envelopes travel JSON-encoded on one subject per
// topic under a shared prefix.
type NATSBus struct {
	conn   *nats.Conn
	prefix string
	mu     sync.Mutex
	subs   []*nats.Subscription
}

// NewNATSBus connects to the given NATS URL. A connection failure is fatal
// to the calling agent's run; there is no automatic retry here beyond what
// the client library does itself.
func NewNATSBus(url, prefix string) (*NATSBus, error) {
	conn, err := nats.Connect(url,
		nats.Name("disaster-sim"),
		nats.MaxReconnects(5),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	if prefix == "" {
		prefix = "disaster-sim"
	}
	return &NATSBus{conn: conn, prefix: prefix}, nil
}

func (b *NATSBus) subject(topic string) string {
	return b.prefix + ".acl." + topic
}

// Publish sends the envelope on the topic's subject. Fire and forget: an
// unreachable recipient is the transport's concern, not ours.
func (b *NATSBus) Publish(topic string, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := b.conn.Publish(b.subject(topic), data); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe registers a handler for a topic. Malformed envelopes are logged
// and dropped.
func (b *NATSBus) Subscribe(topic string, handler Handler) {
	sub, err := b.conn.Subscribe(b.subject(topic), func(m *nats.Msg) {
		var msg Message
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			log.Printf("[NATSBus] Dropping malformed envelope on %s: %v", topic, err)
			return
		}
		handler(msg)
	})
	if err != nil {
		log.Printf("[NATSBus] Subscribe %s failed: %v", topic, err)
		return
	}
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
}

// Start is a no-op; the connection dispatches as soon as subscriptions
// exist. Kept so NATSBus satisfies Bus.
func (b *NATSBus) Start() {
	log.Printf("[NATSBus] Connected to %s", b.conn.ConnectedUrl())
}

// Stop drains subscriptions and closes the connection.
func (b *NATSBus) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		if err := sub.Unsubscribe(); err != nil {
			log.Printf("[NATSBus] Unsubscribe failed: %v", err)
		}
	}
	b.subs = nil
	b.conn.Close()
}
