// Package bus provides event bus implementations for publishing
// benchmark run events to downstream consumers.
package bus

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for event bus implementations.
type Bus interface {
	// Publish publishes an event to a topic.
	Publish(ctx context.Context, topic string, event Event) error

	// Subscribe subscribes to events on a topic.
	Subscribe(ctx context.Context, topic string, handler Handler) error

	// Close closes the bus and releases resources.
	Close() error
}

// Event represents a bus event.
type Event struct {
	// ID is the unique event identifier.
	ID string `json:"id"`

	// Type is the event type (e.g., "query.evaluated").
	Type string `json:"type"`

	// Run is the benchmark run that generated the event.
	Run string `json:"run"`

	// Timestamp is when the event was created.
	Timestamp int64 `json:"timestamp"`

	// Payload contains the event data.
	Payload any `json:"payload"`
}

// Topics for benchmark run events.
const (
	TopicQueryEvaluated = "bench.query.evaluated"
	TopicQueryFailed    = "bench.query.failed"
	TopicRunCompleted   = "bench.run.completed"
)

// NewEvent builds an event with a fresh ID and the current timestamp.
func NewEvent(eventType, run string, payload any) Event {
	return Event{
		ID:        newEventID(),
		Type:      eventType,
		Run:       run,
		Timestamp: time.Now().Unix(),
		Payload:   payload,
	}
}

func newEventID() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return fmt.Sprintf("evt-%d", time.Now().UnixNano())
	}
	return "evt-" + hex.EncodeToString(buf[:])
}
