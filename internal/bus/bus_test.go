package bus

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lawbench/law-bench/internal/config"
	apperrors "github.com/lawbench/law-bench/internal/pkg/errors"
)

func TestMemoryBus_PublishSubscribe(t *testing.T) {
	bus := NewMemoryBus(nil)
	defer bus.Close()

	var received atomic.Int32
	var wg sync.WaitGroup

	err := bus.Subscribe(context.Background(), TopicQueryEvaluated, func(ctx context.Context, event Event) error {
		received.Add(1)
		wg.Done()
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	wg.Add(3)
	for i := 0; i < 3; i++ {
		event := NewEvent("query.evaluated", "run-1", map[string]any{"query_id": i})
		if err := bus.Publish(context.Background(), TopicQueryEvaluated, event); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for handlers")
	}

	if got := received.Load(); got != 3 {
		t.Errorf("received = %d, want 3", got)
	}
}

func TestMemoryBus_NoSubscribers(t *testing.T) {
	bus := NewMemoryBus(nil)
	defer bus.Close()

	// Publishing with no subscribers is not an error.
	err := bus.Publish(context.Background(), TopicRunCompleted, NewEvent("run.completed", "run-1", nil))
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
}

func TestMemoryBus_ClosedBusRejects(t *testing.T) {
	bus := NewMemoryBus(nil)
	bus.Close()

	if err := bus.Publish(context.Background(), TopicQueryFailed, Event{}); err == nil {
		t.Error("Publish() on closed bus should fail")
	}
	err := bus.Subscribe(context.Background(), TopicQueryFailed, func(context.Context, Event) error { return nil })
	if err == nil {
		t.Error("Subscribe() on closed bus should fail")
	}
}

func TestMemoryBus_FanOut(t *testing.T) {
	bus := NewMemoryBus(nil)
	defer bus.Close()

	var first, second atomic.Int32
	var wg sync.WaitGroup

	bus.Subscribe(context.Background(), TopicQueryFailed, func(context.Context, Event) error {
		first.Add(1)
		wg.Done()
		return nil
	})
	bus.Subscribe(context.Background(), TopicQueryFailed, func(context.Context, Event) error {
		second.Add(1)
		wg.Done()
		return nil
	})

	wg.Add(2)
	if err := bus.Publish(context.Background(), TopicQueryFailed, NewEvent("query.failed", "run-1", nil)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if !bus.DrainTimeout(2 * time.Second) {
		t.Fatal("handlers did not drain")
	}
	wg.Wait()

	if first.Load() != 1 || second.Load() != 1 {
		t.Errorf("fan-out counts = %d, %d, want 1, 1", first.Load(), second.Load())
	}
}

func TestFactoryBusDeliversEvents(t *testing.T) {
	b, err := NewBus(config.BusConfig{Type: "memory"}, nil)
	if err != nil {
		t.Fatalf("NewBus() error = %v", err)
	}
	defer b.Close()

	got := make(chan Event, 1)
	err = b.Subscribe(context.Background(), TopicRunCompleted, func(_ context.Context, e Event) error {
		got <- e
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	sent := NewEvent("run.completed", "nightly", map[string]any{"queries": 12})
	if err := b.Publish(context.Background(), TopicRunCompleted, sent); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case e := <-got:
		if e.ID != sent.ID || e.Run != "nightly" {
			t.Errorf("delivered event = %+v, want %+v", e, sent)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestNewEventFields(t *testing.T) {
	e := NewEvent("run.completed", "nightly", map[string]int{"queries": 10})
	if e.ID == "" {
		t.Error("event ID should be set")
	}
	if e.Type != "run.completed" || e.Run != "nightly" {
		t.Errorf("event = %+v", e)
	}
	if e.Timestamp == 0 {
		t.Error("timestamp should be set")
	}
	if e2 := NewEvent("run.completed", "nightly", nil); e2.ID == e.ID {
		t.Error("event IDs should be unique")
	}
}

func TestNewBusFactory(t *testing.T) {
	b, err := NewBus(config.BusConfig{Type: "memory"}, nil)
	if err != nil {
		t.Fatalf("NewBus(memory) error = %v", err)
	}
	if _, ok := b.(*MemoryBus); !ok {
		t.Errorf("NewBus(memory) = %T", b)
	}
	b.Close()

	b, err = NewBus(config.BusConfig{Type: "none"}, nil)
	if err != nil {
		t.Fatalf("NewBus(none) error = %v", err)
	}
	if _, ok := b.(*NoopBus); !ok {
		t.Errorf("NewBus(none) = %T", b)
	}

	_, err = NewBus(config.BusConfig{Type: "kafka"}, nil)
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Errorf("NewBus(kafka, no brokers) error = %v, want validation error", err)
	}

	_, err = NewBus(config.BusConfig{Type: "carrier-pigeon"}, nil)
	if !apperrors.IsCode(err, apperrors.CodeValidation) {
		t.Errorf("NewBus(unknown) error = %v, want validation error", err)
	}
}
