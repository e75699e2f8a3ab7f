package eventbus

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pixelwarden/core/event"
)

// mockEvent is a simple event for testing.
type mockEvent struct {
	name string
}

func (e *mockEvent) EventName() string {
	return e.name
}

// mockRunEvent is a run event for testing.
type mockRunEvent struct {
	name  string
	runID string
}

func (e *mockRunEvent) EventName() string {
	return e.name
}

func (e *mockRunEvent) RunID() string {
	return e.runID
}

func waitFor(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for event delivery")
	}
}

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := New(10)
	defer bus.Close()

	var received atomic.Int32
	var wg sync.WaitGroup
	wg.Add(1)

	bus.Subscribe(func(e event.Event) {
		received.Add(1)
		wg.Done()
	})

	bus.Publish(&mockEvent{name: "test"})
	waitFor(t, &wg)

	if received.Load() != 1 {
		t.Errorf("Expected 1 event, got %d", received.Load())
	}
}

func TestEventBus_MultipleSubscribers(t *testing.T) {
	bus := New(10)
	defer bus.Close()

	var received atomic.Int32
	var wg sync.WaitGroup
	wg.Add(3)

	for i := 0; i < 3; i++ {
		bus.Subscribe(func(e event.Event) {
			received.Add(1)
			wg.Done()
		})
	}

	bus.Publish(&mockEvent{name: "test"})
	waitFor(t, &wg)

	if received.Load() != 3 {
		t.Errorf("Expected 3 deliveries, got %d", received.Load())
	}
}

func TestEventBus_RunFiltering(t *testing.T) {
	bus := New(10)
	defer bus.Close()

	var matched, other atomic.Int32
	var wg sync.WaitGroup
	wg.Add(1)

	bus.SubscribeRun("run-1", func(e event.Event) {
		matched.Add(1)
		wg.Done()
	})
	bus.SubscribeRun("run-2", func(e event.Event) {
		other.Add(1)
	})

	bus.Publish(&mockRunEvent{name: "test", runID: "run-1"})
	// Non-run events never reach run-scoped subscribers.
	bus.Publish(&mockEvent{name: "global"})
	waitFor(t, &wg)

	if matched.Load() != 1 {
		t.Errorf("run-1 subscriber received %d events, want 1", matched.Load())
	}
	if other.Load() != 0 {
		t.Errorf("run-2 subscriber received %d events, want 0", other.Load())
	}
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := New(10)
	defer bus.Close()

	var received atomic.Int32
	id := bus.Subscribe(func(e event.Event) {
		received.Add(1)
	})
	bus.Unsubscribe(id)

	bus.Publish(&mockEvent{name: "test"})
	time.Sleep(50 * time.Millisecond)

	if received.Load() != 0 {
		t.Errorf("Expected 0 events after unsubscribe, got %d", received.Load())
	}
}

func TestEventBus_PublishAfterClose(t *testing.T) {
	bus := New(10)

	var received atomic.Int32
	bus.Subscribe(func(e event.Event) {
		received.Add(1)
	})

	bus.Close()

	// Must be a no-op, not a panic.
	bus.Publish(&mockEvent{name: "test"})

	if received.Load() != 0 {
		t.Errorf("Expected 0 events after close, got %d", received.Load())
	}
}

func TestEventBus_PanickingHandler(t *testing.T) {
	bus := New(10)
	defer bus.Close()

	var received atomic.Int32
	var wg sync.WaitGroup
	wg.Add(1)

	bus.Subscribe(func(e event.Event) {
		panic("bad handler")
	})
	bus.Subscribe(func(e event.Event) {
		received.Add(1)
		wg.Done()
	})

	bus.Publish(&mockEvent{name: "test"})
	waitFor(t, &wg)

	if received.Load() != 1 {
		t.Error("A panicking handler must not affect other subscribers")
	}
}
