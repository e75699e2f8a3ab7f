package eventbus

import (
	"strconv"
	"sync"
	"sync/atomic"

	"pixelwarden/core/event"
)

// subscription represents a single event subscription.
type subscription struct {
	id      string
	handler EventHandler
	runID   string // Empty string means subscribe to all events
}

// channelEventBus is a channel-based implementation of EventBus.
type channelEventBus struct {
	eventChan     chan event.Event
	subscriptions map[string]*subscription
	mu            sync.RWMutex
	closed        atomic.Bool
	wg            sync.WaitGroup
	nextID        atomic.Uint64
}

// New creates a new EventBus with the specified buffer size.
func New(bufferSize int) EventBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}

	bus := &channelEventBus{
		eventChan:     make(chan event.Event, bufferSize),
		subscriptions: make(map[string]*subscription),
	}

	bus.wg.Add(1)
	go bus.dispatch()

	return bus
}

// Publish publishes an event to all subscribers.
func (b *channelEventBus) Publish(e event.Event) {
	if b.closed.Load() {
		return
	}

	// Non-blocking send with select to avoid blocking if buffer is full
	select {
	case b.eventChan <- e:
	default:
		// Buffer full, event dropped
	}
}

// Subscribe subscribes to all events.
func (b *channelEventBus) Subscribe(handler EventHandler) string {
	return b.subscribe("", handler)
}

// SubscribeRun subscribes to events from a specific scenario run.
func (b *channelEventBus) SubscribeRun(runID string, handler EventHandler) string {
	return b.subscribe(runID, handler)
}

func (b *channelEventBus) subscribe(runID string, handler EventHandler) string {
	id := strconv.FormatUint(b.nextID.Add(1), 10)

	b.mu.Lock()
	b.subscriptions[id] = &subscription{
		id:      id,
		handler: handler,
		runID:   runID,
	}
	b.mu.Unlock()

	return id
}

// Unsubscribe removes a subscription by its ID.
func (b *channelEventBus) Unsubscribe(subscriptionID string) {
	b.mu.Lock()
	delete(b.subscriptions, subscriptionID)
	b.mu.Unlock()
}

// Close shuts down the event bus.
func (b *channelEventBus) Close() {
	if b.closed.Swap(true) {
		return // Already closed
	}

	close(b.eventChan)
	b.wg.Wait()
}

// dispatch is the main event dispatch loop.
func (b *channelEventBus) dispatch() {
	defer b.wg.Done()

	for e := range b.eventChan {
		b.deliverEvent(e)
	}
}

// deliverEvent delivers an event to all matching subscribers.
func (b *channelEventBus) deliverEvent(e event.Event) {
	b.mu.RLock()
	// Copy subscriptions to avoid holding lock during handler execution
	subs := make([]*subscription, 0, len(b.subscriptions))
	for _, sub := range b.subscriptions {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	// Get run ID if this is a run event
	var eventRunID string
	if re, ok := e.(event.RunEvent); ok {
		eventRunID = re.RunID()
	}

	for _, sub := range subs {
		// Filter by run ID if subscription is run-specific
		if sub.runID != "" {
			if eventRunID == "" || sub.runID != eventRunID {
				continue
			}
		}

		// Call handler (catch panics to prevent one bad handler from affecting others)
		func() {
			defer func() {
				_ = recover()
			}()
			sub.handler(e)
		}()
	}
}
