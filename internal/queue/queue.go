package queue

import (
	"context"
	"fmt"

	"github.com/glimpse-app/glimpse/internal/logger"
	"github.com/glimpse-app/glimpse/pkg/models"
)

const defaultCapacity = 1000

// EventQueue is the bounded FIFO between SubmitEvent and the engine's event
// loop. Enqueue is non-blocking: when the buffer is full the oldest pending
// event is dropped, mirroring the drop-oldest policy of the context rings.
type EventQueue struct {
	queue    chan models.Event
	capacity int
	stopChan chan struct{}
}

// NewEventQueue creates a queue with the given capacity (default 1000).
func NewEventQueue(capacity int) *EventQueue {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &EventQueue{
		queue:    make(chan models.Event, capacity),
		capacity: capacity,
		stopChan: make(chan struct{}),
	}
}

// Enqueue adds an event, dropping the oldest pending event when full.
// Returns an error only if the queue has been stopped.
func (eq *EventQueue) Enqueue(event models.Event) error {
	select {
	case <-eq.stopChan:
		return fmt.Errorf("event queue is stopped, cannot enqueue %s event", event.Type)
	default:
	}

	for {
		select {
		case eq.queue <- event:
			return nil
		default:
			// Full: drop the oldest and retry.
			select {
			case dropped := <-eq.queue:
				logger.L().Warn("Event queue full, dropping oldest event", "dropped_type", dropped.Type)
			default:
			}
		}
	}
}

// Dequeue retrieves the next event, blocking until one is available, the
// context is cancelled, or the queue is stopped and drained.
func (eq *EventQueue) Dequeue(ctx context.Context) (models.Event, error) {
	select {
	case event := <-eq.queue:
		return event, nil
	case <-ctx.Done():
		return models.Event{}, ctx.Err()
	case <-eq.stopChan:
		// Drain anything enqueued before the stop signal.
		select {
		case event := <-eq.queue:
			return event, nil
		default:
			return models.Event{}, ErrStopped
		}
	}
}

// ErrStopped is returned by Dequeue once the queue is stopped and empty.
var ErrStopped = fmt.Errorf("event queue stopped")

// Len reports the number of pending events.
func (eq *EventQueue) Len() int {
	return len(eq.queue)
}

// Stop signals the queue to reject new events. Pending events remain
// dequeueable until drained.
func (eq *EventQueue) Stop() {
	select {
	case <-eq.stopChan:
		return
	default:
		close(eq.stopChan)
	}
}
