// Package events provides the event system mirroring synthesis progress to
// connected web UI clients.
package events

import (
	"fmt"
	"sync"
	"time"
)

// UIEvent represents an event forwarded to web UI clients.
type UIEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Common event types
const (
	EventTypeRunStarted   = "run_started"
	EventTypeIteration    = "iteration"
	EventTypeRunCompleted = "run_completed"
	EventTypeRunCancelled = "run_cancelled"
	EventTypeRunFailed    = "run_failed"
	EventTypeError        = "error"
)

// EventBus manages event distribution to subscribers.
type EventBus struct {
	subscribers map[string]chan UIEvent
	mutex       sync.RWMutex
	nextID      int64
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string]chan UIEvent),
	}
}

// Subscribe adds a new subscriber to the event bus.
func (eb *EventBus) Subscribe(name string) <-chan UIEvent {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	ch := make(chan UIEvent, 100) // Buffered channel
	eb.subscribers[name] = ch
	return ch
}

// Unsubscribe removes a subscriber from the event bus.
func (eb *EventBus) Unsubscribe(name string) {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	if ch, exists := eb.subscribers[name]; exists {
		delete(eb.subscribers, name)
		close(ch)
	}
}

// Publish broadcasts an event to all subscribers.
func (eb *EventBus) Publish(eventType string, data any) {
	eb.mutex.Lock()
	eb.nextID++
	event := UIEvent{
		ID:        generateEventID(eb.nextID),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
	subscribers := make([]chan UIEvent, 0, len(eb.subscribers))
	for _, ch := range eb.subscribers {
		subscribers = append(subscribers, ch)
	}
	eb.mutex.Unlock()

	// Publish to all subscribers without holding the lock
	for _, ch := range subscribers {
		select {
		case ch <- event:
		default:
			// Channel is full, skip this subscriber
			// This prevents blocking if a subscriber is slow
		}
	}
}

// generateEventID creates a unique event ID.
func generateEventID(id int64) string {
	return fmt.Sprintf("%s-%d", time.Now().Format("20060102-150405"), id)
}

// Helper functions for creating specific event types

// RunStartedEvent creates a run started event.
func RunStartedEvent(runID, taskDescription string, positiveCount, negativeCount int) map[string]interface{} {
	return map[string]interface{}{
		"run_id":         runID,
		"task":           taskDescription,
		"positive_count": positiveCount,
		"negative_count": negativeCount,
	}
}

// IterationEvent creates an iteration progress event.
func IterationEvent(runID string, iteration int, expression string, passedCount, totalCount int) map[string]interface{} {
	return map[string]interface{}{
		"run_id":      runID,
		"iteration":   iteration,
		"expression":  expression,
		"passed":      passedCount,
		"total":       totalCount,
		"all_passing": passedCount == totalCount,
	}
}

// RunCompletedEvent creates a run completed event.
func RunCompletedEvent(runID, expression string, iterations int, duration time.Duration) map[string]interface{} {
	return map[string]interface{}{
		"run_id":      runID,
		"expression":  expression,
		"iterations":  iterations,
		"duration_ms": duration.Milliseconds(),
	}
}

// RunCancelledEvent creates a run cancelled event.
func RunCancelledEvent(runID string, iterations int) map[string]interface{} {
	return map[string]interface{}{
		"run_id":     runID,
		"iterations": iterations,
	}
}

// RunFailedEvent creates a run failed event.
func RunFailedEvent(runID string, err error) map[string]interface{} {
	return map[string]interface{}{
		"run_id": runID,
		"error":  err.Error(),
	}
}

// ErrorEvent creates an error event.
func ErrorEvent(message string, err error) map[string]interface{} {
	return map[string]interface{}{
		"message": message,
		"error":   err.Error(),
	}
}
