package wrenbase

import (
	"time"
)

// enqueue stamps an event with intrinsic data and appends it to the tail
// of the shared queue. It reports the drop reason when the event is
// discarded instead. The call never blocks beyond the mutex and never
// fails: capacity rejection is a silent, named outcome, not an error.
func (s *sharedState) enqueue(event TrackEvent, pageURL *string) (DropReason, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config.Disabled {
		return DropDisabled, true
	}
	if len(s.queue) >= s.config.MaxQueueSize {
		return DropQueueFull, true
	}

	s.queue = append(s.queue, queuedEvent{
		event:     event,
		timestamp: time.Now(),
		pageURL:   pageURL,
	})
	return 0, false
}

// dequeueBatch removes and returns up to max events from the head of the
// queue. Removal happens before delivery is attempted, so hand-off to the
// deliverer is at-most-once: a failed batch is lost, never re-queued.
func (s *sharedState) dequeueBatch(max int) []queuedEvent {
	if max < 1 {
		max = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return nil
	}
	if max > len(s.queue) {
		max = len(s.queue)
	}

	batch := make([]queuedEvent, max)
	copy(batch, s.queue[:max])
	remaining := len(s.queue) - max
	copy(s.queue, s.queue[max:])
	s.queue = s.queue[:remaining]
	return batch
}

// drainAll removes and returns the entire queue contents in one step.
// Used by the hidden-page flush, which deliberately ignores BatchSize to
// empty the buffer before the page may be torn down.
func (s *sharedState) drainAll() []queuedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return nil
	}
	batch := s.queue
	s.queue = nil
	return batch
}

// queueLen returns the current number of pending events.
func (s *sharedState) queueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}
