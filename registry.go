package wrenbase

import (
	"sync"
)

// StateRegistry is a name-keyed store of shared analytics state. Multiple
// independently constructed clients that resolve the same name through the
// same registry observe and mutate one queue, one cached session context,
// and one batch processor, so no app ever runs duplicate drain loops.
//
// The registry is an explicit object rather than hidden package state so it
// can be injected and reset in tests; a process-wide default instance backs
// clients that do not supply their own.
type StateRegistry struct {
	mu     sync.Mutex
	states map[string]*sharedState
}

// defaultRegistry backs all clients that do not configure their own
// registry. It lives for the process lifetime and is never torn down.
var defaultRegistry = NewStateRegistry()

// NewStateRegistry creates an empty registry. Production code rarely needs
// one; tests use it to isolate shared state between cases.
func NewStateRegistry() *StateRegistry {
	return &StateRegistry{states: make(map[string]*sharedState)}
}

// getOrCreate returns the state stored under name, invoking factory to
// build it on first access. Every later call for the same name returns the
// identical state regardless of the factory passed.
func (r *StateRegistry) getOrCreate(name string, factory func() *sharedState) *sharedState {
	r.mu.Lock()
	defer r.mu.Unlock()

	if state, ok := r.states[name]; ok {
		return state
	}
	state := factory()
	r.states[name] = state
	r.states[name].name = name
	return state
}

// Reset clears the mutable fields of the state stored under name without
// destroying the registry entry, so live clients keep pointing at the same
// object. The configuration the state was created with is retained: a
// reset between test cases must not change throttle or batch parameters
// under clients still sharing the state. Intended for tests only.
func (r *StateRegistry) Reset(name string) {
	r.mu.Lock()
	state, ok := r.states[name]
	r.mu.Unlock()
	if !ok {
		return
	}

	state.mu.Lock()
	state.queue = nil
	state.session = nil
	state.mu.Unlock()
}

// sharedState is the per-name singleton shared by every client instance
// resolving the same registry key. All fields are guarded by mu except the
// processor, which carries its own synchronization.
type sharedState struct {
	name string

	mu      sync.Mutex
	queue   []queuedEvent
	session *sessionContext
	config  AnalyticsConfig

	processor *batchProcessor
}

// newSharedState builds the state for a registry key from the analytics
// configuration of the first client to claim it.
func newSharedState(config AnalyticsConfig) *sharedState {
	return &sharedState{
		config:    config,
		processor: newBatchProcessor(),
	}
}

// analyticsConfig returns a snapshot of the pipeline configuration.
func (s *sharedState) analyticsConfig() AnalyticsConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}
