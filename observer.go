package wrenbase

import (
	"sync"
	"time"
)

// Observer provides hooks for monitoring the analytics pipeline.
// Implement this interface to track drop rates, delivery latencies, or to
// assert on silent-drop outcomes in tests.
//
// Observer methods are called from Track and from the drain worker; they
// should be fast and non-blocking.
//
// Example implementation:
//
//	type LogObserver struct{ logger *log.Logger }
//
//	func (o *LogObserver) OnEventDropped(name string, reason wrenbase.DropReason) {
//	    o.logger.Printf("dropped %s: %s", name, reason)
//	}
type Observer interface {
	// OnEventEnqueued is called when Track accepts an event into the queue.
	OnEventEnqueued(name string)

	// OnEventDropped is called when Track discards an event. The reason
	// names the backpressure outcome that would otherwise be invisible.
	OnEventDropped(name string, reason DropReason)

	// OnBatchDelivered is called after every delivery attempt.
	//
	// Parameters:
	//   - size: number of events in the batch
	//   - transport: "beacon" or "http"
	//   - duration: time taken by the attempt
	//   - err: nil on success; on failure the batch is permanently lost
	OnBatchDelivered(size int, transport string, duration time.Duration, err error)
}

// NoopObserver is a no-op implementation of Observer. It is the default
// observer used when none is configured.
type NoopObserver struct{}

// OnEventEnqueued does nothing
func (n *NoopObserver) OnEventEnqueued(name string) {}

// OnEventDropped does nothing
func (n *NoopObserver) OnEventDropped(name string, reason DropReason) {}

// OnBatchDelivered does nothing
func (n *NoopObserver) OnBatchDelivered(size int, transport string, duration time.Duration, err error) {
}

// MetricsCollector is a simple in-memory Observer implementation that
// counts pipeline outcomes. It is primarily intended for debugging and
// testing; for production monitoring, implement Observer against your own
// metrics system.
//
// Example:
//
//	metrics := wrenbase.NewMetricsCollector()
//	config := wrenbase.DefaultConfig().WithObserver(metrics)
//
//	// later
//	snapshot := metrics.Snapshot()
//	fmt.Printf("dropped: %v\n", snapshot.Dropped)
type MetricsCollector struct {
	mu        sync.Mutex
	enqueued  int64
	dropped   map[DropReason]int64
	delivered int64
	failed    int64
	batches   []int
}

// MetricsSnapshot is a point-in-time copy of collected counters.
type MetricsSnapshot struct {
	// Enqueued is the number of events accepted into the queue.
	Enqueued int64
	// Dropped maps each drop reason to the number of discarded events.
	Dropped map[DropReason]int64
	// DeliveredEvents is the number of events in successful batches.
	DeliveredEvents int64
	// FailedEvents is the number of events permanently lost to delivery
	// failures.
	FailedEvents int64
	// BatchSizes lists the size of every delivery attempt in order.
	BatchSizes []int
}

// NewMetricsCollector creates a collector ready to be passed to
// Config.WithObserver. It is safe for concurrent use.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{dropped: make(map[DropReason]int64)}
}

// OnEventEnqueued increments the enqueue counter
func (m *MetricsCollector) OnEventEnqueued(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enqueued++
}

// OnEventDropped counts the drop under its reason
func (m *MetricsCollector) OnEventDropped(name string, reason DropReason) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped[reason]++
}

// OnBatchDelivered records the attempt size and outcome
func (m *MetricsCollector) OnBatchDelivered(size int, transport string, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, size)
	if err != nil {
		m.failed += int64(size)
	} else {
		m.delivered += int64(size)
	}
}

// Snapshot returns a copy of the current counters, safe to read without
// further synchronization.
func (m *MetricsCollector) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := make(map[DropReason]int64, len(m.dropped))
	for reason, count := range m.dropped {
		dropped[reason] = count
	}
	return MetricsSnapshot{
		Enqueued:        m.enqueued,
		Dropped:         dropped,
		DeliveredEvents: m.delivered,
		FailedEvents:    m.failed,
		BatchSizes:      append([]int(nil), m.batches...),
	}
}

// CompositeObserver fans notifications out to multiple observers in order.
// A panicking observer is caught so it cannot affect the others or the
// pipeline itself.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an observer that delegates to multiple
// observers, e.g. a logging observer alongside a MetricsCollector.
func NewCompositeObserver(observers ...Observer) Observer {
	return &CompositeObserver{observers: observers}
}

// OnEventEnqueued notifies all observers
func (c *CompositeObserver) OnEventEnqueued(name string) {
	for _, obs := range c.observers {
		safeNotify(func() { obs.OnEventEnqueued(name) })
	}
}

// OnEventDropped notifies all observers
func (c *CompositeObserver) OnEventDropped(name string, reason DropReason) {
	for _, obs := range c.observers {
		safeNotify(func() { obs.OnEventDropped(name, reason) })
	}
}

// OnBatchDelivered notifies all observers
func (c *CompositeObserver) OnBatchDelivered(size int, transport string, duration time.Duration, err error) {
	for _, obs := range c.observers {
		safeNotify(func() { obs.OnBatchDelivered(size, transport, duration, err) })
	}
}

func safeNotify(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			// Observer panicked, ignore
		}
	}()
	fn()
}
