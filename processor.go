package wrenbase

import (
	"sync"
	"time"
)

// batchHandler delivers one drained batch. Failures are logged by the
// loop and the batch is not re-queued.
type batchHandler func(batch []queuedEvent) error

// processorOptions are the loop parameters, taken from AnalyticsConfig at
// start time.
type processorOptions struct {
	throttle  time.Duration
	batchSize int
	handler   batchHandler
	onError   func(err error)
}

// batchProcessor is the single drain worker for one shared state. It is a
// two-state machine, idle or running; Start on a running processor is a
// no-op so that any number of client instances sharing the state can call
// it without ever spawning a second loop over the same queue.
type batchProcessor struct {
	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

func newBatchProcessor() *batchProcessor {
	return &batchProcessor{}
}

// Start transitions the processor to running and launches the drain loop
// on a dedicated goroutine. A single worker, rather than a pool, preserves
// the single-flight, strictly-ordered drain guarantee.
func (p *batchProcessor) Start(state *sharedState, opts processorOptions) {
	if opts.batchSize < 1 {
		opts.batchSize = 1
	}

	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	prev := p.done
	p.running = true
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	stop, done := p.stop, p.done
	p.mu.Unlock()

	go func() {
		// A rapid stop/start must not overlap two loops over the same
		// queue; wait out the previous worker before draining.
		if prev != nil {
			<-prev
		}
		p.loop(state, opts, stop, done)
	}()
}

// Stop flips the processor back to idle. The loop observes the signal at
// its next suspension point; an in-flight handler call is never
// interrupted. Stop does not wait for the loop to exit.
func (p *batchProcessor) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	close(p.stop)
}

// Running reports whether the drain loop is active.
func (p *batchProcessor) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// wait blocks until the loop goroutine has exited. Close uses it so a
// disposed client does not leave a worker behind; the hidden-page path
// uses it so the final flush never overlaps an in-flight delivery.
func (p *batchProcessor) wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

// loop drains the queue in fixed-size batches until stopped, pausing for
// the throttle interval after every iteration, including empty ones.
func (p *batchProcessor) loop(state *sharedState, opts processorOptions, stop, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-stop:
			return
		default:
		}

		// Events are removed before delivery: at-most-once hand-off.
		batch := state.dequeueBatch(opts.batchSize)
		if len(batch) > 0 {
			if err := opts.handler(batch); err != nil {
				// Best-effort telemetry: the batch is lost, the
				// loop keeps going.
				opts.onError(err)
			}
		}

		select {
		case <-stop:
			return
		case <-time.After(opts.throttle):
		}
	}
}
