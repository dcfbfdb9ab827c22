package wrenbase

import (
	"context"

	"github.com/sirupsen/logrus"
)

// lifecycleController starts and stops the batch processor in response to
// page-visibility transitions and performs a best-effort final flush when
// the page becomes hidden. In non-browser builds there are no transitions;
// the controller simply starts the processor on construction and leaves it
// running until cleanup.
type lifecycleController struct {
	state     *sharedState
	deliverer *deliverer
	env       environment
	logger    *logrus.Logger

	unsubscribe func()
}

// newLifecycleController wires the controller and, if analytics is
// enabled, immediately starts processing. A page that is already visible
// must not wait for its first visibility event.
func newLifecycleController(state *sharedState, d *deliverer, env environment, logger *logrus.Logger) *lifecycleController {
	lc := &lifecycleController{
		state:     state,
		deliverer: d,
		env:       env,
		logger:    logger,
	}

	if !state.analyticsConfig().Disabled {
		lc.startProcessor()
		lc.unsubscribe = env.onVisibilityChange(lc.onVisibility)
	} else {
		lc.unsubscribe = func() {}
	}
	return lc
}

// startProcessor launches the shared drain loop with the configured
// throttle and batch parameters. Idempotent across client instances
// sharing the state.
func (lc *lifecycleController) startProcessor() {
	cfg := lc.state.analyticsConfig()
	lc.state.processor.Start(lc.state, processorOptions{
		throttle:  cfg.ThrottleTime,
		batchSize: cfg.BatchSize,
		handler: func(batch []queuedEvent) error {
			return lc.deliverer.flush(context.Background(), lc.state, batch)
		},
		onError: func(err error) {
			lc.logger.WithError(err).Warn("analytics batch lost")
		},
	})
}

// onVisibility handles a page-visibility transition.
func (lc *lifecycleController) onVisibility(visible bool) {
	if visible {
		lc.startProcessor()
		return
	}

	// Hidden: stop the loop, then empty the buffer in one flush. The
	// page may be torn down at any moment, so batch-size discipline is
	// traded for not losing whatever is still queued. Waiting out the
	// worker keeps the final flush behind any delivery still in flight.
	lc.state.processor.Stop()
	lc.state.processor.wait()
	lc.flushRemainder()
}

// flushRemainder drains the entire queue and delivers it in a single
// best-effort call.
func (lc *lifecycleController) flushRemainder() {
	batch := lc.state.drainAll()
	if len(batch) == 0 {
		return
	}
	if err := lc.deliverer.flush(context.Background(), lc.state, batch); err != nil {
		lc.logger.WithError(err).Warn("final analytics flush failed")
	}
}

// cleanup unsubscribes the visibility listener and stops the drain loop.
// The underlying state is shared: disposing of any one client instance
// halts delivery for all instances sharing the registry key. Documented
// limitation, not remediated.
func (lc *lifecycleController) cleanup() {
	lc.unsubscribe()
	lc.state.processor.Stop()
	lc.state.processor.wait()
}
