package wrenbase

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testState(config AnalyticsConfig) *sharedState {
	config.normalize()
	return newSharedState(config)
}

func TestEnqueue_BoundedQueue(t *testing.T) {
	// Scenario: capacity 3, five events tracked with nothing draining.
	state := testState(AnalyticsConfig{MaxQueueSize: 3})

	var drops []DropReason
	for i := 0; i < 5; i++ {
		if reason, dropped := state.enqueue(TrackEvent{Name: fmt.Sprintf("evt-%d", i)}, nil); dropped {
			drops = append(drops, reason)
		}
	}

	assert.Equal(t, 3, state.queueLen(), "queue length must stabilize at capacity")
	require.Len(t, drops, 2, "the 4th and 5th events are dropped")
	assert.Equal(t, []DropReason{DropQueueFull, DropQueueFull}, drops)

	// The survivors are the first three, in order.
	batch := state.drainAll()
	require.Len(t, batch, 3)
	for i, qe := range batch {
		assert.Equal(t, fmt.Sprintf("evt-%d", i), qe.event.Name)
	}
}

func TestEnqueue_DisabledShortCircuit(t *testing.T) {
	state := testState(AnalyticsConfig{Disabled: true, MaxQueueSize: 100})

	for i := 0; i < 10; i++ {
		reason, dropped := state.enqueue(TrackEvent{Name: "ignored"}, nil)
		assert.True(t, dropped)
		assert.Equal(t, DropDisabled, reason)
	}
	assert.Equal(t, 0, state.queueLen())
}

func TestEnqueue_StampsIntrinsicDataAtEnqueueTime(t *testing.T) {
	state := testState(DefaultAnalyticsConfig())
	page := "/dashboard"

	before := time.Now()
	state.enqueue(TrackEvent{Name: "page_view"}, &page)
	after := time.Now()

	batch := state.drainAll()
	require.Len(t, batch, 1)
	qe := batch[0]

	assert.False(t, qe.timestamp.Before(before))
	assert.False(t, qe.timestamp.After(after))
	require.NotNil(t, qe.pageURL)
	assert.Equal(t, "/dashboard", *qe.pageURL)
}

func TestDequeueBatch_FIFOAndRemoval(t *testing.T) {
	state := testState(DefaultAnalyticsConfig())
	for i := 0; i < 5; i++ {
		state.enqueue(TrackEvent{Name: fmt.Sprintf("evt-%d", i)}, nil)
	}

	// Events are removed at dequeue time, before any delivery attempt.
	batch := state.dequeueBatch(2)
	require.Len(t, batch, 2)
	assert.Equal(t, 3, state.queueLen())
	assert.Equal(t, "evt-0", batch[0].event.Name)
	assert.Equal(t, "evt-1", batch[1].event.Name)

	batch = state.dequeueBatch(2)
	require.Len(t, batch, 2)
	assert.Equal(t, "evt-2", batch[0].event.Name)
	assert.Equal(t, "evt-3", batch[1].event.Name)

	// Final partial batch.
	batch = state.dequeueBatch(2)
	require.Len(t, batch, 1)
	assert.Equal(t, "evt-4", batch[0].event.Name)
	assert.Equal(t, 0, state.queueLen())

	assert.Nil(t, state.dequeueBatch(2), "empty queue yields no batch")
}

func TestDequeueBatch_CoercesNonPositiveMax(t *testing.T) {
	state := testState(DefaultAnalyticsConfig())
	state.enqueue(TrackEvent{Name: "evt-0"}, nil)
	state.enqueue(TrackEvent{Name: "evt-1"}, nil)

	batch := state.dequeueBatch(0)
	require.Len(t, batch, 1, "a non-positive batch size drains one event, never everything and never nothing")

	batch = state.dequeueBatch(-3)
	require.Len(t, batch, 1)
	assert.Equal(t, "evt-1", batch[0].event.Name)
}

func TestDrainAll_EmptiesQueueInOneStep(t *testing.T) {
	state := testState(DefaultAnalyticsConfig())
	for i := 0; i < 7; i++ {
		state.enqueue(TrackEvent{Name: fmt.Sprintf("evt-%d", i)}, nil)
	}

	batch := state.drainAll()
	assert.Len(t, batch, 7)
	assert.Equal(t, 0, state.queueLen())
	assert.Nil(t, state.drainAll())
}
