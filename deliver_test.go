package wrenbase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEnv is a controllable environment for exercising the dual-transport
// logic without a browser.
type fakeEnv struct {
	mu       sync.Mutex
	page     *string
	query    string
	beaconOK bool
	beacons  [][]byte
}

func (f *fakeEnv) pageURL() *string      { return f.page }
func (f *fakeEnv) locationQuery() string { return f.query }

func (f *fakeEnv) sendBeacon(url string, payload []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.beaconOK {
		return false
	}
	f.beacons = append(f.beacons, append([]byte(nil), payload...))
	return true
}

func (f *fakeEnv) onVisibilityChange(fn func(visible bool)) func() {
	return func() {}
}

func (f *fakeEnv) sentBeacons() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.beacons...)
}

// staticSession is a SessionProvider with a fixed answer.
type staticSession struct {
	userID string
	err    error
}

func (s *staticSession) CurrentUser(ctx context.Context) (string, error) {
	return s.userID, s.err
}

// flakySession fails a configured number of times before succeeding.
type flakySession struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (s *flakySession) CurrentUser(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		return "", errors.New("auth service unavailable")
	}
	return "user-42", nil
}

// captureServer records every analytics batch POSTed to it.
type captureServer struct {
	*httptest.Server
	mu     sync.Mutex
	bodies []string
	paths  []string
}

func newCaptureServer(t *testing.T) *captureServer {
	t.Helper()
	cs := &captureServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		cs.mu.Lock()
		cs.bodies = append(cs.bodies, string(body))
		cs.paths = append(cs.paths, r.URL.Path)
		cs.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *captureServer) requests() []string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]string(nil), cs.bodies...)
}

func (cs *captureServer) requestPaths() []string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]string(nil), cs.paths...)
}

func newTestDeliverer(t *testing.T, baseURL string, env environment, provider SessionProvider) (*deliverer, *sharedState) {
	t.Helper()
	config := DefaultConfig().WithBaseURL(baseURL).WithAppID("app-1")
	require.NoError(t, config.Validate())

	transport, err := newHTTPTransport(config)
	require.NoError(t, err)

	state := testState(DefaultAnalyticsConfig())
	return &deliverer{
		transport: transport,
		env:       env,
		provider:  provider,
		observer:  &NoopObserver{},
		appID:     "app-1",
	}, state
}

func enqueueN(state *sharedState, names ...string) []queuedEvent {
	for _, name := range names {
		state.enqueue(TrackEvent{Name: name, Properties: map[string]interface{}{"n": 1}}, nil)
	}
	return state.drainAll()
}

func TestDeliverer_FallsBackToHTTPPost(t *testing.T) {
	// Fire-and-forget transport unavailable: exactly one POST per batch.
	server := newCaptureServer(t)
	env := &fakeEnv{beaconOK: false}
	d, state := newTestDeliverer(t, server.URL, env, &staticSession{userID: "user-7"})

	batch := enqueueN(state, "evt-0", "evt-1")
	require.NoError(t, d.flush(context.Background(), state, batch))

	require.Len(t, server.requests(), 1)
	assert.Equal(t, []string{"/api/apps/app-1/analytics/track/batch"}, server.requestPaths())
	assert.Empty(t, env.sentBeacons())

	var req struct {
		Events []wireEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal([]byte(server.requests()[0]), &req))
	require.Len(t, req.Events, 2)
	assert.Equal(t, "evt-0", req.Events[0].EventName)
	assert.Equal(t, "evt-1", req.Events[1].EventName)
	for _, we := range req.Events {
		assert.Equal(t, "user-7", we.UserID)
		assert.NotEmpty(t, we.Timestamp)
		assert.Nil(t, we.PageURL)
	}
}

func TestDeliverer_PrefersBeacon(t *testing.T) {
	server := newCaptureServer(t)
	page := "/reports"
	env := &fakeEnv{beaconOK: true, page: &page}
	d, state := newTestDeliverer(t, server.URL, env, &staticSession{userID: "user-7"})

	state.enqueue(TrackEvent{Name: "evt-0"}, &page)
	require.NoError(t, d.flush(context.Background(), state, state.drainAll()))

	require.Len(t, env.sentBeacons(), 1)
	assert.Empty(t, server.requests(), "a successful beacon send skips the fallback")

	// The beacon payload is the same JSON body the POST would carry.
	var req trackBatchRequest
	require.NoError(t, json.Unmarshal(env.sentBeacons()[0], &req))
	require.Len(t, req.Events, 1)
	assert.Equal(t, "evt-0", req.Events[0].EventName)
	require.NotNil(t, req.Events[0].PageURL)
	assert.Equal(t, "/reports", *req.Events[0].PageURL)
}

func TestDeliverer_OversizedPayloadSkipsBeacon(t *testing.T) {
	server := newCaptureServer(t)
	env := &fakeEnv{beaconOK: true}
	d, state := newTestDeliverer(t, server.URL, env, &staticSession{userID: "user-7"})

	state.enqueue(TrackEvent{
		Name:       "huge",
		Properties: map[string]interface{}{"blob": strings.Repeat("x", beaconPayloadLimit)},
	}, nil)
	require.NoError(t, d.flush(context.Background(), state, state.drainAll()))

	assert.Empty(t, env.sentBeacons(), "payloads over the size cap never go to the beacon")
	require.Len(t, server.requests(), 1)
}

func TestDeliverer_DeliveryFailureIsReturnedNotRetried(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"nope"}`, http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	metrics := NewMetricsCollector()
	d, state := newTestDeliverer(t, server.URL, &fakeEnv{}, &staticSession{userID: "user-7"})
	d.observer = metrics

	batch := enqueueN(state, "evt-0")
	err := d.flush(context.Background(), state, batch)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServerError)

	snapshot := metrics.Snapshot()
	assert.Equal(t, int64(1), snapshot.FailedEvents, "the failed batch is lost, not re-queued")
	assert.Equal(t, 0, state.queueLen())
}

func TestDeliverer_SessionFailureIsRetriedNextFlush(t *testing.T) {
	server := newCaptureServer(t)
	provider := &flakySession{failures: 1}
	d, state := newTestDeliverer(t, server.URL, &fakeEnv{}, provider)

	// First flush: lookup fails, batch lost, failure NOT cached.
	err := d.flush(context.Background(), state, enqueueN(state, "lost"))
	require.Error(t, err)
	state.mu.Lock()
	assert.Nil(t, state.session, "a failed lookup must not poison the cache")
	state.mu.Unlock()

	// Second flush: lookup retried and succeeds.
	require.NoError(t, d.flush(context.Background(), state, enqueueN(state, "kept")))
	require.Len(t, server.requests(), 1)

	var req trackBatchRequest
	require.NoError(t, json.Unmarshal([]byte(server.requests()[0]), &req))
	require.Len(t, req.Events, 1)
	assert.Equal(t, "kept", req.Events[0].EventName)
	assert.Equal(t, "user-42", req.Events[0].UserID)
}

func TestDeliverer_SessionResolvedOncePerState(t *testing.T) {
	server := newCaptureServer(t)
	provider := &flakySession{failures: 0}
	d, state := newTestDeliverer(t, server.URL, &fakeEnv{}, provider)

	require.NoError(t, d.flush(context.Background(), state, enqueueN(state, "a")))
	require.NoError(t, d.flush(context.Background(), state, enqueueN(state, "b")))

	provider.mu.Lock()
	defer provider.mu.Unlock()
	assert.Equal(t, 1, provider.calls, "a cached session context is reused without I/O")
}

func TestDeliverer_AnonymousVisitorWhenNoSession(t *testing.T) {
	server := newCaptureServer(t)
	d, state := newTestDeliverer(t, server.URL, &fakeEnv{}, &staticSession{err: ErrNoSession})

	require.NoError(t, d.flush(context.Background(), state, enqueueN(state, "evt-0")))
	require.NoError(t, d.flush(context.Background(), state, enqueueN(state, "evt-1")))

	require.Len(t, server.requests(), 2)
	var first, second trackBatchRequest
	require.NoError(t, json.Unmarshal([]byte(server.requests()[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(server.requests()[1]), &second))

	assert.True(t, strings.HasPrefix(first.Events[0].UserID, "anon-"))
	assert.Equal(t, first.Events[0].UserID, second.Events[0].UserID,
		"the anonymous identity is minted once and cached")
}

func TestDeliverer_EmptyBatchIsNoop(t *testing.T) {
	server := newCaptureServer(t)
	d, state := newTestDeliverer(t, server.URL, &fakeEnv{}, &staticSession{userID: "user-7"})

	require.NoError(t, d.flush(context.Background(), state, nil))
	assert.Empty(t, server.requests())
}

func TestWireEvent_Timestamps(t *testing.T) {
	qe := queuedEvent{
		event:     TrackEvent{Name: "evt"},
		timestamp: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}
	events := buildWireEvents([]queuedEvent{qe}, "user-1")
	require.Len(t, events, 1)
	assert.Equal(t, "2026-03-14T09:26:53Z", events[0].Timestamp)
}
