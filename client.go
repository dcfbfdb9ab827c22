package wrenbase

import (
	"context"
	"fmt"
	"sync"
)

// Client is a Wrenbase platform client exposing the usage-analytics
// pipeline. All methods are safe for concurrent use.
//
// Clients created with the same AppID in the same process share one
// analytics queue and one delivery loop, so tracking from several client
// instances never duplicates flush timers or reorders events.
//
// Example:
//
//	client, err := wrenbase.NewClient(
//	    wrenbase.DefaultConfig().
//	        WithBaseURL("https://api.wrenbase.com").
//	        WithAppID("app_2f9c1"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.Track(wrenbase.TrackEvent{Name: "app_opened"})
type Client interface {
	// Track records a usage-analytics event. It never blocks on I/O and
	// never reports an outcome: telemetry is best-effort, and events
	// tracked while analytics is disabled or the queue is full are
	// silently dropped. Use an Observer to make drops visible.
	//
	// Example:
	//
	//	client.Track(wrenbase.TrackEvent{
	//	    Name:       "search_performed",
	//	    Properties: map[string]interface{}{"results": 12},
	//	})
	Track(event TrackEvent)

	// Flush drains every pending event and delivers the lot in a single
	// best-effort call, ignoring the configured batch size. The error
	// reports a lost batch; nothing is retried.
	Flush(ctx context.Context) error

	// Ping checks connectivity to the platform.
	Ping(ctx context.Context) error

	// Close unsubscribes the client from page-lifecycle notifications,
	// stops the shared delivery loop, and releases transport resources.
	// Because the pipeline state is shared, closing any one client halts
	// delivery for every client with the same AppID. Close is safe to
	// call multiple times.
	Close() error
}

// client is the concrete implementation of the Client interface
type client struct {
	config    *Config
	transport *httpTransport
	env       environment
	state     *sharedState
	deliverer *deliverer
	lifecycle *lifecycleController

	mu     sync.Mutex
	closed bool
}

// NewClient creates a new Wrenbase client with the provided configuration.
// If config is nil, default configuration values are used, though a real
// application must at least set an AppID.
//
// Construction wires the analytics pipeline: the shared state for the
// AppID is claimed (or joined), load-time configuration overrides from the
// page URL are applied, and if analytics is enabled the delivery loop
// starts immediately.
func NewClient(config *Config) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	transport, err := newHTTPTransport(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	env := newEnvironment()
	analytics := parseAnalyticsOverride(config.Analytics, env.locationQuery())

	state := config.Registry.getOrCreate(config.AppID, func() *sharedState {
		return newSharedState(analytics)
	})

	provider := config.SessionProvider
	if provider == nil {
		provider = &platformSession{transport: transport, appID: config.AppID}
	}

	d := &deliverer{
		transport: transport,
		env:       env,
		provider:  provider,
		observer:  config.Observer,
		appID:     config.AppID,
	}

	return &client{
		config:    config,
		transport: transport,
		env:       env,
		state:     state,
		deliverer: d,
		lifecycle: newLifecycleController(state, d, env, config.Logger),
	}, nil
}

// Track stamps the event with the current time and page and appends it to
// the shared queue, or drops it silently when analytics is disabled or the
// queue is at capacity.
func (c *client) Track(event TrackEvent) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}

	if reason, dropped := c.state.enqueue(event, c.env.pageURL()); dropped {
		c.config.Observer.OnEventDropped(event.Name, reason)
		return
	}
	c.config.Observer.OnEventEnqueued(event.Name)
}

// Flush drains the whole queue and delivers it at once, the same routine
// the hidden-page transition uses.
func (c *client) Flush(ctx context.Context) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	return c.deliverer.flush(ctx, c.state, c.state.drainAll())
}

// Ping checks connectivity to the platform
func (c *client) Ping(ctx context.Context) error {
	if err := c.checkClosed(); err != nil {
		return err
	}

	var resp struct {
		Status string `json:"status"`
	}
	if err := c.transport.get(ctx, "/health", &resp); err != nil {
		return err
	}
	if resp.Status != "healthy" {
		return fmt.Errorf("server is not healthy: %s", resp.Status)
	}
	return nil
}

// Close tears the client down
func (c *client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	c.lifecycle.cleanup()
	return c.transport.close()
}

// checkClosed checks if the client is closed
func (c *client) checkClosed() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClientClosed
	}
	return nil
}
