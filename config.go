package wrenbase

import (
	"encoding/json"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds the configuration for the Wrenbase client.
// All fields except BaseURL and AppID are optional and have sensible
// defaults.
//
// Configuration can be built using the fluent builder pattern:
//
//	config := wrenbase.DefaultConfig().
//	    WithBaseURL("https://api.wrenbase.com").
//	    WithAppID("app_2f9c1").
//	    WithAPIKey(os.Getenv("WRENBASE_KEY")).
//	    WithAnalytics(wrenbase.AnalyticsConfig{BatchSize: 50})
//
//	client, err := wrenbase.NewClient(config)
type Config struct {
	// BaseURL is the base URL of the Wrenbase platform.
	// Default: "http://localhost:8080"
	BaseURL string

	// AppID identifies the application on the platform. Required.
	AppID string

	// APIKey is the client key sent with every request, if set.
	APIKey string

	// Timeout is the HTTP request timeout for the reliable transport.
	// Default: 30s
	Timeout time.Duration

	// Headers are custom headers to include in all requests.
	Headers map[string]string

	// Analytics configures the usage-analytics event pipeline.
	Analytics AnalyticsConfig

	// SessionProvider resolves the current user identity attached to
	// outgoing analytics events. If nil, the platform's own session
	// endpoint is used.
	SessionProvider SessionProvider

	// Observer receives pipeline notifications (enqueues, drops,
	// deliveries). If nil, NoopObserver is used.
	Observer Observer

	// Logger is the structured logger used for internal diagnostics.
	// If nil, a JSON logger at Warn level is used so the telemetry
	// pipeline stays quiet by default.
	Logger *logrus.Logger

	// Registry is the shared-state registry keyed by AppID. All clients
	// resolving the same name through the same registry share one event
	// queue and one batch processor. If nil, the process-wide default
	// registry is used.
	Registry *StateRegistry
}

// AnalyticsConfig controls the usage-analytics event pipeline.
//
// In browser builds the configuration can be overridden at load time by an
// "analytics" query parameter carrying a JSON blob with the same fields;
// malformed or missing overrides are ignored and the defaults apply.
type AnalyticsConfig struct {
	// Disabled turns the pipeline off, making Track a no-op. The zero
	// value is enabled, the platform default, so a zero AnalyticsConfig
	// means "enabled with defaults" and never silently re-enables a
	// pipeline the caller turned off.
	Disabled bool `json:"-"`

	// MaxQueueSize bounds the pending-event queue. Events tracked while
	// the queue is full are dropped silently.
	// Default: 1000
	MaxQueueSize int `json:"maxQueueSize"`

	// ThrottleTime is the pause between drain iterations. In the JSON
	// override blob this is the "throttleTime" field, in milliseconds.
	// Default: 1s
	ThrottleTime time.Duration `json:"-"`

	// BatchSize is the maximum number of events delivered per request.
	// Default: 30
	BatchSize int `json:"batchSize"`
}

// UnmarshalJSON applies a partial override blob on top of the current
// values. Absent fields keep their existing settings; throttleTime is
// expressed in milliseconds on the wire.
func (a *AnalyticsConfig) UnmarshalJSON(data []byte) error {
	var blob struct {
		Enabled      *bool `json:"enabled"`
		MaxQueueSize *int  `json:"maxQueueSize"`
		ThrottleTime *int  `json:"throttleTime"`
		BatchSize    *int  `json:"batchSize"`
	}
	if err := json.Unmarshal(data, &blob); err != nil {
		return err
	}
	if blob.Enabled != nil {
		// The wire field is "enabled"; the struct keeps the inverted
		// flag so its zero value matches the platform default.
		a.Disabled = !*blob.Enabled
	}
	if blob.MaxQueueSize != nil {
		a.MaxQueueSize = *blob.MaxQueueSize
	}
	if blob.ThrottleTime != nil {
		a.ThrottleTime = time.Duration(*blob.ThrottleTime) * time.Millisecond
	}
	if blob.BatchSize != nil {
		a.BatchSize = *blob.BatchSize
	}
	return nil
}

// DefaultAnalyticsConfig returns the default pipeline configuration:
// enabled, queue bounded at 1000 events, one-second throttle, batches of 30.
func DefaultAnalyticsConfig() AnalyticsConfig {
	return AnalyticsConfig{
		MaxQueueSize: 1000,
		ThrottleTime: time.Second,
		BatchSize:    30,
	}
}

// DefaultConfig returns a Config with sensible defaults suitable for most
// use cases.
//
// Example:
//
//	config := wrenbase.DefaultConfig().WithAppID("app_2f9c1")
//	client, err := wrenbase.NewClient(config)
func DefaultConfig() *Config {
	return &Config{
		BaseURL:   "http://localhost:8080",
		Timeout:   30 * time.Second,
		Headers:   make(map[string]string),
		Analytics: DefaultAnalyticsConfig(),
	}
}

// WithBaseURL sets the base URL of the Wrenbase platform.
func (c *Config) WithBaseURL(url string) *Config {
	c.BaseURL = url
	return c
}

// WithAppID sets the application identifier.
func (c *Config) WithAppID(appID string) *Config {
	c.AppID = appID
	return c
}

// WithAPIKey sets the client key sent with every request.
func (c *Config) WithAPIKey(key string) *Config {
	c.APIKey = key
	return c
}

// WithTimeout sets the request timeout for the reliable transport.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithHeader adds a custom header to be sent with all requests.
func (c *Config) WithHeader(key, value string) *Config {
	if c.Headers == nil {
		c.Headers = make(map[string]string)
	}
	c.Headers[key] = value
	return c
}

// WithAnalytics replaces the analytics pipeline configuration.
// Zero-valued fields are coerced back to defaults by Validate.
//
// Example:
//
//	config := wrenbase.DefaultConfig().
//	    WithAnalytics(wrenbase.AnalyticsConfig{
//	        MaxQueueSize: 500,
//	        ThrottleTime: 2 * time.Second,
//	        BatchSize:    50,
//	    })
func (c *Config) WithAnalytics(analytics AnalyticsConfig) *Config {
	c.Analytics = analytics
	return c
}

// WithSessionProvider sets a custom identity resolver for analytics events.
func (c *Config) WithSessionProvider(provider SessionProvider) *Config {
	c.SessionProvider = provider
	return c
}

// WithObserver sets a custom observer for monitoring pipeline operations.
//
// Example:
//
//	metrics := wrenbase.NewMetricsCollector()
//	config := wrenbase.DefaultConfig().WithObserver(metrics)
func (c *Config) WithObserver(observer Observer) *Config {
	c.Observer = observer
	return c
}

// WithLogger sets the structured logger used for internal diagnostics.
func (c *Config) WithLogger(logger *logrus.Logger) *Config {
	c.Logger = logger
	return c
}

// WithRegistry sets the shared-state registry. Mostly useful in tests that
// need isolation from the process-wide default registry.
func (c *Config) WithRegistry(registry *StateRegistry) *Config {
	c.Registry = registry
	return c
}

// Validate validates the configuration and sets defaults for missing
// values. This is called automatically by NewClient.
func (c *Config) Validate() error {
	if c.BaseURL == "" || c.AppID == "" {
		return ErrInvalidConfig
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Headers == nil {
		c.Headers = make(map[string]string)
	}
	if c.Observer == nil {
		c.Observer = &NoopObserver{}
	}
	if c.Logger == nil {
		c.Logger = newDefaultLogger()
	}
	if c.Registry == nil {
		c.Registry = defaultRegistry
	}
	c.Analytics.normalize()
	return nil
}

// normalize coerces out-of-range analytics settings back to defaults.
// BatchSize in particular must end up >= 1 or the drain loop would spin
// without ever emptying the queue.
func (a *AnalyticsConfig) normalize() {
	if a.MaxQueueSize <= 0 {
		a.MaxQueueSize = 1000
	}
	if a.ThrottleTime <= 0 {
		a.ThrottleTime = time.Second
	}
	if a.BatchSize < 1 {
		a.BatchSize = 30
	}
}

// parseAnalyticsOverride applies an "analytics" query parameter found in
// rawQuery on top of base. The parameter value is a JSON blob matching
// AnalyticsConfig fields. A missing parameter or malformed JSON leaves
// base untouched; the override is best-effort by design.
func parseAnalyticsOverride(base AnalyticsConfig, rawQuery string) AnalyticsConfig {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return base
	}
	blob := values.Get("analytics")
	if blob == "" {
		return base
	}

	override := base
	if err := json.Unmarshal([]byte(blob), &override); err != nil {
		return base
	}
	override.normalize()
	return override
}
