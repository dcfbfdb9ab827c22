package wrenbase

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// httpTransport is the reliable request transport of the SDK. It is the
// universally available fallback for analytics delivery and carries the
// non-telemetry surface (session lookup, health checks).
//
// The actual implementation is split between:
//   - native.go: standard Go HTTP client for regular builds
//   - wasm.go: Fetch API wrapper for WebAssembly builds
//
// This split lets the same SDK run in server-side Go applications and in
// browser-based WASM applications without separate packages.
type httpTransport struct {
	// client is the underlying HTTP client (native Go only)
	client *http.Client
	// config holds the SDK configuration
	config *Config
	// baseURL is the parsed base URL for the API (native Go only)
	baseURL *url.URL
	// logger for transport diagnostics
	logger *logrus.Logger
}

// endpointURL builds the absolute URL for an API path. Used both for the
// reliable transport and as the target of the fire-and-forget beacon.
func (t *httpTransport) endpointURL(path string) string {
	return strings.TrimRight(t.config.BaseURL, "/") + path
}

// setCommonHeaders applies the headers every request carries.
func (t *httpTransport) setCommonHeaders(set func(key, value string)) {
	set("Content-Type", "application/json")
	set("Accept", "application/json")
	set("User-Agent", "wrenbase-go-sdk/1.0.0")
	if t.config.APIKey != "" {
		set("X-API-Key", t.config.APIKey)
	}
	for key, value := range t.config.Headers {
		set(key, value)
	}
}
