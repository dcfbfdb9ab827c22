// Package wrenbase provides the Go client library for the Wrenbase
// backend-as-a-service platform, focused on its client-side usage-analytics
// event pipeline: a shared, bounded, throttled event queue that batches and
// asynchronously delivers usage telemetry.
//
// # Features
//
// The SDK provides:
//   - Fire-and-forget event tracking: Track never blocks and never errors
//   - A bounded, FIFO event queue with an explicit drop policy
//   - A single-flight, throttled delivery loop shared across client
//     instances with the same AppID
//   - Dual delivery transports: navigator.sendBeacon in browser builds,
//     falling back to a reliable HTTP POST everywhere
//   - Page-visibility lifecycle handling with a best-effort final flush
//   - Structured logging via logrus and pluggable Observer hooks
//   - WASM compatibility for browser-based applications
//
// # Basic Usage
//
//	package main
//
//	import (
//	    "log"
//
//	    wrenbase "github.com/wrenbase/wrenbase-go"
//	)
//
//	func main() {
//	    client, err := wrenbase.NewClient(
//	        wrenbase.DefaultConfig().
//	            WithBaseURL("https://api.wrenbase.com").
//	            WithAppID("app_2f9c1"))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer client.Close()
//
//	    client.Track(wrenbase.TrackEvent{
//	        Name: "report_exported",
//	        Properties: map[string]interface{}{
//	            "format": "csv",
//	        },
//	    })
//	}
//
// # Delivery Semantics
//
// Usage analytics is best-effort by design. Events tracked while analytics
// is disabled or while the queue is full are dropped silently; a batch
// whose delivery fails is logged and permanently lost, never re-queued.
// Correctness-critical data should not travel through this pipeline. Both
// outcomes are observable through the Observer interface, so monitoring
// and tests can assert on them without inferring from absence.
//
// # Configuration
//
// The SDK is configured with a fluent builder:
//
//	config := wrenbase.DefaultConfig().
//	    WithBaseURL("https://api.wrenbase.com").
//	    WithAppID("app_2f9c1").
//	    WithAnalytics(wrenbase.AnalyticsConfig{
//	        MaxQueueSize: 500,
//	        ThrottleTime: 2 * time.Second,
//	        BatchSize:    50,
//	    })
//
// In browser (WASM) builds the analytics settings can additionally be
// overridden at load time through an "analytics" query parameter carrying
// a JSON blob; malformed overrides are ignored.
package wrenbase
