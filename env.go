package wrenbase

// environment abstracts the browser-specific capabilities the analytics
// pipeline depends on: the current page, load-time configuration
// overrides, the sendBeacon transport, and page-visibility notifications.
//
// The implementations are build-tagged:
//   - env_native.go: regular builds, where none of these exist; the page
//     URL is nil, the beacon is unavailable, and the page counts as
//     permanently visible
//   - env_wasm.go: browser builds, bridged over syscall/js
type environment interface {
	// pageURL returns the current page path, or nil outside browsers.
	pageURL() *string

	// locationQuery returns the raw query string of the current page,
	// the source of load-time analytics overrides. Empty outside
	// browsers.
	locationQuery() string

	// sendBeacon hands payload to the fire-and-forget transport and
	// reports whether it was accepted. Always false outside browsers.
	sendBeacon(url string, payload []byte) bool

	// onVisibilityChange subscribes to page-visibility transitions and
	// returns an unsubscribe function. Outside browsers the callback
	// never fires.
	onVisibilityChange(fn func(visible bool)) (unsubscribe func())
}
