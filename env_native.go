//go:build !wasm

package wrenbase

// nativeEnvironment is the environment of regular (non-wasm) builds. It
// has no page, no beacon, and no visibility transitions, so the pipeline
// starts on construction and every delivery goes through the reliable
// HTTP transport.
type nativeEnvironment struct{}

func newEnvironment() environment { return nativeEnvironment{} }

func (nativeEnvironment) pageURL() *string { return nil }

func (nativeEnvironment) locationQuery() string { return "" }

func (nativeEnvironment) sendBeacon(url string, payload []byte) bool { return false }

func (nativeEnvironment) onVisibilityChange(fn func(visible bool)) func() {
	return func() {}
}
