//go:build wasm

package wrenbase

import (
	"syscall/js"
)

// browserEnvironment bridges the analytics pipeline to the browser:
// window.location for page context and load-time overrides,
// navigator.sendBeacon for fire-and-forget delivery, and the
// visibilitychange event for lifecycle transitions.
type browserEnvironment struct{}

func newEnvironment() environment { return browserEnvironment{} }

// isBrowser reports whether browser globals are actually present; wasm
// binaries can also run under Node, where there is no page to observe.
func (browserEnvironment) isBrowser() bool {
	return js.Global().Get("window").Truthy() && js.Global().Get("document").Truthy()
}

func (e browserEnvironment) pageURL() *string {
	if !e.isBrowser() {
		return nil
	}
	location := js.Global().Get("window").Get("location")
	if !location.Truthy() {
		return nil
	}
	path := location.Get("pathname").String()
	return &path
}

func (e browserEnvironment) locationQuery() string {
	if !e.isBrowser() {
		return ""
	}
	search := js.Global().Get("window").Get("location").Get("search")
	if !search.Truthy() {
		return ""
	}
	// location.search carries a leading "?"
	raw := search.String()
	if len(raw) > 0 && raw[0] == '?' {
		raw = raw[1:]
	}
	return raw
}

func (e browserEnvironment) sendBeacon(url string, payload []byte) bool {
	if !e.isBrowser() {
		return false
	}
	navigator := js.Global().Get("navigator")
	beacon := navigator.Get("sendBeacon")
	if !beacon.Truthy() {
		return false
	}

	buf := js.Global().Get("Uint8Array").New(len(payload))
	js.CopyBytesToJS(buf, payload)
	blobOpts := js.ValueOf(map[string]interface{}{"type": "application/json"})
	blob := js.Global().Get("Blob").New(js.ValueOf([]interface{}{buf}), blobOpts)

	return navigator.Call("sendBeacon", url, blob).Bool()
}

func (e browserEnvironment) onVisibilityChange(fn func(visible bool)) func() {
	if !e.isBrowser() {
		return func() {}
	}
	document := js.Global().Get("document")
	listener := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		fn(document.Get("visibilityState").String() == "visible")
		return nil
	})
	document.Call("addEventListener", "visibilitychange", listener)

	return func() {
		document.Call("removeEventListener", "visibilitychange", listener)
		listener.Release()
	}
}
