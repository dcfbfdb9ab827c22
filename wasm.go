//go:build wasm

package wrenbase

import (
	"context"
	"encoding/json"
	"fmt"
	"syscall/js"
)

// newHTTPTransport creates a WASM-compatible HTTP transport backed by the
// browser's Fetch API
func newHTTPTransport(config *Config) (*httpTransport, error) {
	return &httpTransport{
		config: config,
		logger: config.Logger,
	}, nil
}

// do executes an HTTP request through fetch and decodes the JSON response
// into result when provided.
func (t *httpTransport) do(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	headers := map[string]interface{}{}
	t.setCommonHeaders(func(key, value string) {
		headers[key] = value
	})

	opts := map[string]interface{}{
		"method":      method,
		"headers":     headers,
		"mode":        "cors",
		"credentials": "same-origin",
	}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		opts["body"] = string(data)
	}

	fetch := js.Global().Get("fetch")
	if !fetch.Truthy() {
		return fmt.Errorf("fetch API not available")
	}

	resp, err := awaitPromise(ctx, fetch.Invoke(t.endpointURL(path), js.ValueOf(opts)))
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	status := resp.Get("status").Int()
	text, err := awaitPromise(ctx, resp.Call("text"))
	if err != nil {
		return fmt.Errorf("%s %s: reading response: %w", method, path, err)
	}
	respBody := []byte(text.String())

	if status < 200 || status >= 300 {
		return parseAPIError(status, respBody)
	}
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

// awaitPromise blocks until the JS promise settles or ctx is cancelled.
func awaitPromise(ctx context.Context, promise js.Value) (js.Value, error) {
	resolved := make(chan js.Value, 1)
	rejected := make(chan error, 1)

	onResolve := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		resolved <- args[0]
		return nil
	})
	onReject := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		msg := "promise rejected"
		if len(args) > 0 {
			if m := args[0].Get("message"); m.Truthy() {
				msg = m.String()
			}
		}
		rejected <- fmt.Errorf("%s", msg)
		return nil
	})
	release := func() {
		onResolve.Release()
		onReject.Release()
	}

	promise.Call("then", onResolve).Call("catch", onReject)

	select {
	case <-ctx.Done():
		// The promise may still settle; the callbacks must stay alive
		// for it, so they are leaked on the cancellation path.
		return js.Undefined(), ctx.Err()
	case value := <-resolved:
		release()
		return value, nil
	case err := <-rejected:
		release()
		return js.Undefined(), err
	}
}

// get performs a GET request
func (t *httpTransport) get(ctx context.Context, path string, result interface{}) error {
	return t.do(ctx, "GET", path, nil, result)
}

// post performs a POST request
func (t *httpTransport) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	return t.do(ctx, "POST", path, body, result)
}

// close closes the transport (no-op for WASM)
func (t *httpTransport) close() error {
	return nil
}
