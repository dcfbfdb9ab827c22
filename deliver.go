package wrenbase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// beaconPayloadLimit is the maximum serialized payload handed to the
// fire-and-forget transport. Browsers cap sendBeacon payloads (nominally
// 64 KiB, less in practice), so anything larger goes straight to the
// reliable transport.
const beaconPayloadLimit = 60000

// deliverer maps drained batches to wire format and transmits them. It
// prefers the fire-and-forget beacon transport, which stays usable while a
// page is unloading, and falls back to a reliable HTTP POST when the
// beacon is unavailable, over-sized, or refused.
type deliverer struct {
	transport *httpTransport
	env       environment
	provider  SessionProvider
	observer  Observer
	appID     string
}

// flush resolves the session context once, converts the batch to wire
// events and sends them. The returned error reports a lost batch; nothing
// is re-queued or retried: usage analytics tolerates loss, and data that
// cannot should not travel through this pipeline.
func (d *deliverer) flush(ctx context.Context, state *sharedState, batch []queuedEvent) error {
	if len(batch) == 0 {
		return nil
	}

	session, err := state.resolveSession(ctx, d.provider)
	if err != nil {
		d.observer.OnBatchDelivered(len(batch), "none", 0, err)
		return err
	}

	payload, err := json.Marshal(trackBatchRequest{
		Events: buildWireEvents(batch, session.userID),
	})
	if err != nil {
		d.observer.OnBatchDelivered(len(batch), "none", 0, err)
		return fmt.Errorf("encode analytics batch: %w", err)
	}

	endpoint := fmt.Sprintf("/api/apps/%s/analytics/track/batch", d.appID)

	// Transport A: fire-and-forget beacon. Only attempted in browser-like
	// contexts and only for payloads under the beacon size cap.
	if len(payload) <= beaconPayloadLimit {
		start := time.Now()
		if d.env.sendBeacon(d.transport.endpointURL(endpoint), payload) {
			d.observer.OnBatchDelivered(len(batch), "beacon", time.Since(start), nil)
			return nil
		}
	}

	// Transport B: reliable POST with the identical JSON body.
	start := time.Now()
	err = d.transport.post(ctx, endpoint, json.RawMessage(payload), nil)
	d.observer.OnBatchDelivered(len(batch), "http", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("deliver analytics batch of %d: %w", len(batch), err)
	}
	return nil
}
