package wrenbase

import (
	"time"
)

// TrackEvent is a single usage-analytics event as supplied by application
// code. Only the event name is required; properties are optional key-value
// pairs restricted to JSON scalars (string, number, bool) or nil.
//
// Example:
//
//	client.Track(wrenbase.TrackEvent{
//	    Name: "report_exported",
//	    Properties: map[string]interface{}{
//	        "format": "csv",
//	        "rows":   1042,
//	    },
//	})
type TrackEvent struct {
	// Name identifies the event, e.g. "signup_completed".
	Name string

	// Properties are optional scalar attributes attached to the event.
	// Values must be strings, numbers, booleans, or nil; anything else
	// is passed through to JSON encoding as-is.
	Properties map[string]interface{}
}

// queuedEvent is a TrackEvent stamped with intrinsic data at enqueue time.
// Stamping happens in Track, not at flush time, so queueing delay never
// distorts the recorded moment or the captured page.
type queuedEvent struct {
	event TrackEvent

	// timestamp is the wall-clock moment Track was called.
	timestamp time.Time

	// pageURL is the page path at enqueue time, nil outside browsers.
	pageURL *string
}

// wireEvent is the JSON shape that crosses the network. It is a pure
// rename/merge of a queuedEvent and the resolved session context.
type wireEvent struct {
	EventName  string                 `json:"event_name"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Timestamp  string                 `json:"timestamp,omitempty"`
	PageURL    *string                `json:"page_url,omitempty"`
	UserID     string                 `json:"user_id"`
}

// trackBatchRequest is the body of POST /api/apps/{appID}/analytics/track/batch.
type trackBatchRequest struct {
	Events []wireEvent `json:"events"`
}

// buildWireEvents merges a drained batch with the resolved user identity.
func buildWireEvents(batch []queuedEvent, userID string) []wireEvent {
	events := make([]wireEvent, 0, len(batch))
	for _, qe := range batch {
		events = append(events, wireEvent{
			EventName:  qe.event.Name,
			Properties: qe.event.Properties,
			Timestamp:  qe.timestamp.UTC().Format(time.RFC3339Nano),
			PageURL:    qe.pageURL,
			UserID:     userID,
		})
	}
	return events
}
