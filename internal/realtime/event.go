package realtime

import "encoding/json"

// Kind is the closed set of event kinds the relay republishes.
type Kind string

const (
	KindMessage Kind = "message"
	KindSession Kind = "session"
	KindDevice  Kind = "device"
	// KindUnrecognized marks a payload with an unknown or missing type
	// tag; such events are dropped before they reach the bus.
	KindUnrecognized Kind = ""
)

// Event is a change notification in flight between the store and the
// subscribed connections. Payload stays opaque apart from the type tag
// and the target user id.
type Event struct {
	Kind    Kind            `json:"event_type"`
	UserID  string          `json:"-"`
	Payload json.RawMessage `json:"payload"`
}

// Parse classifies a raw notification payload. The bool reports whether
// the payload carried a recognizable kind; callers drop the rest. A
// payload that is not valid JSON parses to unrecognized, never to an
// error, so a bad producer cannot kill the listener loop.
func Parse(raw []byte) (Event, bool) {
	var probe struct {
		Type   string `json:"type"`
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Event{Kind: KindUnrecognized}, false
	}
	switch Kind(probe.Type) {
	case KindMessage, KindSession, KindDevice:
		return Event{
			Kind:    Kind(probe.Type),
			UserID:  probe.UserID,
			Payload: append(json.RawMessage(nil), raw...),
		}, true
	default:
		return Event{Kind: KindUnrecognized}, false
	}
}
