package model

import (
	"encoding/json"
	"time"
)

// LocationFix is one raw position sample from the device. Fixes are
// ephemeral; they flow through the pipeline and are never persisted as-is.
type LocationFix struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Accuracy   float64   `json:"accuracy,omitempty"` // meters, 0 if unknown
	CapturedAt time.Time `json:"capturedAt"`
}

// NotifiedLocation is the durable "last known notified state". Exactly one
// record exists at a time; it is overwritten on every successful dispatch.
// Revision supports optimistic concurrency across tabs.
type NotifiedLocation struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	PlaceName  string    `json:"placeName"`
	NotifiedAt time.Time `json:"notifiedAt"`
	Revision   int64     `json:"revision"`
}

// Move is a fix that crossed the significance threshold, annotated with the
// delta against the last notified location.
type Move struct {
	Fix            LocationFix
	DistanceMeters float64
	Direction      string // compass label, e.g. "NE"
}

// MessageType tags messages crossing the page/background boundary.
type MessageType string

const (
	// MsgLocationChanged is posted page -> background when a raw position
	// update happens. Informational only.
	MsgLocationChanged MessageType = "LOCATION_CHANGED"
	// MsgLocationNotification is posted page -> background to request a
	// platform notification display.
	MsgLocationNotification MessageType = "LOCATION_NOTIFICATION"
	// MsgNavigate is posted background -> page after a notification click.
	MsgNavigate MessageType = "NAVIGATE"
	// MsgUpdateLastNotified tells every open page to refresh its in-memory
	// copy of the notified-location record without re-reading storage.
	MsgUpdateLastNotified MessageType = "UPDATE_LAST_NOTIFIED_LOCATION"
	// MsgFocus asks a page to bring itself to the foreground.
	MsgFocus MessageType = "FOCUS"
)

// Message is the envelope for all cross-context traffic. Payload stays raw
// until the type is known; unknown types are dropped by receivers.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage marshals payload into an envelope.
func NewMessage(t MessageType, payload any) Message {
	raw, _ := json.Marshal(payload)
	return Message{Type: t, Payload: raw}
}

// LocationChangedPayload carries the coordinates of a raw update.
type LocationChangedPayload struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NavigatePayload tells a page where to go after a notification click.
type NavigatePayload struct {
	URL string `json:"url"`
	Tab string `json:"tab,omitempty"`
}

// UpdateLastNotifiedPayload mirrors the persisted record for cross-tab sync.
type UpdateLastNotifiedPayload struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	PlaceName string  `json:"placeName"`
}

// ClickAction enumerates what the user did with a delivered notification.
type ClickAction string

const (
	ActionUpdate  ClickAction = "update"
	ActionClose   ClickAction = "close"
	ActionDefault ClickAction = "" // body click, no explicit button
)

// ClickIntent is derived from user interaction with a notification.
type ClickIntent struct {
	Action ClickAction `json:"action"`
	URL    string      `json:"url"`
	Tab    string      `json:"tab,omitempty"`
}

// NotificationData is attached to a platform notification and echoed back
// by the platform on click.
type NotificationData struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	PlaceName string  `json:"placeName"`
	URL       string  `json:"url"`
	Tab       string  `json:"tab,omitempty"`
}

// NotificationAction is a button on a platform notification.
type NotificationAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// Notification is the payload of a LOCATION_NOTIFICATION message.
type Notification struct {
	Title              string               `json:"title"`
	Body               string               `json:"body"`
	PlaceName          string               `json:"placeName"`
	RequireInteraction bool                 `json:"requireInteraction"`
	Data               NotificationData     `json:"data"`
	Actions            []NotificationAction `json:"actions,omitempty"`
}
