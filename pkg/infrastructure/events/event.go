package events

import (
	"time"
)

// Event is one fact published by a session
type Event interface {
	Type() string
	StreamID() string
	Data() interface{}
	Timestamp() time.Time
	Version() int
}

// EventHandler reacts to published events
type EventHandler interface {
	Handle(event Event) error
	CanHandle(eventType string) bool
}

// EventStore appends events per stream and dispatches them to subscribers
type EventStore interface {
	Publisher
	ReadEvents(streamID string, fromVersion int) ([]Event, error)
	ReadAllEvents(fromPosition int) ([]Event, error)
	Subscribe(eventTypes []string, handler EventHandler) error
	Unsubscribe(handler EventHandler) error
}

// Publisher is the write side sessions depend on
type Publisher interface {
	AppendEvent(streamID string, event Event) error
}

// Envelope is the stored form of a session event. Seq is the position within the stream,
// zero until the event is appended.
type Envelope struct {
	Kind    string      `json:"type"`
	Stream  string      `json:"stream"`
	Payload interface{} `json:"data"`
	At      time.Time   `json:"at"`
	Seq     int         `json:"version"`
}

func (e Envelope) Type() string         { return e.Kind }
func (e Envelope) StreamID() string     { return e.Stream }
func (e Envelope) Data() interface{}    { return e.Payload }
func (e Envelope) Timestamp() time.Time { return e.At }
func (e Envelope) Version() int         { return e.Seq }

// NewEvent wraps a payload; the store assigns the version on append
func NewEvent(eventType, streamID string, data interface{}, at time.Time) Event {
	return Envelope{Kind: eventType, Stream: streamID, Payload: data, At: at}
}

// sealed copies any event into an envelope positioned in streamID
func sealed(streamID string, e Event, seq int) Envelope {
	return Envelope{Kind: e.Type(), Stream: streamID, Payload: e.Data(), At: e.Timestamp(), Seq: seq}
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) AppendEvent(string, Event) error { return nil }
