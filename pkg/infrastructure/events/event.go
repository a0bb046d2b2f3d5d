package events

import (
	"time"
)

// Event is an immutable fact recorded against a stream
type Event interface {
	Type() string
	StreamID() string
	Data() any
	Timestamp() time.Time
	Version() int
}

// EventHandler reacts to the event types it subscribed to. Handle is called
// on its own goroutine.
type EventHandler interface {
	Handle(event Event) error
	CanHandle(eventType string) bool
}

// Publisher is the write side of an event store
type Publisher interface {
	AppendEvent(streamID string, event Event) error
}

type EventStore interface {
	Publisher
	ReadEvents(streamID string, fromVersion int) ([]Event, error)
	ReadAllEvents(fromPosition int) ([]Event, error)
	Subscribe(eventTypes []string, handler EventHandler) error
}

type record struct {
	kind    string
	stream  string
	data    any
	at      time.Time
	version int
}

func (r record) Type() string         { return r.kind }
func (r record) StreamID() string     { return r.stream }
func (r record) Data() any            { return r.data }
func (r record) Timestamp() time.Time { return r.at }
func (r record) Version() int         { return r.version }

// NewEvent builds an unversioned event; the store assigns the version on append
func NewEvent(eventType, streamID string, data any) Event {
	return record{kind: eventType, stream: streamID, data: data, at: time.Now()}
}
