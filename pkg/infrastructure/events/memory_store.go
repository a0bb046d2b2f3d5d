package events

import (
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// InMemoryEventStore keeps appended events in a single ordered log indexed by
// stream. Handlers run asynchronously; Wait drains them.
type InMemoryEventStore struct {
	mu       sync.RWMutex
	log      []Event
	byStream map[string][]int
	handlers map[string][]EventHandler
	inflight sync.WaitGroup
	logger   *zap.Logger
}

func NewInMemoryEventStore(logger *zap.Logger) *InMemoryEventStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventStore{
		byStream: make(map[string][]int),
		handlers: make(map[string][]EventHandler),
		logger:   logger,
	}
}

var _ EventStore = (*InMemoryEventStore)(nil)

// AppendEvent records event under streamID with the next stream version
func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	if event == nil {
		return errors.New("cannot append a nil event")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := record{
		kind:    event.Type(),
		stream:  streamID,
		data:    event.Data(),
		at:      event.Timestamp(),
		version: len(s.byStream[streamID]) + 1,
	}
	s.byStream[streamID] = append(s.byStream[streamID], len(s.log))
	s.log = append(s.log, stored)
	s.dispatch(stored)
	return nil
}

// ReadEvents returns the events of streamID from fromVersion on; versions start at 1
func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	positions := s.byStream[streamID]
	start := max(fromVersion, 1) - 1
	if start >= len(positions) {
		return []Event{}, nil
	}
	out := make([]Event, 0, len(positions)-start)
	for _, pos := range positions[start:] {
		out = append(out, s.log[pos])
	}
	return out, nil
}

// ReadAllEvents returns the log from the zero-based fromPosition on
func (s *InMemoryEventStore) ReadAllEvents(fromPosition int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := max(fromPosition, 0)
	if start >= len(s.log) {
		return []Event{}, nil
	}
	return slices.Clone(s.log[start:]), nil
}

func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	if handler == nil {
		return errors.New("event handler cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, eventType := range eventTypes {
		s.handlers[eventType] = append(s.handlers[eventType], handler)
	}
	return nil
}

// Wait blocks until every dispatched handler has returned
func (s *InMemoryEventStore) Wait() {
	s.inflight.Wait()
}

// dispatch must be called with s.mu held
func (s *InMemoryEventStore) dispatch(event Event) {
	for _, h := range s.handlers[event.Type()] {
		if !h.CanHandle(event.Type()) {
			continue
		}
		s.inflight.Add(1)
		go func(h EventHandler) {
			defer s.inflight.Done()
			if err := h.Handle(event); err != nil {
				s.logger.Error("event handler failed",
					zap.String("event_type", event.Type()),
					zap.String("stream_id", event.StreamID()),
					zap.Error(err))
			}
		}(h)
	}
}
