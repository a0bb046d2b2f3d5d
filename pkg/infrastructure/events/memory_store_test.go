package events

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingHandler struct {
	mu     sync.Mutex
	seen   []string
	accept string
	err    error
}

func (h *recordingHandler) Handle(event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, event.StreamID())
	return h.err
}

func (h *recordingHandler) CanHandle(eventType string) bool {
	return eventType == h.accept
}

func TestInMemoryEventStore_AppendAndRead(t *testing.T) {
	store := NewInMemoryEventStore(nil)

	require.NoError(t, store.AppendEvent("ORD-1", NewEvent(OrderPlacedEvent, "ORD-1", nil)))
	require.NoError(t, store.AppendEvent("ORD-1", NewEvent(OrderShippedEvent, "ORD-1", nil)))
	require.NoError(t, store.AppendEvent("ORD-2", NewEvent(OrderPlacedEvent, "ORD-2", nil)))

	stream, err := store.ReadEvents("ORD-1", 0)
	require.NoError(t, err)
	require.Len(t, stream, 2)
	assert.Equal(t, 1, stream[0].Version())
	assert.Equal(t, 2, stream[1].Version())
	assert.Equal(t, OrderShippedEvent, stream[1].Type())

	tail, err := store.ReadEvents("ORD-1", 2)
	require.NoError(t, err)
	assert.Len(t, tail, 1)

	none, err := store.ReadEvents("missing", 1)
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := store.ReadAllEvents(1)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestInMemoryEventStore_SubscribersAndHandlerErrors(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	store := NewInMemoryEventStore(zap.New(core))

	ok := &recordingHandler{accept: OrderCancelledEvent}
	failing := &recordingHandler{accept: OrderCancelledEvent, err: errors.New("boom")}
	require.NoError(t, store.Subscribe([]string{OrderCancelledEvent}, ok))
	require.NoError(t, store.Subscribe([]string{OrderCancelledEvent}, failing))

	require.NoError(t, store.AppendEvent("ORD-9", NewEvent(OrderCancelledEvent, "ORD-9", nil)))
	require.NoError(t, store.AppendEvent("ORD-9", NewEvent(OrderPlacedEvent, "ORD-9", nil)))
	store.Wait()

	assert.Equal(t, []string{"ORD-9"}, ok.seen)
	assert.Equal(t, 1, logs.FilterMessage("event handler failed").Len())

	require.NoError(t, store.AppendEvent("ORD-10", NewEvent(OrderCancelledEvent, "ORD-10", nil)))
	store.Wait()
	assert.Equal(t, []string{"ORD-9", "ORD-10"}, ok.seen)
	assert.Equal(t, []string{"ORD-9", "ORD-10"}, failing.seen)
	assert.Equal(t, 2, logs.FilterMessage("event handler failed").Len())
}

func TestInMemoryEventStore_RejectsNilInputs(t *testing.T) {
	store := NewInMemoryEventStore(nil)

	assert.Error(t, store.AppendEvent("ORD-1", nil))
	assert.Error(t, store.Subscribe([]string{OrderPlacedEvent}, nil))

	all, err := store.ReadAllEvents(0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestInMemoryEventStore_LogKeepsAppendOrderAcrossStreams(t *testing.T) {
	store := NewInMemoryEventStore(nil)
	streams := []string{"ORD-1", "ORD-2", "ORD-1", "RET0001", "ORD-2"}
	for _, stream := range streams {
		require.NoError(t, store.AppendEvent(stream, NewEvent(OrderPlacedEvent, stream, stream)))
	}

	all, err := store.ReadAllEvents(-5)
	require.NoError(t, err)
	require.Len(t, all, len(streams))
	versions := make([]int, 0, len(all))
	for i, e := range all {
		assert.Equal(t, streams[i], e.StreamID())
		assert.Equal(t, streams[i], e.Data())
		versions = append(versions, e.Version())
	}
	assert.Equal(t, []int{1, 1, 2, 1, 2}, versions)

	past, err := store.ReadAllEvents(len(streams))
	require.NoError(t, err)
	assert.Empty(t, past)

	late, err := store.ReadEvents("ORD-2", 3)
	require.NoError(t, err)
	assert.Empty(t, late)
}
