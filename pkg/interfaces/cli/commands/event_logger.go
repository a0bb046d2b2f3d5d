package commands

import (
	"go.uber.org/zap"

	"github.com/vsinha/supplychain/pkg/infrastructure/events"
)

// eventLogger writes every published supply chain event to the debug log
type eventLogger struct {
	logger *zap.Logger
}

var _ events.EventHandler = (*eventLogger)(nil)

func (h *eventLogger) Handle(event events.Event) error {
	h.logger.Debug("event",
		zap.String("type", event.Type()),
		zap.String("stream_id", event.StreamID()),
		zap.Any("data", event.Data()))
	return nil
}

func (h *eventLogger) CanHandle(string) bool { return true }
