package messaging

import (
	"context"

	"github.com/truongngoctrac/claims-platform/pkg/logger"
)

// LogBroker writes messages to the log. It stands in for a real broker when
// Redis is not configured.
type LogBroker struct {
	logger *logger.Logger
}

func NewLogBroker(log *logger.Logger) *LogBroker {
	if log == nil {
		log = logger.Nop()
	}
	return &LogBroker{logger: log}
}

func (b *LogBroker) Publish(ctx context.Context, channel string, msg Message) error {
	b.logger.Info("event published",
		"channel", channel,
		"event_id", msg.ID.String(),
		"event_type", msg.Type,
		"aggregate_id", msg.AggregateID.String(),
	)
	return nil
}

func (b *LogBroker) Close() error { return nil }
