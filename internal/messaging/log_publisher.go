package messaging

import (
	"context"
	"log/slog"

	"github.com/GoArmGo/PictureIt/internal/messaging/payloads"
)

// LogPublisher пишет отчёты о рассинхронизации только в лог.
// Используется, когда RabbitMQ не настроен.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// PublishImageDivergence реализует ports.DivergencePublisher.
func (p *LogPublisher) PublishImageDivergence(_ context.Context, payload payloads.ImageDivergencePayload) error {
	p.logger.Error("image index diverged from remote store",
		"operation", payload.Operation,
		"remote_id", payload.RemoteID,
		"owner_id", payload.OwnerID,
		"reason", payload.Reason,
		"occurred_at", payload.OccurredAt,
	)
	return nil
}
