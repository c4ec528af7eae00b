package ports

import (
	"context"

	"github.com/GoArmGo/PictureIt/internal/messaging/payloads"
)

// DivergencePublisher публикует отчёты о рассинхронизации удалённого хранилища и локального индекса
type DivergencePublisher interface {
	PublishImageDivergence(ctx context.Context, payload payloads.ImageDivergencePayload) error
}

// DivergenceConsumer используется воркером для получения отчётов из очереди
type DivergenceConsumer interface {
	// StartConsumingImageDivergences начинает прослушивание очереди,
	// handler вызывается для каждого полученного сообщения
	StartConsumingImageDivergences(ctx context.Context, handler func(context.Context, payloads.ImageDivergencePayload) error) error
}
