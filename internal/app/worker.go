package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/GoArmGo/PictureIt/internal/core/ports"
	"github.com/GoArmGo/PictureIt/internal/domain"
	"github.com/GoArmGo/PictureIt/internal/messaging/payloads"
	"github.com/GoArmGo/PictureIt/internal/usecase"
)

// runWorker потребляет отчёты о рассинхронизации и пишет их в журнал до отмены ctx
func runWorker(ctx context.Context, consumer ports.DivergenceConsumer, divergences usecase.DivergenceUseCase, logger *slog.Logger) error {
	if consumer == nil || divergences == nil {
		return errors.New("worker is not configured")
	}

	if err := consumer.StartConsumingImageDivergences(ctx, divergenceHandler(divergences, logger)); err != nil {
		return fmt.Errorf("ошибка при запуске потребителя RabbitMQ: %w", err)
	}
	logger.Info("worker started, waiting for divergence reports")

	<-ctx.Done()
	logger.Info("worker stopping")
	return nil
}

// divergenceHandler отчёт, не прошедший проверку, подтверждается и отбрасывается:
// повторная доставка его не исправит. Остальные ошибки возвращают сообщение в очередь.
func divergenceHandler(divergences usecase.DivergenceUseCase, logger *slog.Logger) func(context.Context, payloads.ImageDivergencePayload) error {
	return func(ctx context.Context, payload payloads.ImageDivergencePayload) error {
		err := divergences.RecordDivergence(ctx, payload)
		if errors.Is(err, domain.ErrValidation) {
			logger.Warn("dropping invalid divergence report", "error", err, "operation", payload.Operation)
			return nil
		}
		return err
	}
}
