package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/PictureIt/internal/core/ports"
	"github.com/GoArmGo/PictureIt/internal/domain"
	"github.com/GoArmGo/PictureIt/internal/messaging/payloads"
)

type divergenceUseCase struct {
	storage ports.DivergenceStorage
	logger  *slog.Logger
}

// NewDivergenceUseCase создает обработчик отчётов о рассинхронизации для воркера
func NewDivergenceUseCase(storage ports.DivergenceStorage, logger *slog.Logger) DivergenceUseCase {
	return &divergenceUseCase{storage: storage, logger: logger}
}

func (uc *divergenceUseCase) RecordDivergence(ctx context.Context, payload payloads.ImageDivergencePayload) error {
	if payload.RemoteID == "" || payload.Operation == "" {
		return fmt.Errorf("usecase: отчёт без remote_id или operation: %w", domain.ErrValidation)
	}
	occurred := payload.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}

	divergence := &domain.ImageDivergence{
		Operation:  domain.ImageOperation(payload.Operation),
		RemoteID:   payload.RemoteID,
		OwnerID:    payload.OwnerID,
		Reason:     payload.Reason,
		OccurredAt: occurred,
	}
	if err := uc.storage.RecordDivergence(ctx, divergence); err != nil {
		return fmt.Errorf("usecase: ошибка записи отчёта о рассинхронизации: %w", err)
	}

	uc.logger.Warn("divergence journaled", "operation", payload.Operation, "remote_id", payload.RemoteID)
	return nil
}
