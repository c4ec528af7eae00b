package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/GoArmGo/PictureIt/internal/domain"
)

// DivergenceStorage пишет журнал рассинхронизаций в таблицу image_divergences
type DivergenceStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewDivergenceStorage(db *sqlx.DB, logger *slog.Logger) *DivergenceStorage {
	return &DivergenceStorage{db: db, logger: logger}
}

// RecordDivergence сохраняет отчёт о рассинхронизации
func (s *DivergenceStorage) RecordDivergence(ctx context.Context, divergence *domain.ImageDivergence) error {
	if divergence.ID == uuid.Nil {
		divergence.ID = uuid.New()
	}
	if divergence.RecordedAt.IsZero() {
		divergence.RecordedAt = time.Now().UTC()
	}

	query := `
	INSERT INTO image_divergences (id, operation, remote_id, owner_id, reason, occurred_at, recorded_at)
	VALUES (:id, :operation, :remote_id, :owner_id, :reason, :occurred_at, :recorded_at)
	`

	if _, err := s.db.NamedExecContext(ctx, query, divergence); err != nil {
		s.logger.Error("failed to record divergence", "remote_id", divergence.RemoteID, "error", err)
		return fmt.Errorf("ошибка при записи рассинхронизации: %w", err)
	}

	s.logger.Info("divergence recorded",
		"id", divergence.ID,
		"operation", divergence.Operation,
		"remote_id", divergence.RemoteID,
	)
	return nil
}
