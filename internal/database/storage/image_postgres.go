package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/GoArmGo/PictureIt/internal/domain"
)

const uniqueViolation = "23505"

const imageColumns = `id, remote_id, owner_id, image_url, location, description, created_at, updated_at`

// ImageStorage реализует ports.ImageStorage поверх sqlx.
// Каждая выборка, кроме вставки, ограничена парой (remote_id, owner_id).
type ImageStorage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewImageStorage(db *sqlx.DB, logger *slog.Logger) *ImageStorage {
	return &ImageStorage{db: db, logger: logger}
}

// CreateImage сохраняет метаданные изображения, занятый remote_id даёт domain.ErrDuplicate
func (s *ImageStorage) CreateImage(ctx context.Context, image *domain.Image) error {
	start := time.Now()

	if image.ID == uuid.Nil {
		image.ID = uuid.New()
	}
	now := time.Now().UTC()
	if image.CreatedAt.IsZero() {
		image.CreatedAt = now
	}
	image.UpdatedAt = now

	query := `
	INSERT INTO images (id, remote_id, owner_id, image_url, location, description, created_at, updated_at)
	VALUES (:id, :remote_id, :owner_id, :image_url, :location, :description, :created_at, :updated_at)
	`

	if _, err := s.db.NamedExecContext(ctx, query, image); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			s.logger.Warn("image already indexed", "remote_id", image.RemoteID)
			return fmt.Errorf("изображение %s уже существует: %w", image.RemoteID, domain.ErrDuplicate)
		}
		s.logger.Error("failed to save image", "remote_id", image.RemoteID, "error", err)
		return fmt.Errorf("ошибка при сохранении изображения: %w", err)
	}

	s.logger.Info("image saved successfully",
		"id", image.ID,
		"remote_id", image.RemoteID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// FindImage ищет изображение владельца по remote_id
func (s *ImageStorage) FindImage(ctx context.Context, remoteID, ownerID string) (*domain.Image, error) {
	start := time.Now()

	var image domain.Image
	query := `SELECT ` + imageColumns + ` FROM images WHERE remote_id = $1 AND owner_id = $2 LIMIT 1`

	if err := s.db.GetContext(ctx, &image, query, remoteID, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("image not found for owner", "remote_id", remoteID)
			return nil, nil
		}
		s.logger.Error("failed to get image", "remote_id", remoteID, "error", err)
		return nil, fmt.Errorf("ошибка при получении изображения: %w", err)
	}

	s.logger.Debug("image retrieved",
		"remote_id", remoteID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &image, nil
}

// ListImagesByOwner возвращает страницу изображений владельца, новые первыми.
// Пустой результат это пустой срез, а не nil.
func (s *ImageStorage) ListImagesByOwner(ctx context.Context, ownerID string, page, perPage int) ([]domain.Image, error) {
	start := time.Now()

	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	query := `
	SELECT ` + imageColumns + ` FROM images
	WHERE owner_id = $1
	ORDER BY created_at DESC
	LIMIT $2 OFFSET $3
	`

	images := []domain.Image{}
	if err := s.db.SelectContext(ctx, &images, query, ownerID, perPage, offset); err != nil {
		s.logger.Error("failed to list images", "page", page, "per_page", perPage, "error", err)
		return nil, fmt.Errorf("ошибка при получении списка изображений: %w", err)
	}

	s.logger.Info("listed images successfully",
		"page", page,
		"per_page", perPage,
		"count", len(images),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return images, nil
}

// UpdateImage обновляет только переданные поля и возвращает запись после обновления,
// nil, nil если запись владельца не найдена
func (s *ImageStorage) UpdateImage(ctx context.Context, remoteID, ownerID string, update domain.ImageUpdate) (*domain.Image, error) {
	if update.IsEmpty() {
		return s.FindImage(ctx, remoteID, ownerID)
	}
	start := time.Now()

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.ImageURL != nil {
		set("image_url", *update.ImageURL)
	}
	if update.Location != nil {
		set("location", *update.Location)
	}
	if update.Description != nil {
		set("description", *update.Description)
	}
	set("updated_at", time.Now().UTC())

	args = append(args, remoteID, ownerID)
	query := fmt.Sprintf(
		`UPDATE images SET %s WHERE remote_id = $%d AND owner_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), imageColumns,
	)

	var image domain.Image
	if err := s.db.GetContext(ctx, &image, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("image to update not found", "remote_id", remoteID)
			return nil, nil
		}
		s.logger.Error("failed to update image", "remote_id", remoteID, "error", err)
		return nil, fmt.Errorf("ошибка при обновлении изображения: %w", err)
	}

	s.logger.Info("image updated successfully",
		"remote_id", remoteID,
		"fields", len(sets)-1,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &image, nil
}

// DeleteImage удаляет запись владельца и возвращает её, nil, nil если удалять нечего
func (s *ImageStorage) DeleteImage(ctx context.Context, remoteID, ownerID string) (*domain.Image, error) {
	start := time.Now()

	var image domain.Image
	query := `DELETE FROM images WHERE remote_id = $1 AND owner_id = $2 RETURNING ` + imageColumns

	if err := s.db.GetContext(ctx, &image, query, remoteID, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("image to delete not found", "remote_id", remoteID)
			return nil, nil
		}
		s.logger.Error("failed to delete image", "remote_id", remoteID, "error", err)
		return nil, fmt.Errorf("ошибка при удалении изображения: %w", err)
	}

	s.logger.Info("image deleted successfully",
		"remote_id", remoteID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &image, nil
}
