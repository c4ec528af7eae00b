package usecase

import (
	"context"

	"github.com/GoArmGo/PictureIt/internal/domain"
	"github.com/GoArmGo/PictureIt/internal/messaging/payloads"
)

// ImageUseCase синхронизирует удалённое хранилище контента и локальный индекс.
// ownerID всегда берётся из проверенного токена, никогда из тела запроса.
// Удалённое хранилище меняется первым, локальная запись только после его успеха.
type ImageUseCase interface {
	CreateImage(ctx context.Context, ownerID string, content domain.ImageContent) (*domain.Image, error)
	ReplaceImage(ctx context.Context, ownerID, remoteID string, content domain.ImageContent) (*domain.Image, error)
	PatchImage(ctx context.Context, ownerID, remoteID string, patch domain.ImagePatch) (*domain.Image, error)
	DeleteImage(ctx context.Context, ownerID, remoteID string) error
	GetImage(ctx context.Context, ownerID, remoteID string) (*domain.Image, error)
	ListImages(ctx context.Context, ownerID string, page, perPage int) ([]domain.Image, error)
}

// DivergenceUseCase записывает полученные воркером отчёты о рассинхронизации
type DivergenceUseCase interface {
	RecordDivergence(ctx context.Context, payload payloads.ImageDivergencePayload) error
}
