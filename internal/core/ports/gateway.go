package ports

import (
	"context"

	"github.com/GoArmGo/PictureIt/internal/domain"
)

// ContentGateway удалённое хранилище бинарного контента изображений.
// Любой сбой транспорта, таймаут или не-2xx ответ возвращается как *domain.UpstreamError.
type ContentGateway interface {
	CreateImage(ctx context.Context, content domain.ImageContent) (*domain.RemoteImage, error)
	ReplaceImage(ctx context.Context, remoteID string, content domain.ImageContent) (*domain.RemoteImage, error)
	// PatchImage передаёт только заполненные поля patch
	PatchImage(ctx context.Context, remoteID string, patch domain.ImagePatch) (*domain.RemoteImage, error)
	DeleteImage(ctx context.Context, remoteID string) error
	FetchImage(ctx context.Context, remoteID string) (*domain.RemoteImage, error)
}
