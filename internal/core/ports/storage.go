package ports

import (
	"context"

	"github.com/GoArmGo/PictureIt/internal/domain"
)

// UserStorage определяет методы для работы с хранилищем учётных записей
type UserStorage interface {
	// CreateUser сохраняет нового пользователя, при занятом username или email возвращает domain.ErrDuplicate
	CreateUser(ctx context.Context, user *domain.User) error
	// GetUserByUsername возвращает nil, nil если пользователя нет
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// ImageStorage определяет методы локального индекса изображений.
// Все методы, кроме создания, фильтруют по remoteID и ownerID одновременно.
type ImageStorage interface {
	CreateImage(ctx context.Context, image *domain.Image) error
	// FindImage возвращает nil, nil если записи нет или она принадлежит другому владельцу
	FindImage(ctx context.Context, remoteID, ownerID string) (*domain.Image, error)
	ListImagesByOwner(ctx context.Context, ownerID string, page, perPage int) ([]domain.Image, error)
	// UpdateImage возвращает nil, nil если обновлять нечего
	UpdateImage(ctx context.Context, remoteID, ownerID string, update domain.ImageUpdate) (*domain.Image, error)
	// DeleteImage возвращает nil, nil если ничего не удалено
	DeleteImage(ctx context.Context, remoteID, ownerID string) (*domain.Image, error)
}

// DivergenceStorage журнал рассинхронизаций для операторов
type DivergenceStorage interface {
	RecordDivergence(ctx context.Context, divergence *domain.ImageDivergence) error
}
