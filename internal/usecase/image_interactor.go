package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/GoArmGo/PictureIt/internal/core/ports"
	"github.com/GoArmGo/PictureIt/internal/domain"
	"github.com/GoArmGo/PictureIt/internal/messaging/payloads"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// imageUseCase implements ImageUseCase.
//
// Компенсирующего отката в удалённом хранилище нет: если локальная запись
// не удалась после успешного удалённого вызова, отправляется отчёт о рассинхронизации.
// Параллельные изменения одной записи не блокируются, побеждает последняя локальная запись.
type imageUseCase struct {
	images         ports.ImageStorage
	gateway        ports.ContentGateway
	divergences    ports.DivergencePublisher
	gatewayTimeout time.Duration
	logger         *slog.Logger
}

// NewImageUseCase создает новый экземпляр ImageUseCase
func NewImageUseCase(
	images ports.ImageStorage,
	gateway ports.ContentGateway,
	divergences ports.DivergencePublisher,
	gatewayTimeout time.Duration,
	logger *slog.Logger,
) ImageUseCase {
	return &imageUseCase{
		images:         images,
		gateway:        gateway,
		divergences:    divergences,
		gatewayTimeout: gatewayTimeout,
		logger:         logger,
	}
}

func (uc *imageUseCase) CreateImage(ctx context.Context, ownerID string, content domain.ImageContent) (*domain.Image, error) {
	if ownerID == "" {
		return nil, domain.ErrTokenMissing
	}
	if content.IsEmpty() {
		return nil, domain.NewValidationError("at least one of data, contentType, location or description must be provided")
	}

	remote, err := callGateway(ctx, uc.gatewayTimeout, "create image", func(gctx context.Context) (*domain.RemoteImage, error) {
		return uc.gateway.CreateImage(gctx, content)
	})
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка создания изображения в удалённом хранилище: %w", err)
	}

	image := &domain.Image{
		RemoteID:    remote.ID,
		OwnerID:     ownerID,
		ImageURL:    remote.URL,
		Location:    content.Location,
		Description: content.Description,
	}

	// удалённая операция уже подтверждена, отмена клиентом не должна прервать локальную запись
	localCtx := context.WithoutCancel(ctx)
	if err := uc.images.CreateImage(localCtx, image); err != nil {
		uc.reportDivergence(localCtx, domain.OperationCreate, remote.ID, ownerID, err)
		return nil, fmt.Errorf("usecase: ошибка сохранения изображения %s в локальной БД: %w", remote.ID, err)
	}

	uc.logger.Info("image created", "remote_id", image.RemoteID, "owner_id", ownerID)
	return image, nil
}

func (uc *imageUseCase) ReplaceImage(ctx context.Context, ownerID, remoteID string, content domain.ImageContent) (*domain.Image, error) {
	if content.IsEmpty() {
		return nil, domain.NewValidationError("at least one of data, contentType, location or description must be provided")
	}
	if _, err := uc.findOwned(ctx, ownerID, remoteID); err != nil {
		return nil, err
	}

	remote, err := callGateway(ctx, uc.gatewayTimeout, "replace image", func(gctx context.Context) (*domain.RemoteImage, error) {
		return uc.gateway.ReplaceImage(gctx, remoteID, content)
	})
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка замены изображения %s в удалённом хранилище: %w", remoteID, err)
	}

	update := domain.ImageUpdate{Location: &content.Location, Description: &content.Description}
	if remote != nil && remote.URL != "" {
		update.ImageURL = &remote.URL
	}

	return uc.applyLocalUpdate(ctx, domain.OperationReplace, ownerID, remoteID, update)
}

func (uc *imageUseCase) PatchImage(ctx context.Context, ownerID, remoteID string, patch domain.ImagePatch) (*domain.Image, error) {
	if patch.IsEmpty() {
		return nil, domain.NewValidationError("at least one of data, contentType, location or description must be present")
	}
	existing, err := uc.findOwned(ctx, ownerID, remoteID)
	if err != nil {
		return nil, err
	}

	remote, err := callGateway(ctx, uc.gatewayTimeout, "patch image", func(gctx context.Context) (*domain.RemoteImage, error) {
		return uc.gateway.PatchImage(gctx, remoteID, patch)
	})
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка частичного обновления изображения %s в удалённом хранилище: %w", remoteID, err)
	}

	// локально меняются ровно переданные поля
	update := domain.ImageUpdate{Location: patch.Location, Description: patch.Description}
	contentChanged := patch.Data != nil || patch.ContentType != nil
	if contentChanged && remote != nil && remote.URL != "" && remote.URL != existing.ImageURL {
		update.ImageURL = &remote.URL
	}
	if update.IsEmpty() {
		return existing, nil
	}

	return uc.applyLocalUpdate(ctx, domain.OperationPatch, ownerID, remoteID, update)
}

func (uc *imageUseCase) DeleteImage(ctx context.Context, ownerID, remoteID string) error {
	if _, err := uc.findOwned(ctx, ownerID, remoteID); err != nil {
		return err
	}

	_, err := callGateway(ctx, uc.gatewayTimeout, "delete image", func(gctx context.Context) (*domain.RemoteImage, error) {
		return nil, uc.gateway.DeleteImage(gctx, remoteID)
	})
	if err != nil {
		return fmt.Errorf("usecase: ошибка удаления изображения %s из удалённого хранилища: %w", remoteID, err)
	}

	localCtx := context.WithoutCancel(ctx)
	deleted, err := uc.images.DeleteImage(localCtx, remoteID, ownerID)
	if err != nil {
		uc.reportDivergence(localCtx, domain.OperationDelete, remoteID, ownerID, err)
		return fmt.Errorf("usecase: ошибка удаления изображения %s из локальной БД: %w", remoteID, err)
	}
	if deleted == nil {
		// запись исчезла между поиском и удалением: параллельное удаление
		uc.logger.Warn("image vanished before local delete", "remote_id", remoteID)
		return fmt.Errorf("usecase: изображение %s: %w", remoteID, domain.ErrNotFound)
	}

	uc.logger.Info("image deleted", "remote_id", remoteID, "owner_id", ownerID)
	return nil
}

func (uc *imageUseCase) GetImage(ctx context.Context, ownerID, remoteID string) (*domain.Image, error) {
	return uc.findOwned(ctx, ownerID, remoteID)
}

func (uc *imageUseCase) ListImages(ctx context.Context, ownerID string, page, perPage int) ([]domain.Image, error) {
	if ownerID == "" {
		return nil, domain.ErrTokenMissing
	}
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	images, err := uc.images.ListImagesByOwner(ctx, ownerID, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка получения списка изображений: %w", err)
	}
	if images == nil {
		images = []domain.Image{}
	}
	return images, nil
}

// findOwned ищет запись по паре (remoteID, ownerID).
// Чужая запись и отсутствующая неразличимы: обе дают domain.ErrNotFound.
func (uc *imageUseCase) findOwned(ctx context.Context, ownerID, remoteID string) (*domain.Image, error) {
	if ownerID == "" {
		return nil, domain.ErrTokenMissing
	}
	image, err := uc.images.FindImage(ctx, remoteID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("usecase: ошибка поиска изображения %s: %w", remoteID, err)
	}
	if image == nil {
		return nil, fmt.Errorf("usecase: изображение %s: %w", remoteID, domain.ErrNotFound)
	}
	return image, nil
}

func (uc *imageUseCase) applyLocalUpdate(ctx context.Context, op domain.ImageOperation, ownerID, remoteID string, update domain.ImageUpdate) (*domain.Image, error) {
	localCtx := context.WithoutCancel(ctx)
	updated, err := uc.images.UpdateImage(localCtx, remoteID, ownerID, update)
	if err != nil {
		uc.reportDivergence(localCtx, op, remoteID, ownerID, err)
		return nil, fmt.Errorf("usecase: ошибка обновления изображения %s в локальной БД: %w", remoteID, err)
	}
	if updated == nil {
		uc.logger.Warn("image vanished before local update", "remote_id", remoteID, "operation", op)
		return nil, fmt.Errorf("usecase: изображение %s: %w", remoteID, domain.ErrNotFound)
	}

	uc.logger.Info("image updated", "remote_id", remoteID, "operation", op)
	return updated, nil
}

// reportDivergence фиксирует, что удалённое хранилище опережает локальный индекс.
// Это отчёт, а не восстановление; сбой публикации только логируется.
func (uc *imageUseCase) reportDivergence(ctx context.Context, op domain.ImageOperation, remoteID, ownerID string, cause error) {
	uc.logger.Error("remote store applied change but local index write failed",
		"operation", op,
		"remote_id", remoteID,
		"owner_id", ownerID,
		"error", cause,
	)
	if uc.divergences == nil {
		return
	}

	payload := payloads.ImageDivergencePayload{
		Operation:  string(op),
		RemoteID:   remoteID,
		OwnerID:    ownerID,
		Reason:     cause.Error(),
		OccurredAt: time.Now().UTC(),
	}
	if err := uc.divergences.PublishImageDivergence(ctx, payload); err != nil {
		uc.logger.Error("failed to publish divergence report", "remote_id", remoteID, "error", err)
	}
}

// callGateway выполняет удалённый вызов с таймаутом.
// Ошибки, не описанные адаптером, приводятся к domain.UpstreamError, таймаут ведёт себя как не-2xx ответ.
func callGateway(
	ctx context.Context,
	timeout time.Duration,
	op string,
	call func(context.Context) (*domain.RemoteImage, error),
) (*domain.RemoteImage, error) {
	gctx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		gctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	remote, err := call(gctx)
	if err != nil {
		if errors.Is(err, domain.ErrUpstream) || errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		return nil, &domain.UpstreamError{Op: op, Err: err}
	}
	return remote, nil
}
