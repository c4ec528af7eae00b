package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/GoArmGo/PictureIt/internal/domain"
	"github.com/GoArmGo/PictureIt/internal/usecase"
)

type imageRequest struct {
	Data        string `json:"data" validate:"omitempty,base64"`
	ContentType string `json:"contentType" validate:"max=255"`
	Location    string `json:"location" validate:"max=1024"`
	Description string `json:"description" validate:"max=4096"`
}

func (r imageRequest) toContent() domain.ImageContent {
	return domain.ImageContent{
		Data:        r.Data,
		ContentType: r.ContentType,
		Location:    r.Location,
		Description: r.Description,
	}
}

// imagePatchRequest различает отсутствующее поле (nil) и пустую строку
type imagePatchRequest struct {
	Data        *string `json:"data" validate:"omitempty,base64"`
	ContentType *string `json:"contentType" validate:"omitempty,max=255"`
	Location    *string `json:"location" validate:"omitempty,max=1024"`
	Description *string `json:"description" validate:"omitempty,max=4096"`
}

func (r imagePatchRequest) toPatch() domain.ImagePatch {
	return domain.ImagePatch{
		Data:        r.Data,
		ContentType: r.ContentType,
		Location:    r.Location,
		Description: r.Description,
	}
}

// ImageHandler обработчик HTTP-запросов для работы с изображениями.
// Владелец всегда берётся из проверенного токена.
type ImageHandler struct {
	images     usecase.ImageUseCase
	production bool
	logger     *slog.Logger
}

// NewImageHandler создаёт новый экземпляр ImageHandler.
func NewImageHandler(images usecase.ImageUseCase, production bool, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{images: images, production: production, logger: logger}
}

// List изображения текущего пользователя, пустой список не ошибка.
func (h *ImageHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	images, err := h.images.ListImages(r.Context(), UserIDFromContext(r.Context()), page, perPage)
	if err != nil {
		respondWithDomainError(w, r, err, h.production, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, images, h.logger)
}

// Create сохраняет изображение в удалённом хранилище, затем в локальном индексе.
func (h *ImageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := decodeJSON(w, r, ResourceBodyLimit, &req); err != nil {
		respondWithDomainError(w, r, err, h.production, h.logger)
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithDomainError(w, r, err, h.production, h.logger)
		return
	}

	image, err := h.images.CreateImage(r.Context(), UserIDFromContext(r.Context()), req.toContent())
	if err != nil {
		respondWithDomainError(w, r, err, h.production, h.logger)
		return
	}
	respondWithJSON(w, http.StatusCreated, image, h.logger)
}

// Get одно изображение по remote id.
func (h *ImageHandler) Get(w http.ResponseWriter, r *http.Request) {
	image, err := h.images.GetImage(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondWithDomainError(w, r, err, h.production, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, image, h.logger)
}

// Replace полная замена изображения.
func (h *ImageHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := decodeJSON(w, r, ResourceBodyLimit, &req); err != nil {
		respondWithDomainError(w, r, err, h.production, h.logger)
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithDomainError(w, r, err, h.production, h.logger)
		return
	}

	_, err := h.images.ReplaceImage(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"), req.toContent())
	if err != nil {
		respondWithDomainError(w, r, err, h.production, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Patch частичное обновление, меняются только переданные поля.
func (h *ImageHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var req imagePatchRequest
	if err := decodeJSON(w, r, ResourceBodyLimit, &req); err != nil {
		respondWithDomainError(w, r, err, h.production, h.logger)
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithDomainError(w, r, err, h.production, h.logger)
		return
	}

	_, err := h.images.PatchImage(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"), req.toPatch())
	if err != nil {
		respondWithDomainError(w, r, err, h.production, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete удаляет изображение из удалённого хранилища и локального индекса.
func (h *ImageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.images.DeleteImage(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondWithDomainError(w, r, err, h.production, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
