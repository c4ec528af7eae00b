package domain

import (
	"time"

	"github.com/google/uuid"
)

// Image представляет локальную запись метаданных изображения,
// соответствует таблице images в бд сервиса ресурсов.
// RemoteID назначается удалённым хранилищем и служит внешним ключом.
type Image struct {
	ID          uuid.UUID `json:"id" db:"id"`
	RemoteID    string    `json:"imageId" db:"remote_id"`
	OwnerID     string    `json:"userId" db:"owner_id"`
	ImageURL    string    `json:"imageUrl" db:"image_url"`
	Location    string    `json:"location" db:"location"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// ImageContent полное содержимое изображения для создания или замены.
// Data содержит данные в base64, как их принимает удалённое хранилище.
type ImageContent struct {
	Data        string
	ContentType string
	Location    string
	Description string
}

// IsEmpty сообщает, что ни одно поле не заполнено.
func (c ImageContent) IsEmpty() bool {
	return c.Data == "" && c.ContentType == "" && c.Location == "" && c.Description == ""
}

// ImagePatch частичное обновление: nil означает "поле не передано".
type ImagePatch struct {
	Data        *string
	ContentType *string
	Location    *string
	Description *string
}

// IsEmpty сообщает, что ни одно поле не передано.
func (p ImagePatch) IsEmpty() bool {
	return p.Data == nil && p.ContentType == nil && p.Location == nil && p.Description == nil
}

// RemoteImage ответ удалённого хранилища о сохранённом объекте.
type RemoteImage struct {
	ID          string
	URL         string
	ContentType string
	Location    string
	Description string
}

// ImageUpdate набор локальных полей для обновления записи, nil поля не трогаются.
type ImageUpdate struct {
	ImageURL    *string
	Location    *string
	Description *string
}

// IsEmpty сообщает, что обновлять нечего.
func (u ImageUpdate) IsEmpty() bool {
	return u.ImageURL == nil && u.Location == nil && u.Description == nil
}
