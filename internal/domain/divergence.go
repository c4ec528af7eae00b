package domain

import (
	"time"

	"github.com/google/uuid"
)

// ImageOperation операция синхронизации, после которой возможна рассинхронизация.
type ImageOperation string

const (
	OperationCreate  ImageOperation = "create"
	OperationReplace ImageOperation = "replace"
	OperationPatch   ImageOperation = "patch"
	OperationDelete  ImageOperation = "delete"
)

// ImageDivergence фиксирует случай, когда удалённое хранилище уже изменено,
// а локальная запись нет. Соответствует таблице image_divergences.
type ImageDivergence struct {
	ID         uuid.UUID      `json:"id" db:"id"`
	Operation  ImageOperation `json:"operation" db:"operation"`
	RemoteID   string         `json:"remoteId" db:"remote_id"`
	OwnerID    string         `json:"ownerId" db:"owner_id"`
	Reason     string         `json:"reason" db:"reason"`
	OccurredAt time.Time      `json:"occurredAt" db:"occurred_at"`
	RecordedAt time.Time      `json:"recordedAt" db:"recorded_at"`
}
