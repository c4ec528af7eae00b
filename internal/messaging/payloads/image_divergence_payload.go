package payloads

import "time"

// ImageDivergencePayload сообщение о рассинхронизации удалённого хранилища и локального индекса,
// передаётся через RabbitMQ воркеру для записи в журнал.
type ImageDivergencePayload struct {
	Operation  string    `json:"operation"`
	RemoteID   string    `json:"remote_id"`
	OwnerID    string    `json:"owner_id"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}
