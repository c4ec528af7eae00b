package migrations

import "embed"

// Auth схема сервиса аутентификации.
//
//go:embed auth/*.sql
var Auth embed.FS

// Resource схема сервиса ресурсов.
//
//go:embed resource/*.sql
var Resource embed.FS
