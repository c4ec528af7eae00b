package client

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// ApplyMigrations применяет встроенные миграции из fsys/dir.
// table задаёт отдельную таблицу версий, чтобы схемы двух сервисов не пересекались в одной базе.
func ApplyMigrations(databaseURL string, fsys fs.FS, dir, table string, logger *slog.Logger) error {
	source, err := iofs.New(fsys, dir)
	if err != nil {
		return fmt.Errorf("не удалось открыть источник миграций: %w", err)
	}

	dsn, err := WithMigrationsTable(databaseURL, table)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return fmt.Errorf("не удалось создать экземпляр мигратора: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn("failed to close migrator", "source_error", srcErr, "database_error", dbErr)
		}
	}()

	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("ошибка выполнения миграций: %w", err)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("migrations are up to date", "table", table)
	} else {
		logger.Info("migrations applied", "table", table)
	}
	return nil
}

// WithMigrationsTable дописывает к DSN параметр x-migrations-table драйвера golang-migrate.
func WithMigrationsTable(databaseURL, table string) (string, error) {
	if table == "" {
		return databaseURL, nil
	}
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("некорректный DATABASE_URL: %w", err)
	}
	q := u.Query()
	q.Set("x-migrations-table", table)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
