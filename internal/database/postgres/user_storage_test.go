package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/GoArmGo/PictureIt/internal/domain"
	"github.com/GoArmGo/PictureIt/internal/logger"
)

func newMockStorage(t *testing.T) (*GormUserStorage, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db}), &gorm.Config{
		TranslateError:         true,
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return NewGormUserStorage(gdb, logger.Discard()), mock
}

func TestCreateUser_OK(t *testing.T) {
	storage, mock := newMockStorage(t)

	mock.ExpectExec(`(?s)^INSERT INTO "users"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user := &domain.User{
		Username:     "alice1",
		PasswordHash: "$2a$10$hash",
		FirstName:    "Alice",
		LastName:     "Liddell",
		Email:        "alice@example.com",
	}
	err := storage.CreateUser(context.Background(), user)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_Duplicate(t *testing.T) {
	storage, mock := newMockStorage(t)

	mock.ExpectExec(`(?s)^INSERT INTO "users"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := storage.CreateUser(context.Background(), &domain.User{Username: "alice1", Email: "alice@example.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_OtherError(t *testing.T) {
	storage, mock := newMockStorage(t)

	mock.ExpectExec(`(?s)^INSERT INTO "users"`).
		WillReturnError(errors.New("connection reset"))

	err := storage.CreateUser(context.Background(), &domain.User{Username: "alice1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrDuplicate)
}

func TestGetUserByUsername_Found(t *testing.T) {
	storage, mock := newMockStorage(t)

	id := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "username", "password_hash", "first_name", "last_name", "email", "created_at", "updated_at"}).
		AddRow(id.String(), "alice1", "$2a$10$hash", "Alice", "Liddell", "alice@example.com", now, now)

	mock.ExpectQuery(`(?s)^SELECT \* FROM "users" WHERE username = \$1`).
		WillReturnRows(rows)

	user, err := storage.GetUserByUsername(context.Background(), "alice1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "$2a$10$hash", user.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByUsername_NotFound(t *testing.T) {
	storage, mock := newMockStorage(t)

	mock.ExpectQuery(`(?s)^SELECT \* FROM "users" WHERE username = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	user, err := storage.GetUserByUsername(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, user)
}
