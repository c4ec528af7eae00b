package usecase

import (
	"context"
	"time"

	"github.com/GoArmGo/PictureIt/internal/domain"
)

// IdentityVerifier проверяет пару логин/пароль
type IdentityVerifier interface {
	Verify(ctx context.Context, username, password string) (*domain.User, error)
}

// TokenIssuer выпускает подписанный токен для id пользователя
type TokenIssuer interface {
	Issue(userID string) (token string, expiresAt time.Time, err error)
}

// RegisterInput данные регистрации, уже прошедшие проверку формата
type RegisterInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Email     string
}

// LoginResult результат успешного входа
type LoginResult struct {
	User        *domain.User
	AccessToken string
	ExpiresAt   time.Time
}

// AccountUseCase определяет бизнес-логику учётных записей
type AccountUseCase interface {
	// Register создаёт пользователя; пароль хэшируется ровно один раз
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)

	// Login проверяет учётные данные и выпускает токен доступа.
	// Неизвестный пользователь и неверный пароль дают одинаковый domain.ErrInvalidCredentials
	Login(ctx context.Context, username, password string) (*LoginResult, error)
}
