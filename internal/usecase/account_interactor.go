package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GoArmGo/PictureIt/internal/auth"
	"github.com/GoArmGo/PictureIt/internal/core/ports"
	"github.com/GoArmGo/PictureIt/internal/domain"
)

// accountUseCase implements AccountUseCase
type accountUseCase struct {
	users    ports.UserStorage
	verifier IdentityVerifier
	issuer   TokenIssuer
	logger   *slog.Logger
}

// NewAccountUseCase создает новый экземпляр AccountUseCase
func NewAccountUseCase(users ports.UserStorage, verifier IdentityVerifier, issuer TokenIssuer, logger *slog.Logger) AccountUseCase {
	return &accountUseCase{
		users:    users,
		verifier: verifier,
		issuer:   issuer,
		logger:   logger,
	}
}

func (uc *accountUseCase) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("usecase: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Username:     strings.TrimSpace(input.Username),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := uc.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("usecase: ошибка регистрации пользователя: %w", err)
	}

	uc.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

func (uc *accountUseCase) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := uc.verifier.Verify(ctx, strings.TrimSpace(username), password)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := uc.issuer.Issue(user.ID.String())
	if err != nil {
		uc.logger.Error("failed to issue access token", "user_id", user.ID, "error", err)
		return nil, fmt.Errorf("usecase: ошибка выпуска токена: %w", err)
	}

	uc.logger.Info("user logged in", "user_id", user.ID, "expires_at", expiresAt)
	return &LoginResult{User: user, AccessToken: token, ExpiresAt: expiresAt}, nil
}
