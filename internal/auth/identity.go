package auth

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/GoArmGo/PictureIt/internal/domain"
)

// PasswordCost стоимость bcrypt для новых паролей.
const PasswordCost = bcrypt.DefaultCost

// HashPassword вычисляет bcrypt-хэш пароля, соль генерируется bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(passwordInput(password), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("ошибка хэширования пароля: %w", err)
	}
	return string(hash), nil
}

// ComparePassword сверяет пароль с хэшем из HashPassword.
func ComparePassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), passwordInput(password))
}

// passwordInput сводит пароль любой длины к 44 байтам:
// bcrypt не принимает больше 72 байт, а пароль может быть до 256 символов.
func passwordInput(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

// UserLookup источник учётных записей для проверки входа.
type UserLookup interface {
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// IdentityVerifier проверяет пару логин/пароль.
// Неизвестный пользователь и неверный пароль возвращают одну и ту же ошибку.
type IdentityVerifier struct {
	users     UserLookup
	dummyHash []byte
}

// NewIdentityVerifier создаёт IdentityVerifier поверх хранилища пользователей.
func NewIdentityVerifier(users UserLookup) (*IdentityVerifier, error) {
	// хэш для сравнения, когда пользователя нет: обе ветки стоят один bcrypt
	dummy, err := bcrypt.GenerateFromPassword(passwordInput("pictureit-dummy-password"), PasswordCost)
	if err != nil {
		return nil, fmt.Errorf("ошибка подготовки хэша-заглушки: %w", err)
	}
	return &IdentityVerifier{users: users, dummyHash: dummy}, nil
}

// Verify возвращает пользователя при совпадении пароля, иначе domain.ErrInvalidCredentials.
// Ошибки хранилища пробрасываются как есть и не маскируются под неверные данные.
func (v *IdentityVerifier) Verify(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := v.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска пользователя: %w", err)
	}

	if user == nil {
		_ = bcrypt.CompareHashAndPassword(v.dummyHash, passwordInput(password))
		return nil, domain.ErrInvalidCredentials
	}

	// битый хэш в записи тоже отказ: наружу различие не выходит
	if err := ComparePassword(user.PasswordHash, password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return user, nil
}
