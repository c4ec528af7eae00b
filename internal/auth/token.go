package auth

import (
	"crypto"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/GoArmGo/PictureIt/internal/domain"
)

// Claims проверенные утверждения токена.
type Claims struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenIssuer подписывает токены доступа закрытым ключом.
// Живёт только в сервисе аутентификации.
type TokenIssuer struct {
	key      crypto.PrivateKey
	method   jwt.SigningMethod
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenIssuer создаёт TokenIssuer из PEM закрытого ключа.
// Отсутствующий или битый ключ даёт ErrSigning: это ошибка развёртывания, запуск прерывается.
func NewTokenIssuer(privateKeyPEM []byte, lifetime time.Duration) (*TokenIssuer, error) {
	if len(privateKeyPEM) == 0 {
		return nil, fmt.Errorf("%w: private key is empty", domain.ErrSigning)
	}
	if lifetime <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %s", lifetime)
	}

	key, method, err := parsePrivateKey(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSigning, err)
	}

	return &TokenIssuer{
		key:      key,
		method:   method,
		lifetime: lifetime,
		now:      time.Now,
	}, nil
}

// Algorithm возвращает имя алгоритма подписи (RS256 или EdDSA).
func (i *TokenIssuer) Algorithm() string {
	return i.method.Alg()
}

// Issue выпускает токен, в котором sub равен неизменяемому id пользователя.
func (i *TokenIssuer) Issue(userID string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("token subject must not be empty")
	}

	now := i.now()
	expiresAt := now.Add(i.lifetime)

	token := jwt.NewWithClaims(i.method, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	signed, err := token.SignedString(i.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", domain.ErrSigning, err)
	}

	return signed, expiresAt.Truncate(time.Second), nil
}

// TokenVerifier проверяет подпись и срок действия токена открытым ключом.
// Состояния не хранит, каждый запрос проверяется заново.
type TokenVerifier struct {
	key    crypto.PublicKey
	method jwt.SigningMethod
	now    func() time.Time
}

// NewTokenVerifier создаёт TokenVerifier из PEM открытого ключа.
func NewTokenVerifier(publicKeyPEM []byte) (*TokenVerifier, error) {
	key, method, err := parsePublicKey(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора открытого ключа: %w", err)
	}
	return &TokenVerifier{key: key, method: method, now: time.Now}, nil
}

// Verify проверяет токен. Пустая строка даёт ErrTokenMissing, истёкший срок ErrTokenExpired,
// любая другая проблема ErrTokenInvalid.
func (v *TokenVerifier) Verify(rawToken string) (*Claims, error) {
	if rawToken == "" {
		return nil, domain.ErrTokenMissing
	}

	var registered jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(rawToken, &registered,
		func(*jwt.Token) (any, error) { return v.key, nil },
		jwt.WithValidMethods([]string{v.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", domain.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}

	if registered.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", domain.ErrTokenInvalid)
	}

	claims := &Claims{UserID: registered.Subject}
	if registered.IssuedAt != nil {
		claims.IssuedAt = registered.IssuedAt.Time
	}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}
	return claims, nil
}
