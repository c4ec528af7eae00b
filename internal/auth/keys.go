package auth

import (
	"crypto"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// LoadKeyMaterial возвращает PEM ключа: inline значение имеет приоритет над файлом.
// В inline значении допускаются экранированные переводы строк (\n), как их пишут в .env.
func LoadKeyMaterial(inline, path string) ([]byte, error) {
	if inline != "" {
		return []byte(strings.ReplaceAll(inline, `\n`, "\n")), nil
	}
	if path == "" {
		return nil, errors.New("key material is not configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ключа %s: %w", path, err)
	}
	return data, nil
}

// parsePrivateKey разбирает PEM закрытого ключа и подбирает к нему алгоритм подписи.
func parsePrivateKey(pemData []byte) (crypto.PrivateKey, jwt.SigningMethod, error) {
	if rsaKey, err := jwt.ParseRSAPrivateKeyFromPEM(pemData); err == nil {
		return rsaKey, jwt.SigningMethodRS256, nil
	}
	edKey, err := jwt.ParseEdPrivateKeyFromPEM(pemData)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errUnsupportedKey, err)
	}
	return edKey, jwt.SigningMethodEdDSA, nil
}

// parsePublicKey разбирает PEM открытого ключа и подбирает к нему алгоритм проверки.
func parsePublicKey(pemData []byte) (crypto.PublicKey, jwt.SigningMethod, error) {
	if rsaKey, err := jwt.ParseRSAPublicKeyFromPEM(pemData); err == nil {
		return rsaKey, jwt.SigningMethodRS256, nil
	}
	edKey, err := jwt.ParseEdPublicKeyFromPEM(pemData)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errUnsupportedKey, err)
	}
	return edKey, jwt.SigningMethodEdDSA, nil
}

var errUnsupportedKey = errors.New("expected an RSA or Ed25519 key in PEM format")
