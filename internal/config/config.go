package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Режимы запуска бинарника.
const (
	ModeAuth     = "auth"
	ModeResource = "resource"
	ModeWorker   = "worker"
)

// Бэкенды удалённого хранилища контента.
const (
	BackendHTTP = "http"
	BackendS3   = "s3"
)

const productionEnv = "production"

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	AppEnv         string        `env:"APP_ENV" envDefault:"development"`
	DatabaseURL    string        `env:"DATABASE_URL,required"`
	ServerPort     string        `env:"SERVER_PORT"` // по умолчанию зависит от режима
	BasePath       string        `env:"BASE_PATH" envDefault:"/api/v1"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"LOG_FORMAT" envDefault:"json"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	Token struct {
		PrivateKey      string        `env:"JWT_PRIVATE_KEY"`
		PrivateKeyFile  string        `env:"JWT_PRIVATE_KEY_FILE" envDefault:"./private.pem"`
		PublicKey       string        `env:"JWT_PUBLIC_KEY"`
		PublicKeyFile   string        `env:"JWT_PUBLIC_KEY_FILE" envDefault:"./public.pem"`
		AccessTokenLife time.Duration `env:"ACCESS_TOKEN_LIFE" envDefault:"1h"`
	}

	Gateway struct {
		Backend      string        `env:"CONTENT_BACKEND" envDefault:"http"`
		BaseURL      string        `env:"IMAGE_API_BASE_URL"`
		PrivateToken string        `env:"X_API_PRIVATE_TOKEN"`
		Timeout      time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"10s"`
	}

	// Настройки для MinIO, используются при CONTENT_BACKEND=s3
	Minio struct {
		Endpoint        string `env:"MINIO_ENDPOINT"`
		AccessKeyID     string `env:"MINIO_ACCESS_KEY_ID"`
		SecretAccessKey string `env:"MINIO_SECRET_ACCESS_KEY"`
		UseSSL          bool   `env:"MINIO_USE_SSL"`
		BucketName      string `env:"MINIO_BUCKET_NAME" envDefault:"images"`
		Region          string `env:"MINIO_REGION" envDefault:"us-east-1"`
		PublicURL       string `env:"MINIO_PUBLIC_URL"`
	}

	RabbitMQ struct {
		RabbitMQURL       string `env:"RABBITMQ_URL"`
		RabbitMQQueueName string `env:"RABBITMQ_QUEUE_NAME" envDefault:"image_divergence_queue"`
	}
}

// LoadConfig загружает конфигурацию из переменных окружения.
// Если рядом лежит .env файл, сначала подгружает его.
func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); !os.IsNotExist(err) {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("ошибка загрузки .env файла: %w", err)
		}
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации из окружения: %w", err)
	}

	cfg.Gateway.Backend = strings.ToLower(strings.TrimSpace(cfg.Gateway.Backend))
	cfg.BasePath = "/" + strings.Trim(cfg.BasePath, "/")

	return &cfg, nil
}

// IsProduction сообщает, что приложение запущено в боевом окружении.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, productionEnv)
}

// Port возвращает порт сервера с учётом значения по умолчанию для режима.
func (c *Config) Port(mode string) string {
	if c.ServerPort != "" {
		return c.ServerPort
	}
	if mode == ModeAuth {
		return "8081"
	}
	return "8080"
}

// Validate проверяет параметры, обязательные для конкретного режима.
func (c *Config) Validate(mode string) error {
	var errs []error

	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}

	switch mode {
	case ModeAuth:
		if c.Token.PrivateKey == "" && c.Token.PrivateKeyFile == "" {
			errs = append(errs, errors.New("JWT_PRIVATE_KEY or JWT_PRIVATE_KEY_FILE must be set"))
		}
		if c.Token.AccessTokenLife <= 0 {
			errs = append(errs, errors.New("ACCESS_TOKEN_LIFE must be positive"))
		}

	case ModeResource:
		if c.Token.PublicKey == "" && c.Token.PublicKeyFile == "" {
			errs = append(errs, errors.New("JWT_PUBLIC_KEY or JWT_PUBLIC_KEY_FILE must be set"))
		}
		if c.Gateway.Timeout <= 0 {
			errs = append(errs, errors.New("GATEWAY_TIMEOUT must be positive"))
		}
		switch c.Gateway.Backend {
		case BackendHTTP:
			if c.Gateway.BaseURL == "" {
				errs = append(errs, errors.New("IMAGE_API_BASE_URL must be set for the http content backend"))
			}
			if c.Gateway.PrivateToken == "" {
				errs = append(errs, errors.New("X_API_PRIVATE_TOKEN must be set for the http content backend"))
			}
		case BackendS3:
			if c.Minio.Endpoint == "" || c.Minio.AccessKeyID == "" || c.Minio.SecretAccessKey == "" || c.Minio.BucketName == "" {
				errs = append(errs, errors.New("MINIO_ENDPOINT, MINIO_ACCESS_KEY_ID, MINIO_SECRET_ACCESS_KEY and MINIO_BUCKET_NAME must be set for the s3 content backend"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown CONTENT_BACKEND %q (use %q or %q)", c.Gateway.Backend, BackendHTTP, BackendS3))
		}

	case ModeWorker:
		if c.RabbitMQ.RabbitMQURL == "" {
			errs = append(errs, errors.New("RABBITMQ_URL must be set in worker mode"))
		}

	default:
		errs = append(errs, fmt.Errorf("неизвестный режим: %s (используйте %q, %q или %q)", mode, ModeAuth, ModeResource, ModeWorker))
	}

	return errors.Join(errs...)
}
