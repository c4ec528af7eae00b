package di

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/GoArmGo/PictureIt/internal/adapter/picture"
	"github.com/GoArmGo/PictureIt/internal/adapter/storage/minio"
	"github.com/GoArmGo/PictureIt/internal/app"
	"github.com/GoArmGo/PictureIt/internal/auth"
	"github.com/GoArmGo/PictureIt/internal/config"
	"github.com/GoArmGo/PictureIt/internal/core/ports"
	"github.com/GoArmGo/PictureIt/internal/database/client"
	"github.com/GoArmGo/PictureIt/internal/database/migrations"
	"github.com/GoArmGo/PictureIt/internal/database/postgres"
	"github.com/GoArmGo/PictureIt/internal/database/storage"
	"github.com/GoArmGo/PictureIt/internal/handler"
	"github.com/GoArmGo/PictureIt/internal/logger"
	"github.com/GoArmGo/PictureIt/internal/messaging"
	"github.com/GoArmGo/PictureIt/internal/rabbitmq"
	"github.com/GoArmGo/PictureIt/internal/usecase"
)

const (
	authMigrationsTable     = "auth_schema_migrations"
	resourceMigrationsTable = "resource_schema_migrations"
)

// BuildApp инициализирует зависимости выбранного режима и возвращает готовый объект App.
// Закрытый ключ читается только в режиме auth.
func BuildApp(ctx context.Context, mode string) (*app.App, error) {
	// 1. Загрузка и проверка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(mode); err != nil {
		return nil, fmt.Errorf("некорректная конфигурация для режима %s: %w", mode, err)
	}

	slogger := logger.NewSlog(logger.SlogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	slogger.Info("logger initialized", "level", cfg.LogLevel, "format", cfg.LogFormat, "mode", mode)

	var application *app.App
	switch mode {
	case config.ModeAuth:
		application, err = buildAuth(cfg, slogger)
	case config.ModeResource:
		application, err = buildResource(ctx, cfg, slogger)
	case config.ModeWorker:
		application, err = buildWorker(cfg, slogger)
	default:
		err = fmt.Errorf("неизвестный режим: %s (используйте 'auth', 'resource' или 'worker')", mode)
	}
	if err != nil {
		return nil, err
	}

	slogger.Info("all dependencies initialized", "mode", mode)
	return application, nil
}

func routerConfig(cfg *config.Config) handler.RouterConfig {
	return handler.RouterConfig{
		BasePath:       cfg.BasePath,
		RequestTimeout: cfg.RequestTimeout,
		Production:     cfg.IsProduction(),
	}
}

func buildAuth(cfg *config.Config, log *slog.Logger) (*app.App, error) {
	if err := client.ApplyMigrations(cfg.DatabaseURL, migrations.Auth, "auth", authMigrationsTable, log); err != nil {
		return nil, err
	}

	db, err := postgres.NewClient(cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}

	privateKey, err := auth.LoadKeyMaterial(cfg.Token.PrivateKey, cfg.Token.PrivateKeyFile)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	issuer, err := auth.NewTokenIssuer(privateKey, cfg.Token.AccessTokenLife)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("token issuer ready", "algorithm", issuer.Algorithm(), "lifetime", cfg.Token.AccessTokenLife)

	users := postgres.NewGormUserStorage(db.DB, log)
	identity, err := auth.NewIdentityVerifier(users)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	accounts := usecase.NewAccountUseCase(users, identity, issuer, log)
	router := handler.NewAuthRouter(routerConfig(cfg), handler.NewAuthHandler(accounts, cfg.IsProduction(), log), log)

	return app.NewApp(cfg, config.ModeAuth, log, router, nil, nil, db), nil
}

func buildResource(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app.App, error) {
	if err := client.ApplyMigrations(cfg.DatabaseURL, migrations.Resource, "resource", resourceMigrationsTable, log); err != nil {
		return nil, err
	}

	publicKey, err := auth.LoadKeyMaterial(cfg.Token.PublicKey, cfg.Token.PublicKeyFile)
	if err != nil {
		return nil, err
	}
	verifier, err := auth.NewTokenVerifier(publicKey)
	if err != nil {
		return nil, err
	}

	gateway, err := buildGateway(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	db, err := client.NewClient(cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}
	closers := []io.Closer{db}

	var publisher ports.DivergencePublisher
	if cfg.RabbitMQ.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(cfg.RabbitMQ.RabbitMQURL, cfg.RabbitMQ.RabbitMQQueueName, log)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		publisher = mq
		closers = append(closers, mq)
	} else {
		log.Warn("RABBITMQ_URL is not set, divergence reports will only be logged")
		publisher = messaging.NewLogPublisher(log)
	}

	images := usecase.NewImageUseCase(
		storage.NewImageStorage(db.DB, log),
		gateway,
		publisher,
		cfg.Gateway.Timeout,
		log,
	)
	router := handler.NewResourceRouter(routerConfig(cfg), handler.NewImageHandler(images, cfg.IsProduction(), log), verifier, log)

	return app.NewApp(cfg, config.ModeResource, log, router, nil, nil, closers...), nil
}

// buildGateway выбирает драйвер удалённого хранилища по CONTENT_BACKEND
func buildGateway(ctx context.Context, cfg *config.Config, log *slog.Logger) (ports.ContentGateway, error) {
	switch cfg.Gateway.Backend {
	case config.BackendS3:
		log.Info("content backend selected", "backend", config.BackendS3, "bucket", cfg.Minio.BucketName)
		return minio.NewMinioClient(ctx, cfg, log)
	case config.BackendHTTP:
		log.Info("content backend selected", "backend", config.BackendHTTP, "base_url", cfg.Gateway.BaseURL)
		return picture.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.PrivateToken, cfg.Gateway.Timeout, log), nil
	default:
		return nil, fmt.Errorf("неизвестный CONTENT_BACKEND: %s", cfg.Gateway.Backend)
	}
}

func buildWorker(cfg *config.Config, log *slog.Logger) (*app.App, error) {
	if err := client.ApplyMigrations(cfg.DatabaseURL, migrations.Resource, "resource", resourceMigrationsTable, log); err != nil {
		return nil, err
	}

	db, err := client.NewClient(cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}

	mq, err := rabbitmq.NewClient(cfg.RabbitMQ.RabbitMQURL, cfg.RabbitMQ.RabbitMQQueueName, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	divergences := usecase.NewDivergenceUseCase(storage.NewDivergenceStorage(db.DB, log), log)

	return app.NewApp(cfg, config.ModeWorker, log, nil, mq, divergences, db, mq), nil
}
