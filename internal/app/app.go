package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/GoArmGo/PictureIt/internal/config"
	"github.com/GoArmGo/PictureIt/internal/core/ports"
	"github.com/GoArmGo/PictureIt/internal/usecase"
)

// App собранное приложение одного из режимов: auth, resource или worker.
type App struct {
	Config      *config.Config
	mode        string
	logger      *slog.Logger
	handler     http.Handler
	consumer    ports.DivergenceConsumer
	divergences usecase.DivergenceUseCase
	closers     []io.Closer
}

// NewApp создаёт App. Для HTTP-режимов нужен handler, для worker consumer и divergences.
func NewApp(
	cfg *config.Config,
	mode string,
	logger *slog.Logger,
	handler http.Handler,
	consumer ports.DivergenceConsumer,
	divergences usecase.DivergenceUseCase,
	closers ...io.Closer,
) *App {
	return &App{
		Config:      cfg,
		mode:        mode,
		logger:      logger,
		handler:     handler,
		consumer:    consumer,
		divergences: divergences,
		closers:     closers,
	}
}

// LoggerIns возвращает основной логгер приложения
func (a *App) LoggerIns() *slog.Logger {
	return a.logger
}

// Run блокируется до SIGINT/SIGTERM или отмены ctx, затем освобождает ресурсы
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("starting", "mode", a.mode)

	var err error
	switch a.mode {
	case config.ModeAuth, config.ModeResource:
		err = runServer(ctx, a.mode, ":"+a.Config.Port(a.mode), a.handler, a.logger)
	case config.ModeWorker:
		err = runWorker(ctx, a.consumer, a.divergences, a.logger)
	default:
		err = fmt.Errorf("неизвестный режим: %s (используйте 'auth', 'resource' или 'worker')", a.mode)
	}

	if closeErr := a.Shutdown(); closeErr != nil {
		a.logger.Error("error while releasing resources", "error", closeErr)
	}
	return err
}

// Shutdown закрывает все ресурсы приложения в обратном порядке
func (a *App) Shutdown() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("ошибка закрытия ресурсов: %w", errors.Join(errs...))
	}
	return nil
}
