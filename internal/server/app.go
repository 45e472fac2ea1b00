// Package server initializes and runs the file exchange server: database,
// migrations, blob sinks, services and the public HTTP endpoint, with
// graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dkruglov/fileshare/internal/logging"
	"github.com/dkruglov/fileshare/internal/server/config"
	"github.com/dkruglov/fileshare/internal/server/httpapi"
	"github.com/dkruglov/fileshare/internal/server/repositories/repomanager"
	"github.com/dkruglov/fileshare/internal/server/services"
	"github.com/dkruglov/fileshare/internal/server/storage/local"
	"github.com/dkruglov/fileshare/internal/server/storage/mirror"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	httpServer *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store, err := local.New(cfg.StorageRoot)
	if err != nil {
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	userService, err := services.NewUserService(db, rm, cfg)
	if err != nil {
		return nil, err
	}
	fileService := services.NewFileService(db, rm, store, mirror.NewS3Mirror(cfg), cfg)

	handler := httpapi.NewHandler(userService, fileService, store, logger)
	httpServer := httpapi.NewServer(cfg, logger, handler)

	return &App{
		config:     cfg,
		logger:     logger,
		db:         db,
		httpServer: httpServer,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app")

	app.initSignalHandler(cancelFunc)

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		if err := app.httpServer.Start(); err != nil {
			app.logger.Error(ctx, "http server failed", "error", err.Error())
			cancelFunc()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "shutdown error", "error", err.Error())
	}
	<-serverDone

	if err := app.db.Close(); err != nil {
		app.logger.Error(shutdownCtx, "db close error", "error", err.Error())
	}

	app.logger.Info(shutdownCtx, "app stopped")
}
