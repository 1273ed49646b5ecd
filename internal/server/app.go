// Package server initializes and runs the application server. It opens the
// database, runs migrations, wires the services to their backends, and starts
// the HTTP server with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"fileshare/internal/logging"
	"fileshare/internal/server/api"
	"fileshare/internal/server/auth"
	"fileshare/internal/server/config"
	"fileshare/internal/server/email"
	"fileshare/internal/server/repositories/repomanager"
	"fileshare/internal/server/services"
	"fileshare/internal/server/storage"

	"github.com/labstack/echo/v4"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	router *echo.Echo
}

func NewApp(cfg *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	capability, err := auth.NewCapabilityService([]byte(cfg.DownloadTokenSecret))
	if err != nil {
		return nil, fmt.Errorf("capability key init error: %w", err)
	}

	gateway := storage.NewS3Gateway(cfg)
	mailer := email.NewSMTPSender(cfg)

	us := services.NewUserService(db, rm, mailer, cfg)
	fs := services.NewFileService(db, rm, gateway, capability, cfg)

	handler := api.NewHandler(us, fs, db, logger)
	router := api.SetupRouter(handler, cfg)

	return &App{config: cfg, logger: logger, db: db, router: router}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := app.router.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, err.Error())
		}
	}()

	app.logger.Info(ctx, "starting HTTP server", "addr", app.config.EndpointAddr)

	if err := app.router.Start(app.config.EndpointAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
