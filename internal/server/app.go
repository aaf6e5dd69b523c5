// Package server initializes and runs the sync backend: it opens the
// PostgreSQL store, applies schema migrations, wires the repositories and
// services into the HTTP API, and handles graceful shutdown.
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
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/arcanadev/arcana/internal/dbx"
	"github.com/arcanadev/arcana/internal/logging"
	"github.com/arcanadev/arcana/internal/server/config"
	"github.com/arcanadev/arcana/internal/server/httpapi"
	"github.com/arcanadev/arcana/internal/server/migrations"
	"github.com/arcanadev/arcana/internal/server/repositories/cardnotes"
	"github.com/arcanadev/arcana/internal/server/repositories/folders"
	"github.com/arcanadev/arcana/internal/server/repositories/readings"
	"github.com/arcanadev/arcana/internal/server/repositories/refreshtokens"
	"github.com/arcanadev/arcana/internal/server/repositories/users"
	"github.com/arcanadev/arcana/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	api    *httpapi.Server
}

func NewApp(c *config.Config) (*App, error) {
	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	us := services.NewUsersService(db, users.NewPostgresRepository(db),
		func(q dbx.DBTX) refreshtokens.Repository { return refreshtokens.NewPostgresRepository(q) }, c)
	api := httpapi.NewServer(us,
		folders.NewPostgresRepository(db),
		readings.NewPostgresRepository(db),
		cardnotes.NewPostgresRepository(db),
		logger)

	return &App{config: c, logger: logger, db: db, api: api}, nil
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, ".")
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

	app.logger.Info(ctx, "Starting app...", "addr", app.config.EndpointAddr)

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: app.api,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error(ctx, "server error", "error", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "shutdown error", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
}
