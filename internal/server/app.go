// Package server wires the staffkeeper components together and runs the HTTP
// server until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/staffkeeper/internal/logging"
	"github.com/dmitrijs2005/staffkeeper/internal/server/auth"
	"github.com/dmitrijs2005/staffkeeper/internal/server/config"
	"github.com/dmitrijs2005/staffkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/staffkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/staffkeeper/internal/server/rest"
	"github.com/dmitrijs2005/staffkeeper/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	closers []func() error
	http    *rest.HTTPServer
}

// newLogger returns the configured logger and a flush function.
func newLogger(cfg *config.Config) (logging.Logger, func() error, error) {
	if cfg.LogBackend == config.LogBackendZap {
		l, err := logging.NewProductionZapLogger()
		if err != nil {
			return nil, nil, fmt.Errorf("zap init error: %w", err)
		}
		// Sync reports EINVAL on stdout attached to a terminal.
		return l, func() error { _ = l.Sync(); return nil }, nil
	}
	return logging.NewJSONSlogLogger(os.Stdout), func() error { return nil }, nil
}

// newSessionStore picks the refresh-token store. The returned function
// releases whatever connection the store holds.
func newSessionStore(cfg *config.Config, db *sql.DB, rm repomanager.RepositoryManager) (refreshtokens.Repository, func() error) {
	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return refreshtokens.NewRedisRepository(rdb, refreshtokens.DefaultRedisPrefix), rdb.Close
	case config.SessionBackendMemory:
		return refreshtokens.NewMemoryRepository(), func() error { return nil }
	default:
		return rm.RefreshTokens(db), func() error { return nil }
	}
}

func tokenConfig(cfg *config.Config) auth.TokenConfig {
	return auth.TokenConfig{
		AccessSecret:  []byte(cfg.AccessTokenSecret),
		RefreshSecret: []byte(cfg.RefreshTokenSecret),
		AccessTTL:     cfg.AccessTokenValidityDuration,
		RefreshTTL:    cfg.RefreshTokenValidityDuration,
	}
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, flush, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	app := &App{config: cfg, logger: logger, closers: []func() error{flush}}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("db init error: %w", err), app.Close())
	}
	app.closers = append(app.closers, db.Close)
	app.db = db

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, errors.Join(fmt.Errorf("db ping error: %w", err), app.Close())
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, errors.Join(err, app.Close())
	}

	sessions, closeSessions := newSessionStore(cfg, db, rm)
	app.closers = append(app.closers, closeSessions)

	issuer := auth.NewIssuer(tokenConfig(cfg))
	us := services.NewUserService(db, rm, sessions, logger)
	as := services.NewAuthService(db, rm, us, sessions, issuer, logger)
	ps := services.NewPositionService(db, rm, logger)

	app.http = rest.NewHTTPServer(cfg.EndpointAddrHTTP, logger, as, us, ps, issuer, db)

	logger.Info(ctx, "App initialized",
		"session_backend", cfg.SessionBackend,
		"access_ttl", cfg.AccessTokenValidityDuration.String(),
		"refresh_ttl", cfg.RefreshTokenValidityDuration.String(),
	)
	return app, nil
}

// Close releases resources in reverse order of acquisition.
func (app *App) Close() error {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a signal arrives or the server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.logger.Info(ctx, "App stopped")
	if err := app.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
	}
}
