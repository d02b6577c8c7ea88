// Package app wires the geotrack server runtime: config, logging, storage,
// sessions, HTTP routes, and the live position gateway.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	authapi "geotrack/cmd/internal/auth/api"
	"geotrack/cmd/internal/auth/session"
	"geotrack/cmd/internal/track"
	"geotrack/cmd/identity"
)

// Store is a small app-level lifecycle abstraction.
// It exists to allow DB-backed resources to be closed gracefully.
type Store interface {
	Close(ctx context.Context) error
}

// nopStore is used for in-memory store mode.
type nopStore struct{}

func (nopStore) Close(_ context.Context) error { return nil }

// App is the geotrack server runtime.
type App struct {
	cfg Config
	log Logger

	store Store

	dbPool    *pgxpool.Pool
	dbEnabled bool

	redisClient *redis.Client

	auth      *authapi.Handler
	positions *track.Handler
	live      *track.LiveHandler
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	st, dbPool, dbEnabled, identityStore, trackStore, err := newStore(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}

	closeAll := func() {
		_ = st.Close(context.Background())
	}

	redisClient, revocations, err := newRevocationStore(context.Background(), cfg, log)
	if err != nil {
		closeAll()
		return nil, err
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		closeAll()
		return nil, err
	}
	tokens, err := session.NewHMACJWTManager(sessCfg)
	if err != nil {
		closeAll()
		return nil, err
	}
	sessions := session.NewService(tokens, revocations)

	var authHandler *authapi.Handler
	if dbEnabled {
		authCfg := authapi.LoadConfigFromEnv()
		authHandler, err = authapi.NewHandler(log, identityStore, sessions, authCfg)
		if err != nil {
			closeAll()
			return nil, err
		}
	} else {
		log.Warn("auth.disabled", "reason", "no database configured")
	}

	positions := track.NewHandler(log, trackStore, sessions)
	live := track.NewLiveHandler(log, trackStore, sessions)

	return &App{
		cfg:         cfg,
		log:         log,
		store:       st,
		dbPool:      dbPool,
		dbEnabled:   dbEnabled,
		redisClient: redisClient,
		auth:        authHandler,
		positions:   positions,
		live:        live,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()

	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.redisClient, a.auth, a.positions, a.live)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           WithRequestLogging(WithSecurityHeaders(WithCORS(mux, a.cfg, a.log)), a.log),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled, "redis_enabled", a.redisClient != nil)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Error("redis.close.fail", "err", err)
		}
	}

	if err := a.store.Close(shutdownCtx); err != nil {
		a.log.Error("store.close.fail", "err", err)
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// newStore decides between Postgres-backed persistence and the in-memory dev store.
func newStore(ctx context.Context, cfg Config, log Logger) (Store, *pgxpool.Pool, bool, identity.Store, track.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")
		return nopStore{}, nil, false, nil, track.NewMemoryStore(), nil
	}

	if cfg.MigrateOnStart {
		if err := RunMigrations(ctx, cfg.DatabaseURL); err != nil {
			return nil, nil, false, nil, nil, err
		}
		log.Info("db.migrations.applied")
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, nil, false, nil, nil, err
	}

	log.Info("db.enabled.postgres_store")

	// Ownership model: app owns the pool lifecycle, the stores do not close it.
	identityStore, err := identity.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, nil, false, nil, nil, err
	}
	trackStore, err := track.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, nil, false, nil, nil, err
	}

	return dbStore{pool: pool}, pool, true, identityStore, trackStore, nil
}

// newRevocationStore picks Redis when configured, the process-local map otherwise.
// The in-memory store does not survive restarts and does not propagate
// revocations across replicas, so it is only suitable for single-process runs.
func newRevocationStore(ctx context.Context, cfg Config, log Logger) (*redis.Client, session.RevocationStore, error) {
	if cfg.RedisAddr == "" {
		log.Warn("revocation.inmemory", "hint", "set GEOTRACK_REDIS_ADDR for durable revocation")
		return nil, session.NewMemoryRevocationStore(), nil
	}

	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	log.Info("revocation.redis", "addr", cfg.RedisAddr)
	return client, session.NewRedisRevocationStore(client), nil
}

type dbStore struct {
	pool *pgxpool.Pool
}

func (s dbStore) Close(_ context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
