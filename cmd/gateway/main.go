// Command gateway serves the MindConnect client session over HTTP so a
// browser never holds the backend token.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"mindconnect/internal/config"
	"mindconnect/internal/handler"
	"mindconnect/internal/logging"
	"mindconnect/internal/middleware"
	"mindconnect/internal/store"
	"mindconnect/internal/store/postgres"
	"mindconnect/internal/store/sqlite"
	"mindconnect/internal/telemetry"
)

// purger drops state under a key prefix that has not been written since before.
type purger interface {
	Purge(ctx context.Context, prefix string, before time.Time) (int64, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	log := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err := cfg.ValidateGateway(); err != nil {
		log.Error("config", "err", err)
		os.Exit(1)
	}
	if err := run(cfg, log); err != nil {
		log.Error("gateway stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := telemetry.Setup(ctx, "mindconnect-gateway", cfg.OTel.Endpoint, cfg.OTel.Insecure, log)
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(tctx)
	}()

	kv, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()
	if p, ok := kv.(purger); ok {
		go purgeLoop(ctx, p, cfg.Gateway.SessionTTL, log)
	}
	if cfg.StoreKey != "" {
		key, err := store.ParseKey(cfg.StoreKey)
		if err != nil {
			return err
		}
		kv = store.Sealed(kv, key)
		log.Info("session state sealed at rest")
	}

	rl := middleware.NewRateLimiter(ctx, float64(cfg.Gateway.RateRPS), cfg.Gateway.RateBurst)
	h := handler.New(handler.Options{
		APIURL:     cfg.APIURL,
		Secret:     cfg.Gateway.Secret,
		SessionTTL: cfg.Gateway.SessionTTL,
		Store:      kv,
		Limiter:    rl,
		Log:        log,
		Secure:     cfg.Gateway.SecureCookie,

		AllowedOrigins: cfg.Gateway.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Gateway.Port,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info("gateway listening", "addr", srv.Addr, "api", cfg.APIURL, "store", cfg.Gateway.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (store.KV, func(), error) {
	switch cfg.Gateway.Store {
	case "sqlite":
		st, err := sqlite.Open(ctx, cfg.Gateway.StatePath)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite: %w", err)
		}
		log.Info("using sqlite session store", "path", cfg.Gateway.StatePath)
		return st, func() { _ = st.Close() }, nil
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Gateway.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("db: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("db ping: %w", err)
		}
		st, err := postgres.New(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("connected to postgres")
		return st, pool.Close, nil
	}
	return store.NewMemory(), func() {}, nil
}

// purgeLoop removes gateway state older than one session lifetime, once an
// hour. Keys outside the gateway prefix are left alone.
func purgeLoop(ctx context.Context, p purger, ttl time.Duration, log *slog.Logger) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := p.Purge(ctx, handler.KeyPrefix, now.Add(-ttl))
			if err != nil {
				log.Warn("purge session state failed", "err", err)
				continue
			}
			if n > 0 {
				log.Info("purged stale session state", "rows", n)
			}
		}
	}
}
