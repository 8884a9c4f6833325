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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/fxlens/fx-engine/data"
	"github.com/fxlens/fx-engine/internal/config"
	"github.com/fxlens/fx-engine/internal/dashboard"
	"github.com/fxlens/fx-engine/internal/metrics"
	"github.com/fxlens/fx-engine/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	// --- Initialize store ---
	var st store.Store
	var cleanup []func()

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		st = store.NewPostgresStore(pool)
		slog.Info("connected to PostgreSQL")

		// Wrap with Redis read-through cache if configured.
		if cfg.RedisURL != "" {
			opt, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				slog.Error("invalid redis url", "err", err)
				os.Exit(1)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			cached := store.NewCachedStore(st, rdb, cfg.CacheTTL)
			cached.ObserveCache(
				func() { metrics.CacheHits.Inc() },
				func() { metrics.CacheMisses.Inc() },
			)
			st = cached
			slog.Info("Redis bundle cache enabled", "ttl", cfg.CacheTTL)
		}
	} else {
		slog.Warn("FX_DATABASE_URL not set, using in-memory store (data will not persist)")
		st = store.NewMemoryStore()
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Seed bundles ---
	if !cfg.SkipSeed {
		if err := seedStore(context.Background(), st); err != nil {
			slog.Error("seed load failed", "err", err)
			os.Exit(1)
		}
	}

	// --- WebSocket hub ---
	wsHub := dashboard.NewWSHub()
	go wsHub.Run()

	// --- Dashboard service ---
	svc := dashboard.NewService(st, wsHub)

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(metrics.Middleware)

	// CORS middleware for the dashboard frontend.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"fx-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", svc.Routes)

	// --- Server ---
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		slog.Info("fx-engine listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	slog.Info("shutting down fx-engine...")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("fx-engine stopped")
}

// seedStore loads the embedded bundles into the store, skipping base
// quarters that already have a bundle so restarts never clobber ingested
// revisions.
func seedStore(ctx context.Context, st store.Store) error {
	bundles, err := data.SeedBundles()
	if err != nil {
		return err
	}
	for _, b := range bundles {
		if _, err := st.GetBundle(ctx, b.BaseQuarter); err == nil {
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		b.RevisionID = uuid.New().String()
		b.LastUpdated = time.Now().UTC()
		if err := st.SaveBundle(ctx, b); err != nil {
			return err
		}
		slog.Info("seed bundle loaded", "base_quarter", b.BaseQuarter)
	}
	if labels, err := st.ListQuarters(ctx); err == nil {
		metrics.StoredQuarters.Set(float64(len(labels)))
	}
	return nil
}
