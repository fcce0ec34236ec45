package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/oddslock/wager-engine/internal/api"
	"github.com/oddslock/wager-engine/internal/engine"
	"github.com/oddslock/wager-engine/internal/events"
	"github.com/oddslock/wager-engine/internal/metrics"
	"github.com/oddslock/wager-engine/internal/store"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// --- Initialize store ---
	var st store.Store
	var cleanup []func()

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(context.Background(), dbURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		st = store.NewPostgresStore(pool)
		slog.Info("connected to PostgreSQL")

		// Wrap with Redis read-through cache if configured.
		if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
			opt, err := redis.ParseURL(redisURL)
			if err != nil {
				slog.Error("invalid REDIS_URL", "err", err)
				os.Exit(1)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			st = store.NewCachedStore(st, rdb, 30*time.Second)
			slog.Info("Redis cache enabled")
		}
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory store (data will not persist)")
		st = store.NewMemoryStore()
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Kafka event publisher ---
	var publisher *events.Publisher
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		publisher = events.NewPublisher(brokers)
		cleanup = append(cleanup, func() { publisher.Close() })
		slog.Info("Kafka event publishing enabled", "brokers", brokers)
	}

	// --- WebSocket hub ---
	wsHub := api.NewWSHub()
	go wsHub.Run()

	// --- Engine + HTTP server ---
	eng := engine.New(st)
	srv := api.NewServer(eng, st, wsHub, publisher)

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
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
		w.Write([]byte(`{"status":"ok","service":"wager-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket endpoint for real-time ledger updates.
		r.Get("/ws", wsHub.HandleWS)

		// Market lifecycle.
		r.Get("/markets", srv.ListMarkets)
		r.Post("/markets", srv.CreateMarket)
		r.Get("/markets/{marketID}", srv.GetMarket)
		r.Post("/markets/{marketID}/settle", srv.Settle)

		// Betting and payouts.
		r.Post("/markets/{marketID}/bets", srv.PlaceBet)
		r.Get("/markets/{marketID}/bets", srv.GetMarketBets)
		r.Post("/markets/{marketID}/claim", srv.Claim)
		r.Get("/markets/{marketID}/payout/{userID}", srv.PreviewPayout)
		r.Get("/markets/{marketID}/positions/{userID}", srv.GetPosition)

		// Per-user queries.
		r.Get("/users/{userID}/bets", srv.GetUserBets)
		r.Get("/users/{userID}/positions", srv.GetUserPositions)
	})

	// --- Server ---
	httpSrv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("wager-engine listening", "port", port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down wager-engine...")
	if err := httpSrv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("wager-engine stopped")
}
