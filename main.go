package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ms-reporting/internal/auth"
	"ms-reporting/internal/config"
	"ms-reporting/internal/database"
	"ms-reporting/internal/database/migrations"
	"ms-reporting/internal/logger"
	"ms-reporting/internal/ratelimit"
	"ms-reporting/internal/reporting"
	reporting_api "ms-reporting/internal/reporting/api"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func runMigrations(ctx context.Context, cfg *config.Config, log *logger.Logger) {
	if !cfg.Migrations.AutoMigrate {
		return
	}

	// the migrate driver closes the pool it is given, so it gets its own
	sqldb, err := database.OpenPostgres(ctx, cfg.Database, log)
	if err != nil {
		log.Error("DATABASE", fmt.Sprintf("Skipping migrations: %v", err))
		return
	}

	opts := migrations.DefaultOptions()
	opts.MigrationsDir = cfg.Migrations.Dir
	runner := migrations.NewRunner(sqldb, opts, log)
	defer runner.Close()

	if err := runner.RunMigrations(); err != nil {
		log.Error("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
	}
}

func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.LogAPI(r.Method, r.URL.Path, fmt.Sprintf("%d", ww.Status()), time.Since(start).String())
		})
	}
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println(".env file not found, using environment variables")
	}

	cfg := config.Load()

	logger := logger.NewLogger(cfg.Log.Dir, cfg.Log.Service)
	defer logger.Close()
	logger.SetLevel(cfg.Log.Level)

	logger.Info("APP", "Starting Reporting Service initialization")
	ctx := context.Background()

	runMigrations(ctx, cfg, logger)

	bunDB, err := database.Connect(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	var limiter reporting_api.Limiter
	if cfg.RateLimit.Enabled {
		redisClient, err := database.ConnectRedis(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Warn("REDIS", fmt.Sprintf("Rate limiting disabled: %v", err))
		} else {
			defer redisClient.Close()
			limiter = ratelimit.New(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window)
			logger.Info("REDIS", fmt.Sprintf("Rate limit: %d requests per %s per business", cfg.RateLimit.Requests, cfg.RateLimit.Window))
		}
	}

	reportingService := reporting.NewService(reporting.NewDB(bunDB), logger)
	reportingHandler := reporting_api.NewHandler(reportingService, logger, limiter, cfg.Server.QueryTimeout)

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	// --- Public Routes ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := bunDB.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// --- Protected Routes ---
	r.Group(func(r chi.Router) {
		if cfg.Auth.Enabled {
			verifier, err := auth.NewOIDCVerifier(ctx, cfg.Auth.OIDCIssuer)
			if err != nil {
				logger.Fatal("AUTH", err.Error())
			}
			r.Use(auth.Middleware(verifier))
			logger.Info("AUTH", "OIDC middleware applied to reporting routes")
		} else {
			logger.Warn("AUTH", "Authentication disabled, reporting routes are open")
		}

		reportingHandler.RegisterRoutes(r)
		logger.Info("ROUTER", "Reporting routes registered under /api/reporting/businesses/{businessId}")
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("Reporting Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "Reporting Service shutdown complete")
	}
}
