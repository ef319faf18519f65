package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"

	database "github.com/xtinalang/weather-dashboard-sub000/app/db"
	appLogger "github.com/xtinalang/weather-dashboard-sub000/app/logger"
	"github.com/xtinalang/weather-dashboard-sub000/app/observability/metrics"
	"github.com/xtinalang/weather-dashboard-sub000/app/tracer"
	"github.com/xtinalang/weather-dashboard-sub000/config"
	"github.com/xtinalang/weather-dashboard-sub000/internal/api/location"
	"github.com/xtinalang/weather-dashboard-sub000/internal/api/resolve"
	"github.com/xtinalang/weather-dashboard-sub000/internal/api/settings"
	"github.com/xtinalang/weather-dashboard-sub000/internal/api/weather"
	"github.com/xtinalang/weather-dashboard-sub000/internal/router"
)

func main() {
	// Use standard log until slog is configured, in case godotenv fails
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := setupLogger()
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Observability ---
	if err := tracer.InitTracingAndMetrics(cfg.Handlers.Prometheus.Port, logger); err != nil {
		logger.Error("Failed to initialize tracing and metrics", slog.Any("error", err))
		os.Exit(1)
	}
	metrics.InitAppMetrics()

	// --- Database Setup ---
	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		os.Exit(1)
	}

	// Run migrations *before* initializing the main pool
	if err := database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if !database.WaitForDB(ctx, pool, logger) {
		logger.Error("Database not ready after waiting, exiting.")
		os.Exit(1)
	}

	// --- Dependency Injection ---
	locationRepo := location.NewPostgresLocationRepository(pool, logger)
	locationSvc := location.NewLocationService(locationRepo, cfg.Resolver.Tolerance, logger)

	settingsRepo := settings.NewPostgresSettingsRepository(pool, logger)
	settingsSvc := settings.NewSettingsService(settingsRepo, logger)

	weatherClient, err := weather.NewClient(weather.ClientConfig{
		BaseURL:        cfg.Weather.BaseURL,
		APIKey:         os.Getenv("WEATHER_API_KEY"),
		Timeout:        cfg.Weather.Timeout,
		SearchCacheTTL: cfg.Weather.SearchCacheTTL,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize weather client", slog.Any("error", err))
		os.Exit(1)
	}

	weatherRepo := weather.NewPostgresWeatherRepository(pool, logger)
	weatherSvc := weather.NewWeatherService(weatherClient, weatherRepo, locationSvc, settingsSvc, logger)

	workflow := resolve.NewWorkflow(weatherClient, locationSvc, logger)

	routerConfig := &router.Config{
		ResolveHandler:  resolve.NewResolveHandler(workflow, metrics.Get(), logger),
		LocationHandler: location.NewLocationHandler(locationSvc, logger),
		WeatherHandler:  weather.NewWeatherHandler(weatherSvc, locationSvc, logger),
		SettingsHandler: settings.NewSettingsHandler(settingsSvc, logger),
	}
	mainRouter := router.SetupRouter(routerConfig)

	mux := chi.NewMux()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(appLogger.StructuredLogger(logger))
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.StripSlashes)
	mux.Use(middleware.Timeout(60 * time.Second))
	mux.Use(middleware.Compress(5, "application/json"))
	mux.Mount("/", mainRouter)

	// --- HTTP Server Setup ---
	serverAddress := fmt.Sprintf(":%s", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", serverAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server ListenAndServe: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutdown signal received, starting graceful shutdown...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server graceful shutdown: %w", err)
		}
		logger.Info("HTTP server gracefully stopped")
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server exited with error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("Application shut down complete.")
}

// setupLogger configures and returns the application logger.
func setupLogger() *slog.Logger {
	var logger *slog.Logger
	env := os.Getenv("APP_ENV")

	if env == "development" || env == "" { // Default to development if not set
		// Colored logs for development
		tintOpts := &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}
		logger = slog.New(tint.NewHandler(os.Stdout, tintOpts))
		log.Println("Initialized development logger (tint)")
	} else {
		// JSON logs for production or other environments
		jsonOpts := &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: false,
		}
		logger = slog.New(slog.NewJSONHandler(os.Stdout, jsonOpts))
		log.Println("Initialized production logger (JSON)")
	}
	return logger
}
