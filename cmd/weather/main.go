package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	database "github.com/xtinalang/weather-dashboard-sub000/app/db"
	"github.com/xtinalang/weather-dashboard-sub000/config"
	"github.com/xtinalang/weather-dashboard-sub000/internal/api/location"
	"github.com/xtinalang/weather-dashboard-sub000/internal/api/resolve"
	"github.com/xtinalang/weather-dashboard-sub000/internal/api/settings"
	"github.com/xtinalang/weather-dashboard-sub000/internal/api/weather"
	"github.com/xtinalang/weather-dashboard-sub000/internal/cli"
	"github.com/xtinalang/weather-dashboard-sub000/internal/types"
)

func main() {
	queryFlag := flag.String("query", "", "natural-language question, e.g. \"weather in London\"")
	placeFlag := flag.String("place", "", "literal place name to search for")
	latFlag := flag.Float64("lat", 0, "latitude (with -lon, skips search)")
	lonFlag := flag.Float64("lon", 0, "longitude (with -lat, skips search)")
	daysFlag := flag.Int("days", 0, "forecast days 1-7 (0 uses the saved setting)")
	unitFlag := flag.String("unit", "", "temperature unit, C or F")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	// Terminal output goes to stdout; logs stay on stderr and quiet.
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelWarn,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to generate database config: %v", err)
	}
	if err := database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		log.Fatalf("FATAL: Failed to run database migrations: %v", err)
	}
	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database pool: %v", err)
	}
	defer pool.Close()

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
		log.Fatalf("FATAL: %v", err)
	}

	weatherRepo := weather.NewPostgresWeatherRepository(pool, logger)
	weatherSvc := weather.NewWeatherService(weatherClient, weatherRepo, locationSvc, settingsSvc, logger)
	workflow := resolve.NewWorkflow(weatherClient, locationSvc, logger)

	// A -unit flag updates the saved preference before anything renders.
	if *unitFlag != "" {
		if _, err := settingsSvc.SetTemperatureUnit(ctx, *unitFlag); err != nil {
			logger.Warn("Failed to persist temperature unit", slog.Any("error", err))
		}
	}

	app := cli.NewApp(workflow, weatherSvc, locationSvc, settingsSvc, os.Stdin, os.Stdout, logger)

	req, direct := requestFromFlags(*queryFlag, *placeFlag, *latFlag, *lonFlag, *daysFlag, flag.CommandLine)
	if direct {
		if err := app.RunOnce(ctx, req); err != nil {
			log.Fatalf("FATAL: %v", err)
		}
		return
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

// requestFromFlags maps flag values onto a single resolution request.
// Coordinates require both -lat and -lon to have been set explicitly; 0,0 is
// a real place in the Gulf of Guinea.
func requestFromFlags(query, place string, lat, lon float64, days int, fs *flag.FlagSet) (types.ResolutionRequest, bool) {
	latSet, lonSet := false, false
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lat":
			latSet = true
		case "lon":
			lonSet = true
		}
	})

	action := types.ActionShowCurrent
	if days > 0 {
		action = types.ActionShowForecast
	}

	switch {
	case latSet && lonSet:
		req := types.CoordinateRequest(lat, lon, action)
		req.ForecastDays = days
		return req, true
	case place != "":
		req := types.PlaceRequest(place, action)
		req.ForecastDays = days
		return req, true
	case query != "":
		req := types.QueryRequest(query, action)
		req.ForecastDays = days
		return req, true
	default:
		return types.ResolutionRequest{}, false
	}
}
