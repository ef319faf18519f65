package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors" // Import CORS middleware if needed

	"github.com/xtinalang/weather-dashboard-sub000/internal/api/location"
	"github.com/xtinalang/weather-dashboard-sub000/internal/api/resolve"
	"github.com/xtinalang/weather-dashboard-sub000/internal/api/settings"
	"github.com/xtinalang/weather-dashboard-sub000/internal/api/weather"
)

// Config contains dependencies needed for the router setup
type Config struct {
	ResolveHandler  *resolve.Handler
	LocationHandler *location.Handler
	WeatherHandler  *weather.Handler
	SettingsHandler *settings.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (like logger, requestID, recoverer) are expected
// to be applied *before* mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Resolution: search accepts a query/place/coordinates and returns a
		// tagged outcome; select completes a pending ambiguous choice.
		r.Post("/resolve/search", cfg.ResolveHandler.Search)
		r.Post("/resolve/select", cfg.ResolveHandler.Select)

		r.Route("/locations", func(r chi.Router) {
			r.Get("/", cfg.LocationHandler.GetSaved)
			r.Get("/favorites", cfg.LocationHandler.GetFavorites)
			r.Post("/{locationID}/favorite", cfg.LocationHandler.ToggleFavorite)
			r.Get("/{locationID}/history", cfg.WeatherHandler.GetHistory)
		})

		r.Get("/weather/{lat}/{lon}", cfg.WeatherHandler.GetByCoordinates)

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", cfg.SettingsHandler.Get)
			r.Put("/", cfg.SettingsHandler.Update)
		})
	})

	return r
}
