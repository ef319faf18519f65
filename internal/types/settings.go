package types

import "time"

// Temperature units accepted across both front ends.
const (
	UnitCelsius    = "C"
	UnitFahrenheit = "F"
)

// Settings is the single application settings row (id is always 1).
type Settings struct {
	ID                int64     `json:"id"`
	TemperatureUnit   string    `json:"temperature_unit"`
	WindSpeedUnit     string    `json:"wind_speed_unit"`
	DefaultLocationID *int64    `json:"default_location_id,omitempty"`
	SaveHistory       bool      `json:"save_history"`
	MaxHistoryDays    int       `json:"max_history_days"`
	ForecastDays      int       `json:"forecast_days"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// DefaultSettings returns the values used when no settings row exists yet.
func DefaultSettings() Settings {
	return Settings{
		ID:              1,
		TemperatureUnit: UnitCelsius,
		WindSpeedUnit:   "kph",
		SaveHistory:     true,
		MaxHistoryDays:  7,
		ForecastDays:    7,
	}
}

// UpdateSettingsParams carries partial settings updates; nil fields are kept.
type UpdateSettingsParams struct {
	TemperatureUnit   *string
	WindSpeedUnit     *string
	DefaultLocationID *int64
	SaveHistory       *bool
	MaxHistoryDays    *int
	ForecastDays      *int
}

// NormalizeUnit maps arbitrary user input onto a supported temperature unit,
// defaulting to Celsius.
func NormalizeUnit(unit string) string {
	switch unit {
	case "F", "f", "fahrenheit", "Fahrenheit":
		return UnitFahrenheit
	default:
		return UnitCelsius
	}
}
