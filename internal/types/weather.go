package types

import "time"

// The structures below mirror the weatherapi.com payload shape for the fields
// this application reads. They are decoded once at the provider boundary;
// nothing downstream touches raw JSON maps.

// WeatherCondition is the nested condition block in current and daily data.
type WeatherCondition struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
	Code int    `json:"code"`
}

// CurrentWeather is the "current" block of a forecast payload.
type CurrentWeather struct {
	LastUpdated string           `json:"last_updated"`
	TempC       float64          `json:"temp_c"`
	TempF       float64          `json:"temp_f"`
	FeelslikeC  float64          `json:"feelslike_c"`
	FeelslikeF  float64          `json:"feelslike_f"`
	Condition   WeatherCondition `json:"condition"`
	WindKph     float64          `json:"wind_kph"`
	WindMph     float64          `json:"wind_mph"`
	WindDir     string           `json:"wind_dir"`
	PressureMb  float64          `json:"pressure_mb"`
	PrecipMm    float64          `json:"precip_mm"`
	Humidity    int              `json:"humidity"`
	Cloud       int              `json:"cloud"`
	UV          float64          `json:"uv"`
}

// PayloadLocation is the "location" block of a weather payload. The provider
// echoes back the resolved place; it is used to enrich placeholder locations.
type PayloadLocation struct {
	Name      string  `json:"name"`
	Region    string  `json:"region"`
	Country   string  `json:"country"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	TzID      string  `json:"tz_id"`
	Localtime string  `json:"localtime"`
}

// DayForecast is the aggregated "day" block for one forecast day.
type DayForecast struct {
	MaxtempC          float64          `json:"maxtemp_c"`
	MaxtempF          float64          `json:"maxtemp_f"`
	MintempC          float64          `json:"mintemp_c"`
	MintempF          float64          `json:"mintemp_f"`
	AvgtempC          float64          `json:"avgtemp_c"`
	AvgtempF          float64          `json:"avgtemp_f"`
	MaxwindKph        float64          `json:"maxwind_kph"`
	TotalprecipMm     float64          `json:"totalprecip_mm"`
	AvgHumidity       float64          `json:"avghumidity"`
	DailyChanceOfRain int              `json:"daily_chance_of_rain"`
	DailyChanceOfSnow int              `json:"daily_chance_of_snow"`
	Condition         WeatherCondition `json:"condition"`
	UV                float64          `json:"uv"`
}

// AstroInfo carries sunrise/sunset data for a forecast day.
type AstroInfo struct {
	Sunrise string `json:"sunrise"`
	Sunset  string `json:"sunset"`
}

// ForecastDay is one entry of the forecastday list.
type ForecastDay struct {
	Date  string      `json:"date"`
	Day   DayForecast `json:"day"`
	Astro AstroInfo   `json:"astro"`
}

// ForecastData wraps the forecastday list.
type ForecastData struct {
	Forecastday []ForecastDay `json:"forecastday"`
}

// WeatherResponse is the full payload returned by the forecast endpoint.
type WeatherResponse struct {
	Location PayloadLocation `json:"location"`
	Current  CurrentWeather  `json:"current"`
	Forecast ForecastData    `json:"forecast"`
}

// WeatherRecord matches the weather_records table structure. One row is saved
// per successful current-weather fetch when history saving is enabled.
type WeatherRecord struct {
	ID                   int64     `json:"id"`
	LocationID           int64     `json:"location_id"`
	Timestamp            time.Time `json:"timestamp"`
	Temperature          float64   `json:"temperature"`
	FeelsLike            *float64  `json:"feels_like,omitempty"`
	Humidity             *int      `json:"humidity,omitempty"`
	Pressure             *float64  `json:"pressure,omitempty"`
	WindSpeed            *float64  `json:"wind_speed,omitempty"`
	WindDirection        *string   `json:"wind_direction,omitempty"`
	Condition            string    `json:"condition"`
	ConditionDescription *string   `json:"condition_description,omitempty"`
}
