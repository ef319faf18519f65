package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xtinalang/weather-dashboard-sub000/internal/api/location"
	"github.com/xtinalang/weather-dashboard-sub000/internal/api/query"
	"github.com/xtinalang/weather-dashboard-sub000/internal/api/resolve"
	"github.com/xtinalang/weather-dashboard-sub000/internal/api/settings"
	"github.com/xtinalang/weather-dashboard-sub000/internal/api/weather"
	"github.com/xtinalang/weather-dashboard-sub000/internal/types"
)

// App is the interactive terminal front end. It drives the same resolution
// workflow as the web handlers; only the choice step differs, using a
// numbered prompt instead of a candidate form.
type App struct {
	logger      *slog.Logger
	workflow    *resolve.Workflow
	weatherSvc  weather.Service
	locationSvc location.Service
	settingsSvc settings.Service

	in  *bufio.Scanner
	out io.Writer
}

func NewApp(
	workflow *resolve.Workflow,
	weatherSvc weather.Service,
	locationSvc location.Service,
	settingsSvc settings.Service,
	in io.Reader,
	out io.Writer,
	logger *slog.Logger,
) *App {
	return &App{
		logger:      logger,
		workflow:    workflow,
		weatherSvc:  weatherSvc,
		locationSvc: locationSvc,
		settingsSvc: settingsSvc,
		in:          bufio.NewScanner(in),
		out:         out,
	}
}

// Run loops the main menu until the user quits or input ends.
func (a *App) Run(ctx context.Context) error {
	fmt.Fprintln(a.out, "Weather Dashboard")

	for {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "1. Search for a location")
		fmt.Fprintln(a.out, "2. Enter coordinates directly")
		fmt.Fprintln(a.out, "3. Saved locations")
		fmt.Fprintln(a.out, "q. Quit")

		choice, ok := a.prompt("Choose an option: ")
		if !ok || choice == "q" {
			fmt.Fprintln(a.out, "Goodbye!")
			return nil
		}

		var err error
		switch choice {
		case "1":
			err = a.searchFlow(ctx)
		case "2":
			err = a.coordinateFlow(ctx)
		case "3":
			err = a.savedFlow(ctx)
		default:
			fmt.Fprintln(a.out, "Unknown option.")
			continue
		}
		if err != nil {
			a.logger.ErrorContext(ctx, "Menu action failed", slog.Any("error", err))
			fmt.Fprintf(a.out, "Something went wrong: %v\n", err)
		}
	}
}

// RunOnce resolves a single query and shows the weather, for flag-driven
// invocations that skip the menu.
func (a *App) RunOnce(ctx context.Context, req types.ResolutionRequest) error {
	return a.resolveAndShow(ctx, req)
}

func (a *App) searchFlow(ctx context.Context) error {
	text, ok := a.prompt("Enter a place or a question (e.g. \"weather in London\"): ")
	if !ok || text == "" {
		return nil
	}

	req := types.QueryRequest(text, types.ActionShowCurrent)
	if _, err := query.Extract(text); err != nil {
		// Plain place names rarely match a sentence pattern; fall back to a
		// literal search instead of failing the flow.
		req = types.PlaceRequest(text, types.ActionShowCurrent)
	}
	return a.resolveAndShow(ctx, req)
}

func (a *App) coordinateFlow(ctx context.Context) error {
	latText, ok := a.prompt("Latitude: ")
	if !ok {
		return nil
	}
	lonText, ok := a.prompt("Longitude: ")
	if !ok {
		return nil
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	if err != nil {
		fmt.Fprintln(a.out, "That latitude is not a number.")
		return nil
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonText), 64)
	if err != nil {
		fmt.Fprintln(a.out, "That longitude is not a number.")
		return nil
	}

	return a.resolveAndShow(ctx, types.CoordinateRequest(lat, lon, types.ActionShowCurrent))
}

func (a *App) savedFlow(ctx context.Context) error {
	saved, err := a.locationSvc.Saved(ctx, 10)
	if err != nil {
		return err
	}
	if len(saved) == 0 {
		fmt.Fprintln(a.out, "No saved locations yet.")
		return nil
	}

	for i, loc := range saved {
		marker := " "
		if loc.IsFavorite {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%d.%s %s\n", i+1, marker, loc.String())
	}

	choice, ok := a.prompt("Pick a location (or q to go back): ")
	if !ok || choice == "q" || choice == "" {
		return nil
	}
	index, err := strconv.Atoi(choice)
	if err != nil || index < 1 || index > len(saved) {
		fmt.Fprintln(a.out, "Invalid choice.")
		return nil
	}

	return a.showWeather(ctx, saved[index-1], 0)
}

func (a *App) resolveAndShow(ctx context.Context, req types.ResolutionRequest) error {
	outcome, err := a.workflow.Run(ctx, req, a.chooser())
	if err != nil {
		return err
	}

	switch outcome.State {
	case types.StateResolved:
		return a.showWeather(ctx, *outcome.Location, outcome.ForecastDays)
	case types.StateNotFound:
		fmt.Fprintf(a.out, "No locations found for %q.\n", outcome.Query)
	case types.StateSearchFailed:
		fmt.Fprintf(a.out, "Search failed: %s\n", outcome.Reason)
	case types.StateCancelled:
		fmt.Fprintln(a.out, "Cancelled.")
	}
	return nil
}

func (a *App) showWeather(ctx context.Context, loc types.Location, days int) error {
	cfg, err := a.settingsSvc.Get(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "Settings unavailable, using defaults", slog.Any("error", err))
		cfg = types.DefaultSettings()
	}
	if days <= 0 {
		days = cfg.ForecastDays
	}

	payload, loc, err := a.weatherSvc.Forecast(ctx, loc, days)
	if err != nil {
		fmt.Fprintf(a.out, "Could not fetch weather for %s: %v\n", loc.Name, err)
		return nil
	}

	renderWeather(a.out, loc, payload, cfg.TemperatureUnit)
	return nil
}

// chooser returns a Chooser backed by this terminal.
func (a *App) chooser() resolve.Chooser {
	return chooserFunc(func(candidates []types.CandidateLocation) (int, bool, error) {
		fmt.Fprintln(a.out, "Multiple locations found:")
		for i, c := range candidates {
			fmt.Fprintf(a.out, "%d. %s\n", i+1, c.String())
		}

		for {
			choice, ok := a.prompt("Choose a number (or q to cancel): ")
			if !ok || choice == "q" || choice == "" {
				return 0, false, nil
			}
			index, err := strconv.Atoi(choice)
			if err != nil || index < 1 || index > len(candidates) {
				fmt.Fprintln(a.out, "Invalid choice, try again.")
				continue
			}
			return index - 1, true, nil
		}
	})
}

type chooserFunc func([]types.CandidateLocation) (int, bool, error)

func (f chooserFunc) Choose(candidates []types.CandidateLocation) (int, bool, error) {
	return f(candidates)
}

func (a *App) prompt(label string) (string, bool) {
	fmt.Fprint(a.out, label)
	if !a.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(a.in.Text()), true
}

func renderWeather(out io.Writer, loc types.Location, payload *types.WeatherResponse, unit string) {
	cur := payload.Current

	temp, feels, suffix := cur.TempC, cur.FeelslikeC, "°C"
	if unit == types.UnitFahrenheit {
		temp, feels, suffix = cur.TempF, cur.FeelslikeF, "°F"
	}

	fmt.Fprintf(out, "\nWeather for %s\n", loc.String())
	fmt.Fprintf(out, "  %s, %.1f%s (feels like %.1f%s)\n", cur.Condition.Text, temp, suffix, feels, suffix)
	fmt.Fprintf(out, "  Humidity %d%%, wind %.1f kph %s\n", cur.Humidity, cur.WindKph, cur.WindDir)

	for _, day := range payload.Forecast.Forecastday {
		hi, lo := day.Day.MaxtempC, day.Day.MintempC
		if unit == types.UnitFahrenheit {
			hi, lo = day.Day.MaxtempF, day.Day.MintempF
		}
		fmt.Fprintf(out, "  %s: %s, high %.1f%s / low %.1f%s, rain %d%%\n",
			day.Date, day.Day.Condition.Text, hi, suffix, lo, suffix, day.Day.DailyChanceOfRain)
	}
}
