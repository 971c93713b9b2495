package weather

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/skycast-app/skycast/internal/openweather"
	"github.com/skycast-app/skycast/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// hourlySampleLimit truncates the 3-hour forecast list to the first 24
// entries, i.e. the first three days.
const hourlySampleLimit = 24

// FetchResult pairs the normalized bundle with the place embedded in the
// current-conditions payload. The current-location flow uses that place
// instead of a separate geocoding call; the search flow ignores it.
type FetchResult struct {
	Bundle *WeatherBundle
	Place  PlaceInfo
}

// Fetcher retrieves current conditions and the short-range forecast for a
// coordinate pair and normalizes them into one WeatherBundle.
type Fetcher struct {
	client *openweather.Client
	logger *zap.Logger
	tele   *telemetry.Telemetry
}

func NewFetcher(client *openweather.Client, logger *zap.Logger, tele *telemetry.Telemetry) *Fetcher {
	return &Fetcher{
		client: client,
		logger: logger,
		tele:   tele,
	}
}

// Fetch issues the current-conditions and forecast requests concurrently and
// joins both before normalizing. If either answers non-2xx the result is an
// *APIError carrying both statuses and no partial bundle is emitted.
func (f *Fetcher) Fetch(ctx context.Context, coord Coordinates) (*FetchResult, error) {
	tracer := f.tele.GetTracer()
	ctx, span := tracer.Start(ctx, "weather.Fetch")
	defer span.End()

	span.SetAttributes(
		attribute.Float64("lat", coord.Lat),
		attribute.Float64("lon", coord.Lon),
	)

	var (
		wg          sync.WaitGroup
		current     *openweather.CurrentResponse
		forecast    *openweather.ForecastResponse
		currentErr  error
		forecastErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		current, currentErr = f.client.Current(ctx, coord.Lat, coord.Lon)
	}()
	go func() {
		defer wg.Done()
		forecast, forecastErr = f.client.Forecast(ctx, coord.Lat, coord.Lon)
	}()
	wg.Wait()

	if currentErr != nil || forecastErr != nil {
		span.SetAttributes(attribute.Bool("success", false))
		return nil, f.joinFetchErrors(currentErr, forecastErr)
	}

	bundle := &WeatherBundle{
		TimezoneOffset: current.Timezone,
		Current: CurrentConditions{
			Timestamp: current.Dt,
			Temp:      current.Main.Temp,
			FeelsLike: current.Main.FeelsLike,
			Pressure:  current.Main.Pressure,
			Humidity:  current.Main.Humidity,
			// Not available from the free-tier endpoint.
			UVIndex:    0,
			Visibility: current.Visibility,
			WindSpeed:  current.Wind.Speed,
			WindDeg:    current.Wind.Deg,
			Conditions: convertConditions(current.Weather),
			Sunrise:    current.Sys.Sunrise,
			Sunset:     current.Sys.Sunset,
		},
		Hourly: hourlySamples(forecast.List),
		Daily:  AggregateDaily(allSamples(forecast.List)),
	}

	f.logger.Debug("Weather bundle assembled",
		zap.Float64("lat", coord.Lat),
		zap.Float64("lon", coord.Lon),
		zap.Int("hourly", len(bundle.Hourly)),
		zap.Int("daily", len(bundle.Daily)))

	return &FetchResult{
		Bundle: bundle,
		Place: PlaceInfo{
			Name:    current.Name,
			Country: current.Sys.Country,
		},
	}, nil
}

// joinFetchErrors maps the pair of upstream failures onto the taxonomy:
// transport failures become a NetworkError, status failures become one
// APIError reporting both calls.
func (f *Fetcher) joinFetchErrors(currentErr, forecastErr error) error {
	currentStatus, currentIsStatus := statusOf(currentErr)
	forecastStatus, forecastIsStatus := statusOf(forecastErr)

	if currentErr != nil && !currentIsStatus {
		return &NetworkError{Op: "current weather fetch", Err: currentErr}
	}
	if forecastErr != nil && !forecastIsStatus {
		return &NetworkError{Op: "forecast fetch", Err: forecastErr}
	}

	return &APIError{
		CurrentStatus:  currentStatus,
		ForecastStatus: forecastStatus,
	}
}

// statusOf extracts the HTTP status behind err. A nil error means the call
// succeeded and is reported as 200 for diagnostics.
func statusOf(err error) (int, bool) {
	if err == nil {
		return http.StatusOK, true
	}
	var statusErr *openweather.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status, true
	}
	return 0, false
}

func hourlySamples(entries []openweather.ForecastEntry) []ForecastSample {
	if len(entries) > hourlySampleLimit {
		entries = entries[:hourlySampleLimit]
	}
	return allSamples(entries)
}

func allSamples(entries []openweather.ForecastEntry) []ForecastSample {
	samples := make([]ForecastSample, 0, len(entries))
	for _, e := range entries {
		samples = append(samples, ForecastSample{
			Timestamp:  e.Dt,
			Temp:       e.Main.Temp,
			Humidity:   e.Main.Humidity,
			WindSpeed:  e.Wind.Speed,
			WindDeg:    e.Wind.Deg,
			Conditions: convertConditions(e.Weather),
		})
	}
	return samples
}

func convertConditions(conditions []openweather.Condition) []ConditionCode {
	out := make([]ConditionCode, 0, len(conditions))
	for _, c := range conditions {
		out = append(out, ConditionCode{
			ID:          c.ID,
			Main:        c.Main,
			Description: c.Description,
			Icon:        c.Icon,
		})
	}
	return out
}
