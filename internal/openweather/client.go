package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/skycast-app/skycast/internal/config"
	"github.com/skycast-app/skycast/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	currentPath      = "/data/2.5/weather"
	forecastPath     = "/data/2.5/forecast"
	airPollutionPath = "/data/2.5/air_pollution"
	geocodePath      = "/geo/1.0/direct"
)

// StatusError reports a non-2xx answer from the provider.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api request failed with status: %d", e.Status)
}

// Client talks to the OpenWeatherMap HTTP API. All four endpoints are plain
// request/JSON-response exchanges with no retry or pagination.
type Client struct {
	baseURL string
	apiKey  string
	units   string
	client  *http.Client
	logger  *zap.Logger
	tele    *telemetry.Telemetry
}

func NewClient(cfg config.ProviderConfig, logger *zap.Logger, tele *telemetry.Telemetry) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		units:   cfg.Units,
		client: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		logger: logger,
		tele:   tele,
	}
}

// Condition is one entry of the provider's weather condition list.
type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// CurrentResponse is the raw current-conditions payload.
type CurrentResponse struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Pressure  int     `json:"pressure"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Visibility int `json:"visibility"`
	Wind       struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
	} `json:"wind"`
	Weather []Condition `json:"weather"`
	Sys     struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Timezone int64  `json:"timezone"`
	Name     string `json:"name"`
}

// ForecastResponse is the raw 5-day/3-hour forecast payload, up to 40 samples.
type ForecastResponse struct {
	List []ForecastEntry `json:"list"`
}

type ForecastEntry struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []Condition `json:"weather"`
	Wind    struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
	} `json:"wind"`
}

// AirPollutionResponse is the raw air-quality payload.
type AirPollutionResponse struct {
	List []AirPollutionEntry `json:"list"`
}

type AirPollutionEntry struct {
	Dt   int64 `json:"dt"`
	Main struct {
		AQI int `json:"aqi"`
	} `json:"main"`
	Components map[string]float64 `json:"components"`
}

// GeocodeMatch is one forward-geocoding result.
type GeocodeMatch struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state"`
}

// Current fetches current conditions for the coordinates.
func (c *Client) Current(ctx context.Context, lat, lon float64) (*CurrentResponse, error) {
	q := c.coordQuery(lat, lon)
	q.Set("units", c.units)

	var out CurrentResponse
	if err := c.get(ctx, "openweather.Current", currentPath, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Forecast fetches the 5-day/3-hour forecast for the coordinates.
func (c *Client) Forecast(ctx context.Context, lat, lon float64) (*ForecastResponse, error) {
	q := c.coordQuery(lat, lon)
	q.Set("units", c.units)

	var out ForecastResponse
	if err := c.get(ctx, "openweather.Forecast", forecastPath, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AirPollution fetches the air-quality reading list for the coordinates.
func (c *Client) AirPollution(ctx context.Context, lat, lon float64) (*AirPollutionResponse, error) {
	q := c.coordQuery(lat, lon)

	var out AirPollutionResponse
	if err := c.get(ctx, "openweather.AirPollution", airPollutionPath, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GeocodeDirect resolves a free-text place name, requesting a single best match.
func (c *Client) GeocodeDirect(ctx context.Context, name string) ([]GeocodeMatch, error) {
	q := url.Values{}
	q.Set("q", name)
	q.Set("limit", "1")
	q.Set("appid", c.apiKey)

	var out []GeocodeMatch
	if err := c.get(ctx, "openweather.GeocodeDirect", geocodePath, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) coordQuery(lat, lon float64) url.Values {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.6f", lat))
	q.Set("lon", fmt.Sprintf("%.6f", lon))
	q.Set("appid", c.apiKey)
	return q
}

func (c *Client) get(ctx context.Context, spanName, path string, query url.Values, out interface{}) error {
	tracer := c.tele.GetTracer()
	ctx, span := tracer.Start(ctx, spanName)
	defer span.End()

	endpoint := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		span.SetAttributes(attribute.Bool("success", false))
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Provider request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return &StatusError{Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}
