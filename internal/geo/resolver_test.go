package geo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/skycast-app/skycast/internal/config"
	"github.com/skycast-app/skycast/internal/openweather"
	"github.com/skycast-app/skycast/internal/weather"
	"github.com/skycast-app/skycast/pkg/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestGeocoder(t *testing.T, handler http.Handler) *Geocoder {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tele, err := telemetry.New(context.Background(), config.TelemetryConfig{})
	require.NoError(t, err)

	client := openweather.NewClient(config.ProviderConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Units:   "imperial",
		Timeout: 5,
	}, zap.NewNop(), tele)

	return NewGeocoder(client, zap.NewNop(), tele)
}

func TestGeocoderResolvesSingleMatch(t *testing.T) {
	g := newTestGeocoder(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/geo/1.0/direct", r.URL.Path)
		assert.Equal(t, "Paris", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))

		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"lat": 48.85, "lon": 2.35, "name": "Paris", "country": "FR"},
		})
	}))

	coord, place, err := g.Resolve(context.Background(), "Paris")
	require.NoError(t, err)

	assert.Equal(t, weather.Coordinates{Lat: 48.85, Lon: 2.35}, coord)
	assert.Equal(t, "Paris", place.Name)
	assert.Equal(t, "FR", place.Country)
	assert.Nil(t, place.State, "state must be nil when the match carries none")
}

func TestGeocoderCarriesState(t *testing.T) {
	g := newTestGeocoder(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"lat": 40.71, "lon": -74.0, "name": "New York", "country": "US", "state": "New York"},
		})
	}))

	_, place, err := g.Resolve(context.Background(), "New York")
	require.NoError(t, err)
	require.NotNil(t, place.State)
	assert.Equal(t, "New York", *place.State)
}

func TestGeocoderNoMatches(t *testing.T) {
	g := newTestGeocoder(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]interface{}{})
	}))

	_, _, err := g.Resolve(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, weather.ErrCityNotFound)
}

func TestGeocoderNonSuccessStatus(t *testing.T) {
	g := newTestGeocoder(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, _, err := g.Resolve(context.Background(), "Paris")
	assert.ErrorIs(t, err, weather.ErrCityNotFound)
}

func deviceConfig() config.GeolocationConfig {
	return config.GeolocationConfig{
		TimeoutMS:    100,
		HighAccuracy: false,
		MaxAgeMS:     600000,
		FallbackLat:  40.7128,
		FallbackLon:  -74.0060,
	}
}

func TestDeviceResolverPassesThroughPosition(t *testing.T) {
	source := PositionFunc(func(ctx context.Context) (weather.Coordinates, error) {
		return weather.Coordinates{Lat: 51.5, Lon: -0.12}, nil
	})

	r := NewDeviceResolver(deviceConfig(), source, zap.NewNop())
	coord := r.Resolve(context.Background())

	assert.Equal(t, weather.Coordinates{Lat: 51.5, Lon: -0.12}, coord)
}

func TestDeviceResolverFallsBackOnError(t *testing.T) {
	source := PositionFunc(func(ctx context.Context) (weather.Coordinates, error) {
		return weather.Coordinates{}, errors.New("permission denied")
	})

	r := NewDeviceResolver(deviceConfig(), source, zap.NewNop())
	coord := r.Resolve(context.Background())

	assert.Equal(t, weather.Coordinates{Lat: 40.7128, Lon: -74.0060}, coord)
}

func TestDeviceResolverFallsBackOnTimeout(t *testing.T) {
	source := PositionFunc(func(ctx context.Context) (weather.Coordinates, error) {
		// Ignores its context entirely, like a hung platform call.
		time.Sleep(2 * time.Second)
		return weather.Coordinates{Lat: 1, Lon: 1}, nil
	})

	r := NewDeviceResolver(deviceConfig(), source, zap.NewNop())

	start := time.Now()
	coord := r.Resolve(context.Background())
	elapsed := time.Since(start)

	assert.Equal(t, weather.Coordinates{Lat: 40.7128, Lon: -74.0060}, coord)
	assert.Less(t, elapsed, time.Second, "fallback must arrive within the configured timeout")
}

func TestDeviceResolverFallsBackWithoutSource(t *testing.T) {
	r := NewDeviceResolver(deviceConfig(), nil, zap.NewNop())
	coord := r.Resolve(context.Background())

	assert.Equal(t, weather.Coordinates{Lat: 40.7128, Lon: -74.0060}, coord)
}

func TestContextSource(t *testing.T) {
	src := ContextSource{}

	_, err := src.Position(context.Background())
	assert.ErrorIs(t, err, ErrNoPosition)

	ctx := WithReportedPosition(context.Background(), weather.Coordinates{Lat: 2, Lon: 3})
	coord, err := src.Position(ctx)
	require.NoError(t, err)
	assert.Equal(t, weather.Coordinates{Lat: 2, Lon: 3}, coord)
}
