package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/skycast-app/skycast/internal/geo"
	"github.com/skycast-app/skycast/internal/pipeline"
	"github.com/skycast-app/skycast/internal/weather"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePipe struct {
	locateResult *weather.LocationResult
	locateCtx    context.Context
	searchResult *weather.SearchResult
	searchErr    error
	searchedCity string
	cleared      bool
	snap         pipeline.Snapshot
}

func (f *fakePipe) Locate(ctx context.Context) *weather.LocationResult {
	f.locateCtx = ctx
	return f.locateResult
}

func (f *fakePipe) Search(ctx context.Context, city string) (*weather.SearchResult, error) {
	f.searchedCity = city
	return f.searchResult, f.searchErr
}

func (f *fakePipe) ClearSearch() {
	f.cleared = true
}

func (f *fakePipe) Snapshot() pipeline.Snapshot {
	return f.snap
}

func newTestRouter(pipe *fakePipe) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	h := NewWeatherHandler(pipe, nil, zap.NewNop())
	r.GET("/v1/weather/current", h.Current)
	r.GET("/v1/weather/search", h.Search)
	r.DELETE("/v1/weather/search", h.ClearSearch)
	r.GET("/v1/weather/state", h.State)

	return r
}

func readyLocation() *weather.LocationResult {
	place := weather.PlaceInfo{Name: "New York", Country: "US"}
	return &weather.LocationResult{
		Weather: &weather.WeatherBundle{
			Current: weather.CurrentConditions{
				Conditions: []weather.ConditionCode{{ID: 800, Main: "Clear", Description: "clear sky", Icon: "01d"}},
			},
		},
		Place:       &place,
		AirQuality:  &weather.AirQualitySample{AQI: 1},
		Coordinates: weather.Coordinates{Lat: 40.7128, Lon: -74.0060},
	}
}

func TestCurrentReportsPosition(t *testing.T) {
	pipe := &fakePipe{locateResult: readyLocation()}
	router := newTestRouter(pipe)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/weather/current?lat=51.5&lon=-0.12", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	coord, ok := geo.ReportedPosition(pipe.locateCtx)
	require.True(t, ok, "reported position must reach the resolver")
	assert.Equal(t, weather.Coordinates{Lat: 51.5, Lon: -0.12}, coord)
}

func TestCurrentWithoutPositionStillServes(t *testing.T) {
	pipe := &fakePipe{locateResult: readyLocation()}
	router := newTestRouter(pipe)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/weather/current", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	_, ok := geo.ReportedPosition(pipe.locateCtx)
	assert.False(t, ok, "no position must be injected when the client reported none")
}

func TestCurrentOutOfRangePositionIgnored(t *testing.T) {
	pipe := &fakePipe{locateResult: readyLocation()}
	router := newTestRouter(pipe)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/weather/current?lat=123.0&lon=91.0", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	_, ok := geo.ReportedPosition(pipe.locateCtx)
	assert.False(t, ok, "an out-of-range position is treated as a failed fix")
}

func TestCurrentPartialDataAnswersAccepted(t *testing.T) {
	pipe := &fakePipe{
		locateResult: &weather.LocationResult{},
		snap:         pipeline.Snapshot{State: pipeline.StatePending, Loading: true},
	}
	router := newTestRouter(pipe)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/weather/current", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var snap map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, "pending", snap["state"])
	assert.Equal(t, true, snap["loading"])
}

func TestSearchSuccess(t *testing.T) {
	pipe := &fakePipe{
		searchResult: &weather.SearchResult{
			Place:       weather.PlaceInfo{Name: "Paris", Country: "FR"},
			Coordinates: weather.Coordinates{Lat: 48.85, Lon: 2.35},
		},
	}
	router := newTestRouter(pipe)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/weather/search?q=Paris", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Paris", pipe.searchedCity)

	var result weather.SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "FR", result.Place.Country)
}

func TestSearchMissingQuery(t *testing.T) {
	router := newTestRouter(&fakePipe{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/weather/search", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_PARAMS", body.Code)
}

func TestSearchErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"city not found", weather.ErrCityNotFound, http.StatusNotFound, "CITY_NOT_FOUND"},
		{"weather api", &weather.APIError{CurrentStatus: 200, ForecastStatus: 502}, http.StatusBadGateway, "WEATHER_API_ERROR"},
		{"air quality api", &weather.AirQualityAPIError{Status: 500}, http.StatusBadGateway, "AIR_QUALITY_API_ERROR"},
		{"invalid air data", weather.ErrInvalidAirQualityData, http.StatusBadGateway, "INVALID_AIR_QUALITY_DATA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&fakePipe{searchErr: tt.err})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/v1/weather/search?q=x", nil)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
		})
	}
}

func TestClearSearch(t *testing.T) {
	pipe := &fakePipe{}
	router := newTestRouter(pipe)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/v1/weather/search", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, pipe.cleared)
}

func TestState(t *testing.T) {
	pipe := &fakePipe{snap: pipeline.Snapshot{State: pipeline.StateIdle}}
	router := newTestRouter(pipe)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/weather/state", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var snap map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, "idle", snap["state"])
}
