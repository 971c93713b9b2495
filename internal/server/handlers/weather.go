package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skycast-app/skycast/internal/geo"
	"github.com/skycast-app/skycast/internal/pipeline"
	"github.com/skycast-app/skycast/internal/server/utils"
	"github.com/skycast-app/skycast/internal/weather"
	"go.uber.org/zap"
)

// PipelineDriver is the orchestrator surface the handler drives.
type PipelineDriver interface {
	Locate(ctx context.Context) *weather.LocationResult
	Search(ctx context.Context, city string) (*weather.SearchResult, error)
	ClearSearch()
	Snapshot() pipeline.Snapshot
}

// FlowMetrics records pipeline flow outcomes for the metrics endpoint.
type FlowMetrics interface {
	RecordSearch(success bool)
	RecordLocate(ready bool)
}

type WeatherHandler struct {
	pipe    PipelineDriver
	metrics FlowMetrics
	logger  *zap.Logger
}

func NewWeatherHandler(pipe PipelineDriver, metrics FlowMetrics, logger *zap.Logger) *WeatherHandler {
	return &WeatherHandler{
		pipe:    pipe,
		metrics: metrics,
		logger:  logger,
	}
}

// Current runs the current-location flow. The client may report its device
// position via lat/lon query parameters; anything missing or out of range is
// treated as geolocation failure and recovered by the fallback coordinates.
// Partial upstream data answers 202 with the pending snapshot instead of an
// error, keeping the client on its loading screen.
func (h *WeatherHandler) Current(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)
	reqLogger := h.logger.With(zap.String("request_id", utils.GetRequestIDFromGinContext(c)))

	var req CurrentWeatherRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		reqLogger.Warn("Invalid request parameters", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request parameters",
			Code:    "INVALID_PARAMS",
			Details: err.Error(),
		})
		return
	}

	if req.Lat != nil && req.Lon != nil {
		if verrs := utils.ValidateStruct(&req); len(verrs) > 0 {
			// An out-of-range position is a failed fix, not a client error.
			reqLogger.Warn("Reported position out of range, ignoring",
				zap.Float64p("lat", req.Lat),
				zap.Float64p("lon", req.Lon))
		} else {
			ctx = geo.WithReportedPosition(ctx, weather.Coordinates{
				Lat: *req.Lat,
				Lon: *req.Lon,
			})
		}
	}

	result := h.pipe.Locate(ctx)
	ready := result.Ready()

	if h.metrics != nil {
		h.metrics.RecordLocate(ready)
	}

	if !ready {
		reqLogger.Info("Location view still loading",
			zap.Float64("lat", result.Coordinates.Lat),
			zap.Float64("lon", result.Coordinates.Lon))
		c.JSON(http.StatusAccepted, h.pipe.Snapshot())
		return
	}

	c.JSON(http.StatusOK, result)
}

// Search runs the search flow for a free-text city name.
func (h *WeatherHandler) Search(c *gin.Context) {
	ctx := utils.GetContextFromGinContext(c)
	reqLogger := h.logger.With(zap.String("request_id", utils.GetRequestIDFromGinContext(c)))

	var req SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		reqLogger.Warn("Invalid search parameters", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request parameters",
			Code:    "INVALID_PARAMS",
			Details: err.Error(),
		})
		return
	}

	reqLogger.Info("Processing city search", zap.String("city", req.Q))

	result, err := h.pipe.Search(ctx, req.Q)
	if h.metrics != nil {
		h.metrics.RecordSearch(err == nil)
	}
	if err != nil {
		reqLogger.Warn("City search failed", zap.String("city", req.Q), zap.Error(err))
		status, body := searchErrorResponse(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ClearSearch drops all transient search state in one step.
func (h *WeatherHandler) ClearSearch(c *gin.Context) {
	h.pipe.ClearSearch()
	c.Status(http.StatusNoContent)
}

// State exposes the pipeline snapshot so clients can switch on the
// discriminant instead of probing individual fields.
func (h *WeatherHandler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.pipe.Snapshot())
}

func searchErrorResponse(err error) (int, ErrorResponse) {
	if errors.Is(err, weather.ErrCityNotFound) {
		return http.StatusNotFound, ErrorResponse{
			Error:   err.Error(),
			Code:    "CITY_NOT_FOUND",
			Details: "retry with a different name or cancel back to the location view",
		}
	}
	if errors.Is(err, weather.ErrInvalidAirQualityData) {
		return http.StatusBadGateway, ErrorResponse{
			Error: err.Error(),
			Code:  "INVALID_AIR_QUALITY_DATA",
		}
	}

	var apiErr *weather.APIError
	if errors.As(err, &apiErr) {
		return http.StatusBadGateway, ErrorResponse{
			Error: apiErr.Error(),
			Code:  "WEATHER_API_ERROR",
		}
	}

	var aqErr *weather.AirQualityAPIError
	if errors.As(err, &aqErr) {
		return http.StatusBadGateway, ErrorResponse{
			Error: aqErr.Error(),
			Code:  "AIR_QUALITY_API_ERROR",
		}
	}

	var netErr *weather.NetworkError
	if errors.As(err, &netErr) {
		return http.StatusBadGateway, ErrorResponse{
			Error: netErr.Error(),
			Code:  "NETWORK_ERROR",
		}
	}

	return http.StatusInternalServerError, ErrorResponse{
		Error: err.Error(),
		Code:  "INTERNAL_ERROR",
	}
}
