package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/skycast-app/skycast/internal/config"
	"github.com/skycast-app/skycast/internal/geo"
	"github.com/skycast-app/skycast/internal/openweather"
	"github.com/skycast-app/skycast/internal/pipeline"
	"github.com/skycast-app/skycast/internal/server/handlers"
	"github.com/skycast-app/skycast/internal/server/middlewares"
	"github.com/skycast-app/skycast/internal/weather"
	"github.com/skycast-app/skycast/pkg/telemetry"
	"go.uber.org/zap"
)

type Server struct {
	engine *gin.Engine
	server *http.Server
	pipe   *pipeline.Pipeline
	logger *zap.Logger
	tele   *telemetry.Telemetry
}

var (
	instance *Server
	once     sync.Once
)

func NewServer(logger *zap.Logger, tele *telemetry.Telemetry) *Server {
	once.Do(func() {
		cfg := config.GetConfig()

		client := openweather.NewClient(cfg.Provider, logger, tele)

		pipe := pipeline.New(
			geo.NewDeviceResolver(cfg.Geolocation, geo.ContextSource{}, logger),
			geo.NewGeocoder(client, logger, tele),
			weather.NewFetcher(client, logger, tele),
			weather.NewAirQualityFetcher(client, logger, tele),
			logger,
			tele,
		)

		gin.SetMode(gin.ReleaseMode)
		engine := gin.New()

		metricsMw := middlewares.NewMetricsMiddleware(logger)

		engine.Use(middlewares.RequestIDMiddleware())
		engine.Use(middlewares.LoggingMiddleware(logger))
		engine.Use(middlewares.RecoveryMiddleware(logger, true))
		engine.Use(metricsMw.Handler())
		engine.Use(middlewares.TelemetryMiddleware(tele))

		instance = &Server{
			engine: engine,
			pipe:   pipe,
			logger: logger,
			tele:   tele,
		}

		instance.setupRoutes(metricsMw)
	})

	return instance
}

func (s *Server) setupRoutes(metricsMw *middlewares.MetricsMiddleware) {
	metricsHandler := handlers.NewMetricsHandler(s.logger, metricsMw)
	weatherHandler := handlers.NewWeatherHandler(s.pipe, metricsHandler, s.logger)

	// Business endpoints
	v1 := s.engine.Group("/v1/weather")
	v1.GET("/current", weatherHandler.Current)
	v1.GET("/search", weatherHandler.Search)
	v1.DELETE("/search", weatherHandler.ClearSearch)
	v1.GET("/state", weatherHandler.State)

	// Health endpoints (Kubernetes friendly)
	healthHandler := handlers.NewHealthHandler(s.logger)
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/health/live", healthHandler.Liveness)
	s.engine.GET("/health/ready", healthHandler.Readiness)

	// Monitoring endpoints
	s.engine.GET("/metrics", metricsHandler.ServeMetrics)
}

func (s *Server) Start() error {
	cfg := config.GetConfig()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}
