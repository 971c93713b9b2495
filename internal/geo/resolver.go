package geo

import (
	"context"
	"errors"
	"time"

	"github.com/skycast-app/skycast/internal/config"
	"github.com/skycast-app/skycast/internal/openweather"
	"github.com/skycast-app/skycast/internal/weather"
	"github.com/skycast-app/skycast/pkg/telemetry"
	"go.uber.org/zap"
)

// PositionSource is the platform position provider. Implementations may block
// until a fix is available; the resolver enforces its own timeout around them.
type PositionSource interface {
	Position(ctx context.Context) (weather.Coordinates, error)
}

// PositionFunc adapts a plain function to a PositionSource.
type PositionFunc func(ctx context.Context) (weather.Coordinates, error)

func (f PositionFunc) Position(ctx context.Context) (weather.Coordinates, error) {
	return f(ctx)
}

// DeviceResolver turns the device position into coordinates. It never fails:
// permission errors, unavailable positions, timeouts and a missing source all
// fall back to the fixed default pair so downstream stages always receive a
// usable coordinate.
type DeviceResolver struct {
	source       PositionSource
	timeout      time.Duration
	maxAge       time.Duration
	highAccuracy bool
	fallback     weather.Coordinates
	logger       *zap.Logger
}

func NewDeviceResolver(cfg config.GeolocationConfig, source PositionSource, logger *zap.Logger) *DeviceResolver {
	return &DeviceResolver{
		source:       source,
		timeout:      time.Duration(cfg.TimeoutMS) * time.Millisecond,
		maxAge:       time.Duration(cfg.MaxAgeMS) * time.Millisecond,
		highAccuracy: cfg.HighAccuracy,
		fallback: weather.Coordinates{
			Lat: cfg.FallbackLat,
			Lon: cfg.FallbackLon,
		},
		logger: logger,
	}
}

type positionResult struct {
	coord weather.Coordinates
	err   error
}

// Resolve returns the device coordinates, or the fallback pair on any
// failure. The timeout is enforced even against sources that ignore their
// context.
func (r *DeviceResolver) Resolve(ctx context.Context) weather.Coordinates {
	if r.source == nil {
		r.logger.Info("Geolocation unavailable, using fallback coordinates",
			zap.Float64("lat", r.fallback.Lat),
			zap.Float64("lon", r.fallback.Lon))
		return r.fallback
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resultCh := make(chan positionResult, 1)
	go func() {
		coord, err := r.source.Position(ctx)
		resultCh <- positionResult{coord: coord, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			r.logger.Warn("Geolocation failed, using fallback coordinates",
				zap.Error(res.err))
			return r.fallback
		}
		return res.coord
	case <-ctx.Done():
		r.logger.Warn("Geolocation timed out, using fallback coordinates",
			zap.Duration("timeout", r.timeout))
		return r.fallback
	}
}

// Geocoder resolves a free-text place name to coordinates and place metadata
// through the provider's forward-geocoding endpoint.
type Geocoder struct {
	client *openweather.Client
	logger *zap.Logger
	tele   *telemetry.Telemetry
}

func NewGeocoder(client *openweather.Client, logger *zap.Logger, tele *telemetry.Telemetry) *Geocoder {
	return &Geocoder{
		client: client,
		logger: logger,
		tele:   tele,
	}
}

// Resolve asks for exactly one best match. Zero matches and non-success
// statuses both surface as ErrCityNotFound.
func (g *Geocoder) Resolve(ctx context.Context, name string) (weather.Coordinates, weather.PlaceInfo, error) {
	tracer := g.tele.GetTracer()
	ctx, span := tracer.Start(ctx, "geo.Resolve")
	defer span.End()

	matches, err := g.client.GeocodeDirect(ctx, name)
	if err != nil {
		var statusErr *openweather.StatusError
		if errors.As(err, &statusErr) {
			g.logger.Warn("Geocoding returned non-success status",
				zap.String("city", name),
				zap.Int("status", statusErr.Status))
			return weather.Coordinates{}, weather.PlaceInfo{}, weather.ErrCityNotFound
		}
		return weather.Coordinates{}, weather.PlaceInfo{}, &weather.NetworkError{Op: "geocoding", Err: err}
	}

	if len(matches) == 0 {
		g.logger.Info("Geocoding produced no matches", zap.String("city", name))
		return weather.Coordinates{}, weather.PlaceInfo{}, weather.ErrCityNotFound
	}

	match := matches[0]

	place := weather.PlaceInfo{
		Name:    match.Name,
		Country: match.Country,
	}
	if match.State != "" {
		state := match.State
		place.State = &state
	}

	return weather.Coordinates{Lat: match.Lat, Lon: match.Lon}, place, nil
}
