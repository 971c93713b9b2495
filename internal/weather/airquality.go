package weather

import (
	"context"
	"errors"

	"github.com/skycast-app/skycast/internal/openweather"
	"github.com/skycast-app/skycast/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// AirQualityFetcher retrieves the most recent air-quality reading for a
// coordinate pair. Everything past the first entry in the provider's list
// is discarded.
type AirQualityFetcher struct {
	client *openweather.Client
	logger *zap.Logger
	tele   *telemetry.Telemetry
}

func NewAirQualityFetcher(client *openweather.Client, logger *zap.Logger, tele *telemetry.Telemetry) *AirQualityFetcher {
	return &AirQualityFetcher{
		client: client,
		logger: logger,
		tele:   tele,
	}
}

func (f *AirQualityFetcher) Fetch(ctx context.Context, coord Coordinates) (*AirQualitySample, error) {
	tracer := f.tele.GetTracer()
	ctx, span := tracer.Start(ctx, "weather.FetchAirQuality")
	defer span.End()

	span.SetAttributes(
		attribute.Float64("lat", coord.Lat),
		attribute.Float64("lon", coord.Lon),
	)

	resp, err := f.client.AirPollution(ctx, coord.Lat, coord.Lon)
	if err != nil {
		span.SetAttributes(attribute.Bool("success", false))

		var statusErr *openweather.StatusError
		if errors.As(err, &statusErr) {
			return nil, &AirQualityAPIError{Status: statusErr.Status}
		}
		return nil, &NetworkError{Op: "air pollution fetch", Err: err}
	}

	if len(resp.List) == 0 {
		f.logger.Warn("Air pollution response carried no readings",
			zap.Float64("lat", coord.Lat),
			zap.Float64("lon", coord.Lon))
		return nil, ErrInvalidAirQualityData
	}

	latest := resp.List[0]
	return &AirQualitySample{
		Timestamp:  latest.Dt,
		AQI:        latest.Main.AQI,
		Components: latest.Components,
	}, nil
}
