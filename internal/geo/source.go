package geo

import (
	"context"
	"errors"

	"github.com/skycast-app/skycast/internal/weather"
)

// ErrNoPosition means the client did not report a device position with the
// request. The resolver treats it like any other geolocation failure.
var ErrNoPosition = errors.New("no device position reported")

type positionKey struct{}

// WithReportedPosition stores the position a client reported alongside its
// request so a ContextSource can pick it up.
func WithReportedPosition(ctx context.Context, coord weather.Coordinates) context.Context {
	return context.WithValue(ctx, positionKey{}, coord)
}

// ReportedPosition extracts a previously stored device position.
func ReportedPosition(ctx context.Context) (weather.Coordinates, bool) {
	coord, ok := ctx.Value(positionKey{}).(weather.Coordinates)
	return coord, ok
}

// ContextSource is the PositionSource backing the HTTP surface: the device
// position arrives with the request, or not at all.
type ContextSource struct{}

func (ContextSource) Position(ctx context.Context) (weather.Coordinates, error) {
	if coord, ok := ReportedPosition(ctx); ok {
		return coord, nil
	}
	return weather.Coordinates{}, ErrNoPosition
}
