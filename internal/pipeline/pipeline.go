package pipeline

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/skycast-app/skycast/internal/weather"
	"github.com/skycast-app/skycast/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// State is the discriminated pipeline state. Consumers switch on it, never on
// ad-hoc nil-checks of individual fields.
type State int

const (
	StateIdle State = iota
	StatePending
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Snapshot is one consistent view of the pipeline.
type Snapshot struct {
	State    State                   `json:"state"`
	Location *weather.LocationResult `json:"location,omitempty"`
	Search   *weather.SearchResult   `json:"search,omitempty"`
	Error    string                  `json:"error,omitempty"`
	Loading  bool                    `json:"loading"`
}

// CoordinateResolver is the device-location strategy. It never fails.
type CoordinateResolver interface {
	Resolve(ctx context.Context) weather.Coordinates
}

// Geocoder is the free-text place-name strategy.
type Geocoder interface {
	Resolve(ctx context.Context, name string) (weather.Coordinates, weather.PlaceInfo, error)
}

type WeatherFetcher interface {
	Fetch(ctx context.Context, coord weather.Coordinates) (*weather.FetchResult, error)
}

type AirQualityFetcher interface {
	Fetch(ctx context.Context, coord weather.Coordinates) (*weather.AirQualitySample, error)
}

// Pipeline sequences coordinate resolution, weather and air-quality fetches
// and publishes one mutable state value with defined transitions:
// Idle -> Pending -> {Ready, Failed}, re-entrant from either terminal state.
//
// Every operation takes a fresh generation tag; a result whose generation is
// stale by publish time is discarded, so a slow earlier response can never
// overwrite a newer one.
type Pipeline struct {
	resolver CoordinateResolver
	geocoder Geocoder
	weather  WeatherFetcher
	air      AirQualityFetcher
	logger   *zap.Logger
	tele     *telemetry.Telemetry

	mu       sync.Mutex
	gen      uint64
	state    State
	location *weather.LocationResult
	search   *weather.SearchResult
	err      error
}

func New(resolver CoordinateResolver, geocoder Geocoder, wf WeatherFetcher, af AirQualityFetcher, logger *zap.Logger, tele *telemetry.Telemetry) *Pipeline {
	return &Pipeline{
		resolver: resolver,
		geocoder: geocoder,
		weather:  wf,
		air:      af,
		logger:   logger,
		tele:     tele,
		state:    StateIdle,
	}
}

// Snapshot returns a consistent copy of the current pipeline state.
func (p *Pipeline) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := Snapshot{
		State:    p.state,
		Location: p.location,
		Search:   p.search,
		Loading:  p.state == StatePending,
	}
	if p.err != nil {
		snap.Error = p.err.Error()
	}
	return snap
}

// Locate runs the current-location flow: resolve device coordinates, then
// fetch weather and air quality concurrently. A failure in one fetch does not
// cancel the other, and no error is ever surfaced: partial data leaves the
// pipeline Pending, mirroring the loading screen the location view shows.
func (p *Pipeline) Locate(ctx context.Context) *weather.LocationResult {
	tracer := p.tele.GetTracer()
	ctx, span := tracer.Start(ctx, "pipeline.Locate")
	defer span.End()

	gen := p.begin(false)

	coord := p.resolver.Resolve(ctx)
	span.SetAttributes(
		attribute.Float64("lat", coord.Lat),
		attribute.Float64("lon", coord.Lon),
	)

	result := &weather.LocationResult{Coordinates: coord}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		fetched, err := p.weather.Fetch(ctx, coord)
		if err != nil {
			p.logger.Error("Weather fetch failed for current location", zap.Error(err))
			return
		}
		result.Weather = fetched.Bundle
		place := fetched.Place
		result.Place = &place
	}()
	go func() {
		defer wg.Done()
		sample, err := p.air.Fetch(ctx, coord)
		if err != nil {
			p.logger.Error("Air quality fetch failed for current location", zap.Error(err))
			return
		}
		result.AirQuality = sample
	}()
	wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.gen {
		p.logger.Debug("Discarding stale location result", zap.Uint64("generation", gen))
		return result
	}

	p.location = result
	if result.Ready() {
		p.state = StateReady
	}
	// Partial data keeps the state Pending; the view stays on its loading
	// screen rather than showing an error.

	span.SetAttributes(attribute.Bool("ready", result.Ready()))
	return result
}

// Search runs the search flow: geocode the city name, then fetch weather and
// air quality concurrently for the resolved coordinates. Any stage failure
// short-circuits, discards partial results, and publishes Failed with a
// single error.
func (p *Pipeline) Search(ctx context.Context, city string) (*weather.SearchResult, error) {
	tracer := p.tele.GetTracer()
	ctx, span := tracer.Start(ctx, "pipeline.Search")
	defer span.End()

	span.SetAttributes(attribute.String("city", city))

	gen := p.begin(true)

	coord, place, err := p.geocoder.Resolve(ctx, city)
	if err != nil {
		p.fail(gen, err)
		return nil, err
	}

	var (
		wg      sync.WaitGroup
		fetched *weather.FetchResult
		sample  *weather.AirQualitySample
		wErr    error
		aErr    error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		fetched, wErr = p.weather.Fetch(ctx, coord)
	}()
	go func() {
		defer wg.Done()
		sample, aErr = p.air.Fetch(ctx, coord)
	}()
	wg.Wait()

	if wErr != nil {
		p.fail(gen, wErr)
		return nil, wErr
	}
	if aErr != nil {
		p.fail(gen, aErr)
		return nil, aErr
	}

	result := &weather.SearchResult{
		Weather:     fetched.Bundle,
		Place:       place,
		AirQuality:  sample,
		Coordinates: coord,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.gen {
		p.logger.Debug("Discarding stale search result",
			zap.String("city", city),
			zap.Uint64("generation", gen))
		return result, nil
	}

	p.search = result
	p.state = StateReady

	p.logger.Info("Search completed",
		zap.String("city", place.Name),
		zap.String("country", place.Country))

	return result, nil
}

// ClearSearch resets the search result, error and loading flag together and
// returns the pipeline to Idle. No stale fragment survives into the next
// search: the generation bump also invalidates any in-flight operation.
func (p *Pipeline) ClearSearch() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.gen++
	p.search = nil
	p.err = nil
	p.state = StateIdle
}

// begin moves the pipeline to Pending under a fresh generation. The search
// flow also drops the previous result and error so no stale fragment shows
// while the new operation runs.
func (p *Pipeline) begin(search bool) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.gen++
	p.state = StatePending
	if search {
		p.search = nil
		p.err = nil
	}
	return p.gen
}

func (p *Pipeline) fail(gen uint64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.gen {
		return
	}
	p.err = err
	p.state = StateFailed
}
