package weather

import "time"

// Coordinates is a resolved geographic position. Immutable once produced
// for a given resolution attempt.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PlaceInfo identifies a resolved location for display. Coordinates travel
// alongside it, never inside it.
type PlaceInfo struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   *string `json:"state"`
}

// ConditionCode is one entry of the provider's weather condition list.
type ConditionCode struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// CurrentConditions is the normalized current-weather reading.
// UVIndex is always 0: the free-tier endpoint does not supply it.
type CurrentConditions struct {
	Timestamp  int64           `json:"dt"`
	Temp       float64         `json:"temp"`
	FeelsLike  float64         `json:"feels_like"`
	Pressure   int             `json:"pressure"`
	Humidity   int             `json:"humidity"`
	UVIndex    float64         `json:"uvi"`
	Visibility int             `json:"visibility"`
	WindSpeed  float64         `json:"wind_speed"`
	WindDeg    int             `json:"wind_deg"`
	Conditions []ConditionCode `json:"weather"`
	Sunrise    int64           `json:"sunrise"`
	Sunset     int64           `json:"sunset"`
}

// ForecastSample is one raw 3-hour-resolution forecast reading.
type ForecastSample struct {
	Timestamp  int64           `json:"dt"`
	Temp       float64         `json:"temp"`
	Humidity   int             `json:"humidity"`
	WindSpeed  float64         `json:"wind_speed"`
	WindDeg    int             `json:"wind_deg"`
	Conditions []ConditionCode `json:"weather"`
}

// Time returns the sample timestamp in the local calendar.
func (s ForecastSample) Time() time.Time {
	return time.Unix(s.Timestamp, 0)
}

// TempRange carries the daily extremes plus the representative temperature
// taken from the first sample of the day.
type TempRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Day float64 `json:"day"`
}

// DailySummary is one calendar day collapsed from 3-hour samples.
// Non-numeric fields are copied from the first sample of the day.
type DailySummary struct {
	Timestamp  int64           `json:"dt"`
	Temp       TempRange       `json:"temp"`
	Conditions []ConditionCode `json:"weather"`
	Humidity   int             `json:"humidity"`
	WindSpeed  float64         `json:"wind_speed"`
	WindDeg    int             `json:"wind_deg"`
}

// WeatherBundle is the unified shape the rest of the app consumes,
// regardless of which upstream endpoint supplied the raw data.
type WeatherBundle struct {
	TimezoneOffset int64             `json:"timezone_offset"`
	Current        CurrentConditions `json:"current"`
	Hourly         []ForecastSample  `json:"hourly"`
	Daily          []DailySummary    `json:"daily"`
}

// AirQualitySample is the single most-recent air-quality reading.
type AirQualitySample struct {
	Timestamp  int64              `json:"dt"`
	AQI        int                `json:"aqi"`
	Components map[string]float64 `json:"components"`
}

// SearchResult bundles everything a successful city search produced. It is
// replaced wholesale by the next search, never patched in place.
type SearchResult struct {
	Weather     *WeatherBundle    `json:"weather"`
	Place       PlaceInfo         `json:"city"`
	AirQuality  *AirQualitySample `json:"air_quality"`
	Coordinates Coordinates       `json:"coordinates"`
}

// LocationResult is the current-location counterpart of SearchResult. The
// place comes from the current-conditions payload, not from geocoding.
type LocationResult struct {
	Weather     *WeatherBundle    `json:"weather"`
	Place       *PlaceInfo        `json:"city"`
	AirQuality  *AirQualitySample `json:"air_quality"`
	Coordinates Coordinates       `json:"coordinates"`
}

// Ready reports whether the location view has everything it needs: weather,
// place, and air quality all present and a non-empty current condition list.
func (r *LocationResult) Ready() bool {
	if r == nil || r.Weather == nil || r.Place == nil || r.AirQuality == nil {
		return false
	}
	return len(r.Weather.Current.Conditions) > 0
}
