package handlers

// CurrentWeatherRequest carries the device position the client reported, if
// any. Both fields are optional: a missing or invalid position falls back to
// the default coordinates downstream.
type CurrentWeatherRequest struct {
	Lat *float64 `form:"lat" json:"lat" validate:"omitempty,latitude"`
	Lon *float64 `form:"lon" json:"lon" validate:"omitempty,longitude"`
}

// SearchRequest is a free-text city search.
type SearchRequest struct {
	Q string `form:"q" json:"q" binding:"required,min=1"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is the health check body.
type HealthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp,omitempty"`
}
