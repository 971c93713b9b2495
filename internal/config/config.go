package config

import (
	"sync/atomic"
)

var configValue atomic.Value

func GetConfig() *Config {
	return configValue.Load().(*Config)
}

func SetConfig(cfg *Config) {
	configValue.Store(cfg)
}

type Config struct {
	Version     string            `mapstructure:"version"`
	Environment string            `mapstructure:"environment"`
	Server      ServerConfig      `mapstructure:"server"`
	Provider    ProviderConfig    `mapstructure:"provider"`
	Geolocation GeolocationConfig `mapstructure:"geolocation"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	Host         string `mapstructure:"host"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
}

// ProviderConfig points at the upstream weather provider. Units are fixed to
// a single system for the whole application.
type ProviderConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Units   string `mapstructure:"units"`
	Timeout int    `mapstructure:"timeout"`
}

// GeolocationConfig controls the device-location strategy. Failures fall back
// to the fixed default coordinates instead of propagating.
type GeolocationConfig struct {
	TimeoutMS    int     `mapstructure:"timeout_ms"`
	HighAccuracy bool    `mapstructure:"high_accuracy"`
	MaxAgeMS     int     `mapstructure:"max_age_ms"`
	FallbackLat  float64 `mapstructure:"fallback_lat"`
	FallbackLon  float64 `mapstructure:"fallback_lon"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Version:     "1.0.0",
		Environment: "development",
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  60,
		},
		Provider: ProviderConfig{
			BaseURL: "https://api.openweathermap.org",
			APIKey:  "",
			Units:   "imperial",
			Timeout: 10,
		},
		Geolocation: GeolocationConfig{
			TimeoutMS:    2500,
			HighAccuracy: false,
			MaxAgeMS:     600000,
			FallbackLat:  40.7128,
			FallbackLon:  -74.0060,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "",
		},
		Telemetry: TelemetryConfig{
			Enabled:  false,
			Endpoint: "tempo:4317",
		},
	}
}
