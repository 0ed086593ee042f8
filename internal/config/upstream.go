package config

import "time"

// UpstreamConfig tunes the HTTP client used against the platform API.
// Request-level timeouts live here; the notification stream ignores them
// because its response body is long-lived.
type UpstreamConfig struct {
	Timeout time.Duration
}

// LoadUpstreamConfig reads upstream client settings with defaults.
func LoadUpstreamConfig() UpstreamConfig {
	return UpstreamConfig{
		Timeout: envDur("UPSTREAM_TIMEOUT", 10*time.Second),
	}
}
