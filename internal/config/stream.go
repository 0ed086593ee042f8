package config

import "time"

// StreamConfig controls the platform push-stream subscriptions and the
// per-session notification feeds they fill.
type StreamConfig struct {
	BackoffFloor time.Duration // first reconnect delay, reset on every open
	BackoffCap   time.Duration // reconnect delay ceiling
	FeedCap      int           // most-recent items retained per feed
	PrimeLimit   int           // items fetched over REST when a feed is created
}

// LoadStreamConfig reads stream settings with the reference defaults:
// 1s floor, 30s cap, 50-item feeds.
func LoadStreamConfig() StreamConfig {
	cfg := StreamConfig{
		BackoffFloor: envDur("STREAM_BACKOFF_FLOOR", time.Second),
		BackoffCap:   envDur("STREAM_BACKOFF_CAP", 30*time.Second),
		FeedCap:      envInt("STREAM_FEED_CAP", 50),
		PrimeLimit:   envInt("STREAM_PRIME_LIMIT", 50),
	}
	if cfg.BackoffFloor <= 0 {
		cfg.BackoffFloor = time.Second
	}
	if cfg.BackoffCap < cfg.BackoffFloor {
		cfg.BackoffCap = cfg.BackoffFloor
	}
	if cfg.FeedCap < 1 {
		cfg.FeedCap = 50
	}
	return cfg
}
