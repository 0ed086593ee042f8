package config

import "time"

// SessionConfig controls the session cookie and its durable storage.
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool // mark the cookie Secure; disable only for local dev
}

// LoadSessionConfig reads session settings with defaults.
func LoadSessionConfig() SessionConfig {
	return SessionConfig{
		CookieName: envStr("SESSION_COOKIE_NAME", "cp_sid"),
		TTL:        envDur("SESSION_TTL", 720*time.Hour),
		Secure:     envBool("SESSION_COOKIE_SECURE", true),
	}
}
