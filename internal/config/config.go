package config // package config loads application configuration from environment variables

import (
    "log"      // log is used to report configuration errors and halt execution
    "os"       // os provides access to environment variables
)

// Config holds the core runtime configuration.  Each field corresponds to an
// environment variable.  Optional subsystems (Redis, MySQL, the message
// broker) carry their own loaders in sibling files and degrade gracefully
// when unconfigured; the values here are the ones the gateway cannot run
// without.
type Config struct {
    Env          string // application environment (e.g. "dev", "prod")
    Port         string // HTTP port to listen on
    UpstreamBase string // origin of the platform API (scheme://host[:port])
    JWTSecret    string // optional secret to verify upstream HS256 tokens; empty disables verification
    AmqpURL      string // message broker URL; empty disables broker integration
    DBHost       string // analytics database host; empty disables persistence
    DBPort       string // analytics database port
    DBUser       string // analytics database user
    DBPass       string // analytics database password (optional)
    DBName       string // analytics database name
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:          must("APP_ENV"),                      // environment (dev/test/prod)
        Port:         must("APP_PORT"),                     // port to bind the HTTP server
        UpstreamBase: must("UPSTREAM_BASE_URL"),            // platform API origin
        JWTSecret:    os.Getenv("JWT_SECRET"),              // optional token verification secret
        AmqpURL:      firstEnv("RABBITMQ_URL", "AMQP_URL"), // broker URL (empty allowed)
        DBHost:       os.Getenv("DB_HOST"),                 // analytics DB host (empty allowed)
        DBPort:       getenv("DB_PORT", "3306"),            // analytics DB port
        DBUser:       os.Getenv("DB_USER"),                 // analytics DB user
        DBPass:       os.Getenv("DB_PASS"),                 // analytics DB password
        DBName:       os.Getenv("DB_NAME"),                 // analytics DB name
    }
}

// AnalyticsDBConfigured reports whether enough database settings are present
// to persist analytics buckets.
func (c Config) AnalyticsDBConfigured() bool {
    return c.DBHost != "" && c.DBUser != "" && c.DBName != ""
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// firstEnv returns the first non-empty value among the given variables.
func firstEnv(keys ...string) string {
    for _, k := range keys {
        if v := os.Getenv(k); v != "" {
            return v
        }
    }
    return ""
}
