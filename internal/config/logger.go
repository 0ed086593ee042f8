package config

// LoggerConfig selects the log level, encoding and sink.  File output rotates
// via lumberjack; everything else goes to stdout.
type LoggerConfig struct {
	Level      string // debug|info|warn|error
	Format     string // json|console
	Output     string // stdout|file
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// LoadLoggerConfig reads logger settings with production-friendly defaults.
func LoadLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:      envStr("LOG_LEVEL", "info"),
		Format:     envStr("LOG_FORMAT", "json"),
		Output:     envStr("LOG_OUTPUT", "stdout"),
		FilePath:   envStr("LOG_FILE", "logs/gateway.log"),
		MaxSizeMB:  envInt("LOG_MAX_SIZE_MB", 100),
		MaxBackups: envInt("LOG_MAX_BACKUPS", 3),
		MaxAgeDays: envInt("LOG_MAX_AGE_DAYS", 7),
	}
}
