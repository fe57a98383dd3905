package config

import (
	"log/slog"
	"os"
)

// Environment variable names for overrides.
const (
	EnvConfig  = "DIRMIRROR_CONFIG"
	EnvSource  = "DIRMIRROR_SOURCE"
	EnvReplica = "DIRMIRROR_REPLICA"
	EnvLogFile = "DIRMIRROR_LOG_FILE"
)

// EnvOverrides holds values derived from environment variables.
type EnvOverrides struct {
	ConfigPath string // DIRMIRROR_CONFIG: override config file path
	Source     string // DIRMIRROR_SOURCE: source tree
	Replica    string // DIRMIRROR_REPLICA: replica tree
	LogFile    string // DIRMIRROR_LOG_FILE: log file path
}

// ReadEnvOverrides reads environment variables and returns any overrides found.
// This does not modify the Config; Resolve applies the relevant fields.
func ReadEnvOverrides(logger *slog.Logger) EnvOverrides {
	env := EnvOverrides{
		ConfigPath: os.Getenv(EnvConfig),
		Source:     os.Getenv(EnvSource),
		Replica:    os.Getenv(EnvReplica),
		LogFile:    os.Getenv(EnvLogFile),
	}

	logger.Debug("read environment overrides",
		slog.String("config_path", env.ConfigPath),
		slog.String("source", env.Source),
		slog.String("replica", env.Replica),
		slog.String("log_file", env.LogFile),
	)

	return env
}
