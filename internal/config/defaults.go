package config

// Default values for configuration options. These are "layer 0" of the
// override chain and let dirmirror run with nothing but two positional
// arguments.
const (
	defaultWaitTime      = 60
	defaultModTimeWindow = "0s"
	defaultWatchDebounce = "2s"
	defaultLogFile       = "sync_log.log"
	defaultLogLevel      = "info"
)

// DefaultConfig returns a Config populated with all default values.
// This is used both as the starting point for TOML decoding (so unset
// fields retain defaults) and as the fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		MirrorConfig: MirrorConfig{
			WaitTime:      defaultWaitTime,
			ModTimeWindow: defaultModTimeWindow,
		},
		WatchConfig: WatchConfig{
			WatchDebounce: defaultWatchDebounce,
		},
		LoggingConfig: LoggingConfig{
			LogFile:  defaultLogFile,
			LogLevel: defaultLogLevel,
		},
	}
}
