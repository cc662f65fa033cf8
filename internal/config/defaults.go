package config

const (
	defaultStagingDir     = "~/.local/share/deckpatch/staging"
	defaultLogDir         = "~/.local/share/deckpatch/logs"
	defaultConvertTimeout = 300
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
		},
		Soffice: Soffice{
			ConvertTimeout: defaultConvertTimeout,
		},
		Export: Export{
			IncludeNotes: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
