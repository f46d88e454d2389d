package config

const (
	defaultLogDir                = "~/.local/share/hitcut/logs"
	defaultStateDirFallback      = "~/.local/state/hitcut"
	defaultFilenamePattern       = "soft-hitwhistle%d"
	defaultBaseIndex             = 1
	defaultMetadataFile          = "note_metadata.csv"
	defaultExtension             = "ogg"
	defaultRenderTimeoutSeconds  = 300
	defaultFadeTrack             = "Master"
	defaultFadeLane              = "Volume"
	defaultFadeBarCount          = 1.0
	defaultFadeShape             = "linear"
	defaultTrimBackend           = "ffmpeg"
	defaultTrimTimeoutSeconds    = 120
	defaultLedgerFile            = "trim_ledger.db"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	renderBackendPlaceholderHelp = "{input}, {output} and {soundfont}"
)

var defaultRenderCommand = []string{"fluidsynth", "-ni", "-T", "oga", "-F", "{output}", "{soundfont}", "{input}"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir(),
		},
		Render: Render{
			Tracks:          []string{"Notes"},
			FilenamePattern: defaultFilenamePattern,
			BaseIndex:       defaultBaseIndex,
			Extension:       defaultExtension,
			Command:         append([]string(nil), defaultRenderCommand...),
			TimeoutSeconds:  defaultRenderTimeoutSeconds,
			AdvisoryMarkers: true,
			LockRun:         true,
		},
		Fade: Fade{
			Track:    defaultFadeTrack,
			Lane:     defaultFadeLane,
			BarCount: defaultFadeBarCount,
			Shape:    defaultFadeShape,
		},
		Trim: Trim{
			MetadataFile:   defaultMetadataFile,
			Extension:      defaultExtension,
			Backend:        defaultTrimBackend,
			Ledger:         true,
			TimeoutSeconds: defaultTrimTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
