package config

const (
	defaultDataDir           = "~/.local/share/cadence"
	defaultLogDir            = "~/.local/share/cadence/logs"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultSampleRate        = 22050
	defaultWindowSize        = 1024
	defaultWindowSeconds     = 120
	defaultMelFilters        = 36
	defaultCoefficients      = 20
	defaultCacheHorizonDays  = 90
	defaultNeighbourCount    = 20
	defaultWeatherTTLMinutes = 5
	defaultTargetSeconds     = 30 * 60
	defaultArtistBlockDays   = 7
	defaultLookaheadWindow   = 25
	defaultCrowdThrottle     = 1
	defaultMPDAddress        = "127.0.0.1:6600"
	defaultPollSeconds       = 5
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: ExpandPath(defaultDataDir),
			LogDir:  ExpandPath(defaultLogDir),
		},
		Analysis: Analysis{
			FFmpegBinary:  "ffmpeg",
			SampleRate:    defaultSampleRate,
			WindowSize:    defaultWindowSize,
			WindowSeconds: defaultWindowSeconds,
			MelFilters:    defaultMelFilters,
			Coefficients:  defaultCoefficients,
		},
		Similarity: Similarity{
			CacheHorizonDays: defaultCacheHorizonDays,
			NeighbourCount:   defaultNeighbourCount,
		},
		Context: Context{
			WeatherTTLMinutes: defaultWeatherTTLMinutes,
		},
		Queue: Queue{
			TargetSeconds:     defaultTargetSeconds,
			ArtistBlockDays:   defaultArtistBlockDays,
			LookaheadWindow:   defaultLookaheadWindow,
			CrowdThrottleSecs: defaultCrowdThrottle,
		},
		Player: Player{
			MPDAddress:  defaultMPDAddress,
			PollSeconds: defaultPollSeconds,
		},
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
	}
}
