package config

const (
	defaultDestinationDir     = "~/.local/share/mural/wallpapers"
	defaultStagingDir         = "~/.local/share/mural/staging"
	defaultStateDir           = "~/.local/share/mural/state"
	defaultLogDir             = "~/.local/share/mural/logs"
	defaultGalleryBaseURL     = "https://ultrawidewallpapers.net"
	defaultListingPath        = "/gallery"
	defaultShufflePath        = "/gallery/shuffle"
	defaultLinkClass          = "image-link"
	defaultRequestTimeout     = 15
	defaultMaxShuffleAttempts = 5
	defaultAspectWidth        = 16
	defaultAspectHeight       = 9
	defaultLumaThreshold      = 200
	defaultTransformWorkers   = 3
	defaultFetchTimeout       = 30
	defaultStitchedFilename   = "stitched.jpg"
	defaultCommandTimeout     = 30
	defaultPollInterval       = 1800
	defaultStagingMaxAgeHours = 24
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DestinationDir: defaultDestinationDir,
			StagingDir:     defaultStagingDir,
			StateDir:       defaultStateDir,
			LogDir:         defaultLogDir,
		},
		Gallery: Gallery{
			BaseURL:            defaultGalleryBaseURL,
			ListingPath:        defaultListingPath,
			ShufflePath:        defaultShufflePath,
			LinkClass:          defaultLinkClass,
			RequestTimeout:     defaultRequestTimeout,
			MaxShuffleAttempts: defaultMaxShuffleAttempts,
		},
		Transform: Transform{
			AspectWidth:   defaultAspectWidth,
			AspectHeight:  defaultAspectHeight,
			LumaThreshold: defaultLumaThreshold,
			Workers:       defaultTransformWorkers,
			FetchTimeout:  defaultFetchTimeout,
		},
		Apply: Apply{
			StitchedFilename: defaultStitchedFilename,
			CommandTimeout:   defaultCommandTimeout,
		},
		Workflow: Workflow{
			PollInterval:       defaultPollInterval,
			StagingMaxAgeHours: defaultStagingMaxAgeHours,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
