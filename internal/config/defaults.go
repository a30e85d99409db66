package config

const (
	defaultCatalogURL      = "https://raw.githubusercontent.com/carlashley/appleLoops/master/com.github.carlashley.appleLoops.feeds.plist"
	defaultOriginBaseURL   = "http://audiocontentdownload.apple.com/lp10_ms3_content_"
	defaultMirrorBaseURL   = "https://raw.githubusercontent.com/carlashley/appleLoops/master/lp10_ms3_content_"
	defaultUserAgent       = "loopfetch/" + Version
	defaultDestination     = "/tmp/loopfetch"
	defaultPauseMinSeconds = 1
	defaultPauseMaxSeconds = 2
	defaultDiskImageBinary = "hdiutil"
	defaultVolumeName      = "loopfetch"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Version is the tool version reported in the User-Agent header and CLI.
const Version = "1.0.0"

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Feeds: Feeds{
			CatalogURL:    defaultCatalogURL,
			OriginBaseURL: defaultOriginBaseURL,
			MirrorBaseURL: defaultMirrorBaseURL,
			UserAgent:     defaultUserAgent,
		},
		Download: Download{
			Destination:     defaultDestination,
			PauseMinSeconds: defaultPauseMinSeconds,
			PauseMaxSeconds: defaultPauseMaxSeconds,
		},
		DiskImage: DiskImage{
			Binary:     defaultDiskImageBinary,
			VolumeName: defaultVolumeName,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
