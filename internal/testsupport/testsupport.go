// Package testsupport provides shared fixtures for loopfetch tests: seeded
// configurations, plist feed documents, and in-process feed servers.
package testsupport

import (
	"path/filepath"
	"testing"

	"howett.net/plist"

	"loopfetch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with a unique temp destination per
// test. It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Download.Destination = filepath.Join(t.TempDir(), "loops")
	// Pacing off by default so tests do not sleep.
	cfg.Download.PauseMinSeconds = 0
	cfg.Download.PauseMaxSeconds = 0

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithCacheServer sets the caching proxy URL on the test config.
func WithCacheServer(url string) ConfigOption {
	return func(c *config.Config) {
		c.Download.CacheServer = url
	}
}

// WithFeedBases points catalog, origin, and mirror bases at a test server.
func WithFeedBases(catalogURL, originBase, mirrorBase string) ConfigOption {
	return func(c *config.Config) {
		c.Feeds.CatalogURL = catalogURL
		c.Feeds.OriginBaseURL = originBase
		c.Feeds.MirrorBaseURL = mirrorBase
	}
}

// SubFeedEntry describes one package record in a generated sub-feed.
type SubFeedEntry struct {
	ID        string
	Name      string
	Mandatory bool
	// Size may be an integer or a punctuation-grouped string, matching the
	// inconsistency of the real feeds.
	Size any
}

// SubFeedPlist renders an XML plist sub-feed from the given entries.
func SubFeedPlist(t testing.TB, entries ...SubFeedEntry) []byte {
	t.Helper()

	packages := make(map[string]any, len(entries))
	for _, entry := range entries {
		record := map[string]any{
			"DownloadName": entry.Name,
			"DownloadSize": entry.Size,
		}
		if entry.Mandatory {
			record["IsMandatory"] = true
		}
		packages[entry.ID] = record
	}

	data, err := plist.Marshal(map[string]any{"Packages": packages}, plist.XMLFormat)
	if err != nil {
		t.Fatalf("marshal sub-feed plist: %v", err)
	}
	return data
}

// CatalogPlist renders an XML plist master catalog. feeds maps product
// family -> year -> sub-feed filenames.
func CatalogPlist(t testing.TB, feeds map[string]map[string][]string, years []string) []byte {
	t.Helper()

	data, err := plist.Marshal(map[string]any{
		"loop_feeds": feeds,
		"loop_years": years,
	}, plist.XMLFormat)
	if err != nil {
		t.Fatalf("marshal catalog plist: %v", err)
	}
	return data
}
