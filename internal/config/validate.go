package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFeeds(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateFeeds() error {
	if err := validateBaseURL("feeds.catalog_url", c.Feeds.CatalogURL); err != nil {
		return err
	}
	if err := validateBaseURL("feeds.origin_base_url", c.Feeds.OriginBaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("feeds.mirror_base_url", c.Feeds.MirrorBaseURL); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDownload() error {
	if c.Download.Destination == "" {
		return errors.New("download.destination must be set")
	}
	if c.Download.CacheServer != "" {
		if err := validateBaseURL("download.cache_server", c.Download.CacheServer); err != nil {
			return err
		}
	}
	if c.Download.PauseMinSeconds < 0 || c.Download.PauseMaxSeconds < 0 {
		return errors.New("download pause bounds must not be negative")
	}
	if c.Download.PauseMinSeconds > c.Download.PauseMaxSeconds {
		return errors.New("download.pause_min_seconds must not exceed download.pause_max_seconds")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not a recognised level", c.Logging.Level)
	}
	return nil
}

func validateBaseURL(field, value string) error {
	if value == "" {
		return fmt.Errorf("%s must be set", field)
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL", field)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", field)
	}
	return nil
}
