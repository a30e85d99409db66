package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeFeeds(); err != nil {
		return err
	}
	if err := c.normalizeDownload(); err != nil {
		return err
	}
	c.normalizeDiskImage()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeFeeds() error {
	c.Feeds.CatalogURL = strings.TrimSpace(c.Feeds.CatalogURL)
	c.Feeds.OriginBaseURL = strings.TrimSpace(c.Feeds.OriginBaseURL)
	c.Feeds.MirrorBaseURL = strings.TrimSpace(c.Feeds.MirrorBaseURL)
	if c.Feeds.UserAgent = strings.TrimSpace(c.Feeds.UserAgent); c.Feeds.UserAgent == "" {
		c.Feeds.UserAgent = defaultUserAgent
	}
	return nil
}

func (c *Config) normalizeDownload() error {
	var err error
	if strings.TrimSpace(c.Download.Destination) == "" {
		c.Download.Destination = defaultDestination
	}
	if c.Download.Destination, err = expandPath(c.Download.Destination); err != nil {
		return fmt.Errorf("download.destination: %w", err)
	}
	// The cache server is joined with year paths later, so it must not
	// carry a trailing slash.
	c.Download.CacheServer = strings.TrimRight(strings.TrimSpace(c.Download.CacheServer), "/")
	return nil
}

func (c *Config) normalizeDiskImage() {
	if c.DiskImage.Binary = strings.TrimSpace(c.DiskImage.Binary); c.DiskImage.Binary == "" {
		c.DiskImage.Binary = defaultDiskImageBinary
	}
	if c.DiskImage.VolumeName = strings.TrimSpace(c.DiskImage.VolumeName); c.DiskImage.VolumeName == "" {
		c.DiskImage.VolumeName = defaultVolumeName
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
