// Package config loads, normalizes, and validates loopfetch configuration
// data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob
// the CLI needs: feed locations, download destination and pacing, caching
// proxy, disk image settings, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical base URLs, and clear validation errors.
package config
