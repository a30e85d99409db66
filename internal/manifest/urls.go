package manifest

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// catalogPathMarker identifies the URL path segment that carries the release
// year in its last four characters.
const catalogPathMarker = "lp10_ms3"

// legacyPrefix marks download names that point outside their year directory
// and must be resolved against the origin root instead.
const legacyPrefix = "../"

// Resolver builds absolute download URLs from a release year and filename,
// applying caching-proxy rewriting and legacy-path correction.
type Resolver struct {
	originBase   string
	originScheme string
	originHost   string
	cacheBase    string
}

// NewResolver constructs a resolver for the given origin base URL (the
// year-suffixed form, e.g. ".../lp10_ms3_content_"). When cacheServer is
// non-empty, .pkg requests are rewritten to the proxy at the same relative
// path with the origin host carried as a source query parameter.
func NewResolver(originBase, cacheServer string) (*Resolver, error) {
	parsed, err := url.Parse(originBase)
	if err != nil {
		return nil, fmt.Errorf("parse origin base: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("origin base %q must be absolute", originBase)
	}

	r := &Resolver{
		originBase:   originBase,
		originScheme: parsed.Scheme,
		originHost:   parsed.Host,
	}
	if cacheServer != "" {
		r.cacheBase = strings.TrimRight(cacheServer, "/") + parsed.Path
	}
	return r, nil
}

// OriginHost returns the content-delivery origin host.
func (r *Resolver) OriginHost() string {
	return r.originHost
}

// PackageURL builds the download URL for a year/filename pair. Package files
// go through the caching proxy when one is configured; everything else
// (including the plist sub-feeds themselves) always hits the origin.
func (r *Resolver) PackageURL(year, filename string) string {
	if r.cacheBase != "" && strings.HasSuffix(filename, ".pkg") {
		return r.cacheBase + year + "/" + filename + "?source=" + r.originHost
	}
	return r.originBase + year + "/" + filename
}

// ResolveEntry resolves a declared download name to its on-disk filename and
// absolute URL. Names beginning with a relative-parent marker are legacy
// paths rooted at the origin host; they bypass the caching proxy and reduce
// to their base filename.
func (r *Resolver) ResolveEntry(year, name string) (string, string) {
	if strings.HasPrefix(name, legacyPrefix) {
		trimmed := strings.TrimPrefix(name, legacyPrefix)
		return path.Base(trimmed), r.originScheme + "://" + r.originHost + "/" + trimmed
	}
	return name, r.PackageURL(year, name)
}

// YearFromURL re-derives the release year from the URL path segment carrying
// the catalog marker. Legacy-path correction can move a package into a
// different year directory, so the loop year is only a fallback.
func YearFromURL(rawURL, fallback string) string {
	for _, segment := range strings.Split(rawURL, "/") {
		segment, _, _ = strings.Cut(segment, "?")
		if strings.Contains(segment, catalogPathMarker) && len(segment) >= 4 {
			return segment[len(segment)-4:]
		}
	}
	return fallback
}
