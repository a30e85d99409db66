package manifest

import (
	"context"
	"log/slog"
	"path"
	"slices"
	"strings"

	"loopfetch/internal/feed"
	"loopfetch/internal/logging"
)

// Filter restricts which packages enter the manifest.
type Filter int

const (
	// FilterAll admits every package.
	FilterAll Filter = iota
	// FilterMandatory admits only packages the parent application requires.
	FilterMandatory
	// FilterOptional admits only supplementary packages.
	FilterOptional
)

// Admits reports whether a package with the given mandatory flag passes.
func (f Filter) Admits(mandatory bool) bool {
	switch f {
	case FilterMandatory:
		return mandatory
	case FilterOptional:
		return !mandatory
	default:
		return true
	}
}

// Selection scopes a manifest build: which product families, release years,
// and (optionally) explicit sub-feed files to resolve.
type Selection struct {
	Products []string
	Years    []string
	// Files, when non-empty, restricts resolution to these sub-feed
	// filenames, still scoped by Products and Years.
	Files  []string
	Filter Filter
}

// Builder resolves catalog selections into a Manifest.
type Builder struct {
	client     *feed.Client
	resolver   *Resolver
	mirrorBase string
	logger     *slog.Logger
}

// NewBuilder constructs a manifest builder. mirrorBase is the year-suffixed
// fallback location for sub-feed fetches.
func NewBuilder(client *feed.Client, resolver *Resolver, mirrorBase string, logger *slog.Logger) *Builder {
	return &Builder{
		client:     client,
		resolver:   resolver,
		mirrorBase: mirrorBase,
		logger:     logging.NewComponentLogger(logger, "manifest"),
	}
}

// Build walks the selection in product, year, sub-feed order and returns the
// resolved manifest. A sub-feed that cannot be fetched or decoded (after the
// mirror fallback) is skipped with an error log; the build continues so one
// bad feed cannot spoil the batch.
func (b *Builder) Build(ctx context.Context, catalog *feed.Catalog, sel Selection) (*Manifest, error) {
	m := &Manifest{}
	for _, product := range sel.Products {
		for _, year := range sel.Years {
			for _, feedFile := range catalog.FeedFiles(product, year) {
				if len(sel.Files) > 0 && !slices.Contains(sel.Files, feedFile) {
					continue
				}
				if err := b.processSubFeed(ctx, m, year, feedFile, sel.Filter); err != nil {
					if ctx.Err() != nil {
						return nil, ctx.Err()
					}
					b.logger.Error("skipping sub-feed",
						logging.Args(
							logging.String(logging.FieldFeed, feedFile),
							logging.String(logging.FieldYear, year),
							logging.Error(err))...)
				}
			}
		}
	}
	return m, nil
}

func (b *Builder) processSubFeed(ctx context.Context, m *Manifest, year, feedFile string, filter Filter) error {
	primaryURL := b.resolver.PackageURL(year, feedFile)
	mirrorURL := b.mirrorBase + year + "/" + feedFile

	subFeed, err := b.client.FetchSubFeed(ctx, primaryURL, mirrorURL)
	if err != nil {
		return err
	}

	sourceFeed := strings.TrimSuffix(feedFile, path.Ext(feedFile))
	family := productFamily(sourceFeed)

	// Sub-feed package maps carry no order of their own; sorting the
	// identifiers keeps manifests deterministic and groups shared assets
	// so duplicates land next to their first download.
	ids := make([]string, 0, len(subFeed.Packages))
	for id := range subFeed.Packages {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		entry := subFeed.Packages[id]
		if strings.TrimSpace(entry.DownloadName) == "" {
			b.logger.Warn("sub-feed entry without download name",
				logging.Args(
					logging.String(logging.FieldFeed, feedFile),
					logging.String("entry", id))...)
			continue
		}
		if !filter.Admits(entry.IsMandatory) {
			continue
		}

		name, resolvedURL := b.resolver.ResolveEntry(year, entry.DownloadName)
		pkg := Package{
			Name:          name,
			URL:           resolvedURL,
			Mandatory:     entry.IsMandatory,
			Size:          b.resolveSize(ctx, resolvedURL, entry),
			Year:          YearFromURL(resolvedURL, year),
			ProductFamily: family,
			SourceFeed:    sourceFeed,
		}
		m.Add(pkg)
	}
	return nil
}

// resolveSize prefers the live transfer length; any probe failure falls back
// to the catalog-declared size. Never fatal.
func (b *Builder) resolveSize(ctx context.Context, url string, entry feed.PackageEntry) int64 {
	if size, err := b.client.ProbeSize(ctx, url); err == nil {
		return size
	}
	size, err := entry.DeclaredSize()
	if err != nil {
		b.logger.Warn("package has no usable size",
			logging.Args(
				logging.String(logging.FieldPackage, entry.DownloadName),
				logging.Error(err))...)
		return 0
	}
	return size
}

// productFamily reduces a sub-feed base name to its alphabetic characters,
// e.g. "garageband1012" -> "garageband".
func productFamily(sourceFeed string) string {
	var sb strings.Builder
	for _, r := range sourceFeed {
		if r < '0' || r > '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
