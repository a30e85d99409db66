package feed

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Catalog is the master feed: product family -> release year -> sub-feed
// filenames, plus the list of recognized release years.
type Catalog struct {
	LoopFeeds map[string]map[string][]string `plist:"loop_feeds"`
	LoopYears []string                       `plist:"loop_years"`
}

// Products returns the product families in sorted order.
func (c *Catalog) Products() []string {
	products := make([]string, 0, len(c.LoopFeeds))
	for product := range c.LoopFeeds {
		products = append(products, product)
	}
	slices.Sort(products)
	return products
}

// HasProduct reports whether the catalog knows the product family.
func (c *Catalog) HasProduct(product string) bool {
	_, ok := c.LoopFeeds[product]
	return ok
}

// HasYear reports whether the catalog recognizes the release year.
func (c *Catalog) HasYear(year string) bool {
	return slices.Contains(c.LoopYears, year)
}

// FeedFiles returns the sub-feed filenames for a product/year pair, in
// catalog order. Missing pairs yield an empty slice.
func (c *Catalog) FeedFiles(product, year string) []string {
	years, ok := c.LoopFeeds[product]
	if !ok {
		return nil
	}
	return years[year]
}

// AllFiles returns every sub-feed filename in the catalog, sorted and
// deduplicated. Used for validating explicit --file selections.
func (c *Catalog) AllFiles() []string {
	var files []string
	for _, years := range c.LoopFeeds {
		for _, names := range years {
			for _, name := range names {
				if !slices.Contains(files, name) {
					files = append(files, name)
				}
			}
		}
	}
	slices.Sort(files)
	return files
}

// SubFeed is a per-product, per-year document enumerating individual
// packages.
type SubFeed struct {
	Packages map[string]PackageEntry `plist:"Packages"`
}

// PackageEntry is the raw, duck-typed package record as published in a
// sub-feed. IsMandatory is frequently absent, which means optional.
// DownloadSize arrives as an integer in some feeds and as a
// punctuation-grouped string in others.
type PackageEntry struct {
	DownloadName string `plist:"DownloadName"`
	IsMandatory  bool   `plist:"IsMandatory"`
	DownloadSize any    `plist:"DownloadSize"`
}

// DeclaredSize normalizes the catalog-declared package size to bytes,
// stripping thousands-separator punctuation from string forms.
func (e PackageEntry) DeclaredSize() (int64, error) {
	switch v := e.DownloadSize.(type) {
	case nil:
		return 0, fmt.Errorf("package %q: no declared size", e.DownloadName)
	case int64:
		return v, nil
	case uint64:
		return int64(v), nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		cleaned := strings.TrimSpace(v)
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", "")
		size, err := strconv.ParseInt(cleaned, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("package %q: declared size %q: %w", e.DownloadName, v, err)
		}
		return size, nil
	default:
		return 0, fmt.Errorf("package %q: declared size has unexpected type %T", e.DownloadName, v)
	}
}
