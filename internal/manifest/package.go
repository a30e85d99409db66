package manifest

import (
	"path/filepath"
	"slices"
)

// Package is an immutable, fully resolved download record. Identity is
// value equality across all fields: two entries with the same filename but
// different metadata are distinct.
type Package struct {
	// Name is the on-disk filename.
	Name string
	// URL is the absolute download URL, already rewritten for the caching
	// proxy or legacy origin path where applicable.
	URL       string
	Mandatory bool
	// Size is the authoritative byte count used for completeness checks
	// and progress, preferring the live transfer length over the
	// catalog-declared value.
	Size int64
	// Year is the 4-digit release year, re-derived from the resolved URL.
	Year string
	// ProductFamily is the sub-feed name with digits removed.
	ProductFamily string
	// SourceFeed is the sub-feed base name; it selects the local
	// subdirectory.
	SourceFeed string
}

// Kind returns the layout segment for the package's mandatory flag.
func (p Package) Kind() string {
	if p.Mandatory {
		return "mandatory"
	}
	return "optional"
}

// LocalPath derives the package's target path under root:
// <root>/<sourceFeed>/<mandatory|optional>/<name>. The mapping is pure; it
// depends on nothing outside the record.
func (p Package) LocalPath(root string) string {
	return filepath.Join(root, p.SourceFeed, p.Kind(), p.Name)
}

// Manifest is the ordered, deduplicated sequence of packages for one run.
// Insertion order is feed traversal order.
type Manifest struct {
	packages []Package
}

// Add appends pkg unless a field-wise identical record is already present.
// It reports whether the package was inserted.
func (m *Manifest) Add(pkg Package) bool {
	if slices.Contains(m.packages, pkg) {
		return false
	}
	m.packages = append(m.packages, pkg)
	return true
}

// Packages returns the manifest entries in insertion order.
func (m *Manifest) Packages() []Package {
	return m.packages
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.packages)
}

// TotalSize returns the sum of declared sizes across all entries.
func (m *Manifest) TotalSize() int64 {
	var total int64
	for _, pkg := range m.packages {
		total += pkg.Size
	}
	return total
}
