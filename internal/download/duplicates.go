package download

import (
	"os"
	"path/filepath"

	"loopfetch/internal/manifest"
)

// FindDuplicate scans the existing <sourceFeed>/<mandatory|optional> leaf
// directories under root for a file named like pkg that also satisfies the
// completeness check, independent of the package's own expected
// subdirectory. Packages shared across product families are fetched once
// and copied everywhere else they are needed. Returns the first satisfying
// path; scan order is unspecified.
func FindDuplicate(root string, pkg manifest.Package) (string, bool) {
	dirs, err := filepath.Glob(filepath.Join(root, "*", "*"))
	if err != nil {
		return "", false
	}

	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		candidate := filepath.Join(dir, pkg.Name)
		if Complete(pkg, candidate) {
			return candidate, true
		}
	}
	return "", false
}
