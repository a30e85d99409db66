// Package manifest resolves the remote catalog into a concrete, deduplicated
// download plan.
//
// It owns the Package record (the typed form every downstream stage operates
// on), the URL construction rules including caching-proxy rewriting and
// legacy-path correction, and the Builder that walks product x year x
// sub-feed selections into an ordered Manifest.
package manifest
