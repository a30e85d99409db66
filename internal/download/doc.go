// Package download executes a resolved manifest against the content origin.
//
// It decides per entry whether the target file is already complete, whether
// an identical package elsewhere in the tree can be copied instead of
// re-fetched, and otherwise streams the package from the network with
// progress reporting. Totals accumulate on a Ledger for the run summary.
// Completeness is judged at storage-block granularity rather than raw byte
// counts, since on-disk allocation can drift slightly from the nominal size.
package download
