// Package feed fetches and decodes the remote plist catalog that describes
// downloadable audio-loop packages.
//
// The master catalog maps product families to release years to sub-feed
// filenames; each sub-feed maps package identifiers to download records.
// Feeds are published in both XML and binary plist encodings, so decoding
// goes through howett.net/plist which handles either transparently.
package feed
