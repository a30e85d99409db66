// Command loopfetch downloads Apple audio loop packages for GarageBand,
// Logic Pro X, and MainStage from the published catalog feeds.
package main
