package main

import (
	"testing"

	"loopfetch/internal/testsupport"
)

func TestDepsCommandReportsConfiguredBinary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	// sh is present everywhere the tests run.
	cfg.DiskImage.Binary = "sh"
	path := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, []string{"deps"}, path)
	if err != nil {
		t.Fatalf("deps: %v", err)
	}
	requireContains(t, out, "hdiutil")
	requireContains(t, out, "sh")
	requireContains(t, out, "yes")
}

func TestDepsCommandMissingOptionalBinaryDoesNotFail(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.DiskImage.Binary = "definitely-not-installed"
	path := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, []string{"deps"}, path)
	if err != nil {
		t.Fatalf("deps with missing optional binary: %v", err)
	}
	requireContains(t, out, "not found")
}
