package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		reportError(os.Stdout, os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints the failure once. An interrupt gets a bare newline so
// the shell prompt does not land on a half-drawn progress line.
func reportError(out, errOut io.Writer, err error) {
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(out)
		return
	}
	fmt.Fprintln(errOut, err)
}
