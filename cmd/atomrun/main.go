package main

import (
	"fmt"
	"os"
)

func main() {
	flags := &RunFlags{}
	var exitCode int
	root := newRootCmd(flags, &exitCode)

	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// Mirror the child's exit code. Commit failures are reported through
	// diagnostics only and never change this.
	os.Exit(exitCode)
}
