// Command sigmatch matches CRM signals to companies: it extracts
// organization names from signal text, scores them against the local
// reference store, links matches in the CRM, and assigns owners.
package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes follow the matching contract: 0 matched, 2 no matches,
// 1 anything else.
const (
	exitOK        = 0
	exitError     = 1
	exitNoMatches = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		if errors.Is(err, errNoMatches) {
			return exitNoMatches
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitError
	}
	return exitOK
}
