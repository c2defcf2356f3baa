// Package main is the fitroute command-line client. It drives the
// reconciliation core against the FitRoute API, falling back to the local
// cache when the API cannot be reached.
package main

import (
	"os"
)

func main() {
	root, a := newRootCmd()
	err := root.Execute()
	a.close()
	if err != nil {
		os.Exit(1)
	}
}
