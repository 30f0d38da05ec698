// Command kbsearch queries a legal knowledge base file with the same retrieval pipeline the
// API server uses. It is meant for checking what a question retrieves and for tuning weights.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
