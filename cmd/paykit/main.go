// Command paykit is a developer CLI for the PayKit payment API: create
// payments, wait for settlement, check widget status, browse local payment
// history, and run a mock API for offline development.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
