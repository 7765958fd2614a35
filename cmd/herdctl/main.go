// Command herdctl inspects and drives a running herd client through its
// local diagnostics API.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorText("error:"), err)
		os.Exit(1)
	}
}
