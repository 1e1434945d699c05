// Command pdxload validates PDX provider releases and loads them into the
// graph store.
package main

import (
	"fmt"
	"os"
)

var exitFunc = os.Exit

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "pdxload: %v\n", err)
		exitFunc(1)
	}
}
