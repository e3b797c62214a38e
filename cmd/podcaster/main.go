// Command podcaster is the operator CLI: it runs individual pipeline
// passes on demand, supports dry-run and watch modes, and reports the
// stored set in tabular or record-oriented form.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
