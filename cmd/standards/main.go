// Command standards inspects a breed standard table from the command line.
//
// Usage:
//
//	go run ./cmd/standards check --file guide.txt
//	go run ./cmd/standards week 26
//	go run ./cmd/standards range 20 22
//	go run ./cmd/standards export --out hyline.xlsx
//
// Without --file every subcommand uses the embedded Hy-Line Max Pro guide.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errRowsSkipped) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
