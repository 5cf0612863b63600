//go:build !ebiten

package main

import (
	"fmt"
	"os"
)

// Without ebiten there is no window; point at the terminal viewer.
func main() {
	fmt.Fprintln(os.Stderr, "ca: the factions window needs the ebiten build tag (go run -tags ebiten ./cmd/ca).")
	fmt.Fprintln(os.Stderr, "ca: for a headless run use: go run ./cmd/goi -watch -rows 40 -cols 80")
	os.Exit(2)
}
