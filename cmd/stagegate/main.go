package main

import (
	"fmt"
	"os"

	"github.com/stagegate/stagegate/internal/cli"
)

// Set at build time via -ldflags "-X main.version=..."
var (
	version string
	commit  string
	date    string
)

func main() {
	app := cli.New()
	app.SetVersion(version, commit, date)
	if err := app.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
