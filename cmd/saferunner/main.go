// Saferunner - personal-safety check-in bot for Telegram
package main

import "github.com/saferunner/saferunner/internal/cli"

// version is set at build time via -ldflags
var version = "0.2.0"

func main() {
	cli.SetVersion(version)
	cli.Execute()
}
