// blendwerk - file-based mock HTTP/HTTPS server
package main

import (
	"os"

	"github.com/jakobwesthoff/blendwerk/pkg/cli"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	os.Exit(cli.Execute(Version, os.Args[1:]))
}
