// Package main provides the hrbackend command: the HTTP server plus schema and
// hierarchy maintenance commands.
package main

// Version information (set by build process)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	Execute()
}
