package main

import "github.com/ivyforms/ivyforms/internal/cli"

// Version is set via ldflags.
var Version = "dev"

func main() {
	cli.Execute(Version)
}
