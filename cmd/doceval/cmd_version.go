package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Build metadata, overridden at release time:
//
//	go build -ldflags "-X main.Version=0.3.0 -X main.Commit=$(git rev-parse --short HEAD)"
var (
	Version = "dev"
	Commit  = "unknown"
)

func runVersion(_ *cobra.Command, _ []string) {
	commit := Commit
	modified := ""
	if commit == "unknown" {
		// Binaries built without ldflags still carry VCS stamps
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					commit = s.Value
					if len(commit) > 12 {
						commit = commit[:12]
					}
				case "vcs.modified":
					if s.Value == "true" {
						modified = " (dirty)"
					}
				}
			}
		}
	}

	fmt.Printf("doceval %s\n", Version)
	fmt.Printf("  commit: %s%s\n", commit, modified)
	fmt.Printf("  go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
