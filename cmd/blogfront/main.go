// Command blogfront serves the web front, runs the stub backend for local
// development, and works with the posts service from the terminal.
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/eringen/blogfront/errs"
)

// version info injected via ldflags:
// go build -ldflags "-X main.version=1.0.0 -X main.commit=abc1234"
var (
	version = "dev"
	commit  = "none"
)

func init() {
	if commit == "none" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" && len(s.Value) >= 7 {
					commit = s.Value[:7]
					break
				}
			}
		}
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Classified errors were already shown by the terminal notifier.
		if errs.KindOf(err) == "" {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
