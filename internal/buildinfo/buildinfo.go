// Package buildinfo carries the version stamped into aliasd and aliasctl.
//
// Release builds set the variables with
//
//	-ldflags "-X github.com/marmos91/aliasd/internal/buildinfo.Version=v1.2.0 ..."
//
// Other builds fall back to the module version and VCS stamp that the Go
// toolchain records.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"sync"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var fillOnce sync.Once

func fill() {
	fillOnce.Do(func() {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			Version = info.Main.Version
		}
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && Commit == "none":
				Commit = s.Value
				if len(Commit) > 12 {
					Commit = Commit[:12]
				}
			case s.Key == "vcs.time" && Date == "unknown":
				Date = s.Value
			}
		}
	})
}

// Get returns the version, after the build info fallback.
func Get() string {
	fill()
	return Version
}

// String is the one-line banner printed by the version commands.
func String(program string) string {
	fill()
	return fmt.Sprintf("%s %s (commit: %s, built: %s)", program, Version, Commit, Date)
}
