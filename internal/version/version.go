// Package version reports build metadata for the agentsmith binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Overridden at link time via -ldflags "-X ...". Binaries built
// straight from a checkout recover the commit from the embedded VCS
// stamp instead.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

type Info struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
}

func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
	}
	if info.Commit != "none" {
		return info
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			info.Commit = setting.Value
		case "vcs.time":
			if info.Date == "unknown" {
				info.Date = setting.Value
			}
		}
	}
	return info
}

func (i Info) String() string {
	return fmt.Sprintf("agentsmith %s (commit: %s, built: %s, %s)",
		i.Version, i.Commit, i.Date, i.GoVersion)
}
