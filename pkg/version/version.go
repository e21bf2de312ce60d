// Package version reports the fieldprobe build stamped in by the linker.
package version

import (
	"runtime/debug"
	"sync"
)

const unset = "dev"

// Set with -ldflags "-X github.com/carverauto/fieldprobe/pkg/version.version=..."
//
//nolint:gochecknoglobals // These are intentionally global for ldflags injection
var (
	version = unset
	buildID = unset
)

//nolint:gochecknoglobals // resolved once from the embedded build info
var vcsRevision = sync.OnceValue(func() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}

	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 12 {
			return s.Value[:12]
		}
	}

	return ""
})

func GetVersion() string {
	return version
}

// GetBuildID falls back to the VCS revision recorded by the go tool when the
// linker did not stamp one.
func GetBuildID() string {
	if buildID != unset {
		return buildID
	}

	if rev := vcsRevision(); rev != "" {
		return rev
	}

	return buildID
}

func GetFullVersion() string {
	return version + " (build: " + GetBuildID() + ")"
}

// UserAgent names component in outbound HTTP requests, e.g. "fieldprobe-agent/1.2.0".
func UserAgent(component string) string {
	return "fieldprobe-" + component + "/" + version
}
