// Package version reports build metadata set through ldflags, falling back to
// the VCS information embedded by the Go toolchain.
package version

import (
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
)

var (
	Version   string // Set via ldflags.
	Branch    string
	BuildUser string
	BuildDate string

	Revision  = getRevision(readBuildInfo)
	GoVersion = runtime.Version()
	GoOS      = runtime.GOOS
	GoArch    = runtime.GOARCH
)

// GetVersion returns the release version, or the VCS revision for
// development builds.
func GetVersion() string {
	if Version != "" {
		return Version
	}

	return Revision
}

// String returns a one-line description of the build.
func String() string {
	return fmt.Sprintf("xlclean %s (revision %s, %s %s/%s)", GetVersion(), Revision, GoVersion, GoOS, GoArch)
}

// LogValue groups the build metadata for structured logs.
func LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("version", GetVersion()),
		slog.String("revision", Revision),
		slog.String("go", GoVersion),
	}

	if Branch != "" {
		attrs = append(attrs, slog.String("branch", Branch))
	}
	if BuildDate != "" {
		attrs = append(attrs, slog.String("date", BuildDate))
	}
	if BuildUser != "" {
		attrs = append(attrs, slog.String("user", BuildUser))
	}

	return slog.GroupValue(attrs...)
}

func readBuildInfo() (*debug.BuildInfo, bool) {
	return debug.ReadBuildInfo()
}

func getRevision(read func() (*debug.BuildInfo, bool)) string {
	rev := "unknown"

	buildInfo, ok := read()
	if !ok {
		return rev
	}

	modified := false

	for _, v := range buildInfo.Settings {
		switch v.Key {
		case "vcs.revision":
			if len(v.Value) > 7 {
				rev = v.Value[:7]
			} else {
				rev = v.Value
			}

		case "vcs.modified":
			if v.Value == "true" {
				modified = true
			}
		}
	}

	if modified {
		return rev + "-dirty"
	}

	return rev
}
