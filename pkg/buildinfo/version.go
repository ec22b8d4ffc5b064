// Package buildinfo reports which viewgrid build is running.
//
// Release builds stamp the variables through ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/viewgrid/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/viewgrid/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/viewgrid/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Builds without ldflags (go install, go run) fall back to the module
// version and VCS stamps recorded by the Go toolchain.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"sync"
)

// Set via ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info describes the running build.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
}

var (
	infoOnce sync.Once
	info     Info
)

// Get returns the build description. It is computed once.
func Get() Info {
	infoOnce.Do(func() {
		bi, _ := debug.ReadBuildInfo()
		info = resolve(Version, Commit, Date, bi)
	})
	return info
}

// resolve fills unset ldflags values from bi.
func resolve(version, commit, date string, bi *debug.BuildInfo) Info {
	in := Info{Version: version, Commit: commit, Date: date}
	if bi == nil {
		return in
	}
	in.GoVersion = bi.GoVersion
	if in.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		in.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && in.Commit == "none":
			in.Commit = s.Value
		case s.Key == "vcs.time" && in.Date == "unknown":
			in.Date = s.Value
		}
	}
	return in
}

// String returns the formatted build information.
func String() string {
	in := Get()
	return fmt.Sprintf("version: %s\ncommit: %s\nbuilt: %s", in.Version, in.Commit, in.Date)
}

// Template returns the version template string for cobra.
func Template() string {
	in := Get()
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", in.Version, in.Commit, in.Date)
}

// UserAgent returns the User-Agent sent to the image host.
func UserAgent() string {
	return "viewgrid/" + Get().Version
}
