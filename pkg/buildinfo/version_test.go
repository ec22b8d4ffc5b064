package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	bi := &debug.BuildInfo{
		GoVersion: "go1.24.2",
		Main:      debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-03-01T12:00:00Z"},
		},
	}
	tests := []struct {
		name                  string
		version, commit, date string
		bi                    *debug.BuildInfo
		want                  Info
	}{
		{"no build info", "dev", "none", "unknown", nil, Info{"dev", "none", "unknown", ""}},
		{"from toolchain", "dev", "none", "unknown", bi, Info{"v0.3.1", "abc123", "2026-03-01T12:00:00Z", "go1.24.2"}},
		{"ldflags win", "v1.0.0", "fff", "today", bi, Info{"v1.0.0", "fff", "today", "go1.24.2"}},
		{"devel module", "dev", "none", "unknown", &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, Info{"dev", "none", "unknown", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolve(tt.version, tt.commit, tt.date, tt.bi); got != tt.want {
				t.Errorf("resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	in := Get()
	for _, want := range []string{"version: " + in.Version, "commit: " + in.Commit, "built: " + in.Date} {
		if !strings.Contains(String(), want) {
			t.Errorf("String() missing %q", want)
		}
	}
	if got := UserAgent(); got != "viewgrid/"+in.Version {
		t.Errorf("UserAgent() = %q", got)
	}
}
