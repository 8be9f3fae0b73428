// Package version reports build metadata for the verox binary.
package version

import (
	"fmt"
	"regexp"
	"runtime"
	"runtime/debug"
	"strings"
)

// Set at link time:
//
//	-ldflags "-X github.com/verox-wallet/verox/internal/version.Version=1.2.0"
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Date      string `json:"date,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

var commitPattern = regexp.MustCompile(`^[0-9a-f]{7,40}$`)

// Get returns the build metadata, filling the commit from the embedded VCS
// stamp when the linker did not set it.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.Date == "" {
					info.Date = s.Value
				}
			}
		}
	}
	return info
}

// IsDevelopment reports whether v is an unreleased build: empty, "dev",
// or a bare commit hash.
func IsDevelopment(v string) bool {
	v = strings.TrimPrefix(v, "v")
	return v == "" || v == "dev" || commitPattern.MatchString(v)
}

// String renders a one-line summary.
func (i Info) String() string {
	v := i.Version
	if !IsDevelopment(v) && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	s := fmt.Sprintf("verox %s (%s, %s)", v, i.GoVersion, i.Platform)
	if i.Commit != "" {
		s += " commit " + shortCommit(i.Commit)
	}
	return s
}

func shortCommit(c string) string {
	if len(c) > 7 {
		return c[:7]
	}
	return c
}
