// Package version reports build information stamped at link time:
//
//	go build -ldflags "-X github.com/kbukum/pushhub/version.Version=v1.2.0"
//
// Unset values fall back to the module's embedded VCS settings.
package version

import (
	"runtime/debug"
	"time"
)

var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info is the build description served by /version.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	Dirty     bool   `json:"dirty"`
}

// Get returns the build information for the running binary.
func Get() Info {
	info := Info{Version: Version, GitCommit: GitCommit, BuildTime: BuildTime}

	if bi, ok := debug.ReadBuildInfo(); ok {
		info.GoVersion = bi.GoVersion
		applyVCS(&info, bi.Settings)
	}
	if len(info.GitCommit) > 7 {
		info.GitCommit = info.GitCommit[:7]
	}
	return info
}

func applyVCS(info *Info, settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		case "vcs.time":
			if info.BuildTime == "" {
				if _, err := time.Parse(time.RFC3339, s.Value); err == nil {
					info.BuildTime = s.Value
				}
			}
		}
	}
}

// String renders "version-commit[-dirty]", or just the version when no
// commit is known.
func (i Info) String() string {
	if i.GitCommit == "" {
		return i.Version
	}
	s := i.Version + "-" + i.GitCommit
	if i.Dirty {
		s += "-dirty"
	}
	return s
}
