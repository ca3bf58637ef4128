package version

import (
	"runtime/debug"
	"testing"
)

func withVars(t *testing.T, version, commit, buildTime string) {
	t.Helper()
	oldV, oldC, oldB := Version, GitCommit, BuildTime
	Version, GitCommit, BuildTime = version, commit, buildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = oldV, oldC, oldB })
}

func TestGet_LinkerValuesWin(t *testing.T) {
	withVars(t, "v1.2.0", "abcdef0123456789", "2026-01-02T03:04:05Z")

	info := Get()
	if info.Version != "v1.2.0" {
		t.Errorf("Version = %q", info.Version)
	}
	if info.GitCommit != "abcdef0" {
		t.Errorf("GitCommit = %q, want short hash", info.GitCommit)
	}
	if info.BuildTime != "2026-01-02T03:04:05Z" {
		t.Errorf("BuildTime = %q", info.BuildTime)
	}
}

func TestApplyVCS(t *testing.T) {
	info := Info{Version: "dev"}
	applyVCS(&info, []debug.BuildSetting{
		{Key: "vcs.revision", Value: "1234567890"},
		{Key: "vcs.modified", Value: "true"},
		{Key: "vcs.time", Value: "2026-03-04T05:06:07Z"},
	})
	if info.GitCommit != "1234567890" || !info.Dirty || info.BuildTime != "2026-03-04T05:06:07Z" {
		t.Errorf("unexpected info: %+v", info)
	}

	info = Info{GitCommit: "linked", BuildTime: "linked"}
	applyVCS(&info, []debug.BuildSetting{
		{Key: "vcs.revision", Value: "vcs"},
		{Key: "vcs.time", Value: "not-a-time"},
	})
	if info.GitCommit != "linked" || info.BuildTime != "linked" {
		t.Errorf("linker values should win: %+v", info)
	}
}

func TestInfo_String(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "dev"}, "dev"},
		{Info{Version: "v1.0.0", GitCommit: "abc1234"}, "v1.0.0-abc1234"},
		{Info{Version: "v1.0.0", GitCommit: "abc1234", Dirty: true}, "v1.0.0-abc1234-dirty"},
	}
	for _, tt := range tests {
		if got := tt.info.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
