package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func saveAndRestore() func() {
	origVersion, origCommit, origBranch, origBuildTime, origGoVersion :=
		Version, GitCommit, GitBranch, BuildTime, GoVersion
	return func() {
		Version = origVersion
		GitCommit = origCommit
		GitBranch = origBranch
		BuildTime = origBuildTime
		GoVersion = origGoVersion
	}
}

func TestGetVersionInfoDefaults(t *testing.T) {
	defer saveAndRestore()()
	Version, GitCommit, GitBranch, BuildTime, GoVersion = "dev", "", "", "", ""

	info := GetVersionInfo()
	if info.Version != "dev" {
		t.Errorf("expected version 'dev', got %q", info.Version)
	}
	if info.IsRelease {
		t.Error("dev should not be a release")
	}
	if info.BuildDate.IsZero() {
		t.Error("BuildDate should not be zero")
	}
}

func TestGetVersionInfoWithLdflags(t *testing.T) {
	defer saveAndRestore()()
	Version, GitCommit, GitBranch, BuildTime, GoVersion = "1.2.0", "abc1234", "main", "2026-03-01T10:30:00Z", "go1.26.0"

	info := GetVersionInfo()
	if !info.IsRelease {
		t.Error("1.2.0 should be a release")
	}
	if info.GitCommit != "abc1234" || info.GoVersion != "go1.26.0" {
		t.Errorf("ldflags must win over build info, got %+v", info)
	}
	if info.BuildDate.Year() != 2026 {
		t.Errorf("expected build year 2026, got %d", info.BuildDate.Year())
	}
}

func TestApplyBuildInfo(t *testing.T) {
	info := &Info{Version: "dev"}
	info.applyBuildInfo(&debug.BuildInfo{
		GoVersion: "go1.26.0",
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.modified", Value: "true"},
			{Key: "vcs.time", Value: "2026-05-04T03:02:01Z"},
		},
	})
	if info.GitCommit != "0123456" {
		t.Errorf("expected truncated commit, got %q", info.GitCommit)
	}
	if !info.IsDirty {
		t.Error("expected dirty build")
	}
	if info.Short() != "dev-0123456-dirty" {
		t.Errorf("unexpected short version %q", info.Short())
	}
	if info.BuildDate.Month() != 5 {
		t.Errorf("expected vcs.time to set build date, got %v", info.BuildDate)
	}
}

func TestFull(t *testing.T) {
	tests := []struct {
		name   string
		info   Info
		want   []string
		absent []string
	}{
		{"main branch hidden", Info{Version: "1.0.0", GitCommit: "abc1234", GitBranch: "main"}, []string{"1.0.0-abc1234"}, []string{"main"}},
		{"feature branch shown", Info{Version: "1.0.0", GitCommit: "abc1234", GitBranch: "feature/x"}, []string{"feature/x"}, nil},
		{"dirty suffix", Info{Version: "1.0.0", IsDirty: true}, []string{"1.0.0-dirty"}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.info.Full()
			for _, w := range tc.want {
				if !strings.Contains(got, w) {
					t.Errorf("expected %q in %q", w, got)
				}
			}
			for _, a := range tc.absent {
				if strings.Contains(got, a) {
					t.Errorf("did not expect %q in %q", a, got)
				}
			}
		})
	}
}

func TestFields(t *testing.T) {
	f := (&Info{Version: "1.0.0", GitCommit: "abc"}).Fields()
	if f["version"] != "1.0.0" || f["git_commit"] != "abc" {
		t.Errorf("unexpected fields: %v", f)
	}
}
