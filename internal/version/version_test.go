package version

import (
	"strings"
	"testing"
)

func TestVersionDefaults(t *testing.T) {
	if Version == "" {
		t.Error("Version must have a default")
	}
	if !strings.Contains(Version, "-dev") {
		t.Errorf("source builds carry the dev marker, got %q", Version)
	}
	// GitCommit and BuildDate stay empty until stamped at build time
	if GitCommit != "" || BuildDate != "" {
		t.Errorf("unstamped build: commit %q, date %q", GitCommit, BuildDate)
	}
}

func TestRenderComposesComponents(t *testing.T) {
	got := render(1, 2, 3, "")
	for _, part := range []string{"1", "2", "3"} {
		if !strings.Contains(got, part) {
			t.Errorf("render(1,2,3) = %q, missing %q", got, part)
		}
	}
	if strings.Contains(got, "-") {
		t.Errorf("no prerelease requested, got %q", got)
	}
	if pre := render(0, 1, 0, "rc1"); !strings.HasSuffix(pre, "-rc1") {
		t.Errorf("prerelease suffix missing: %q", pre)
	}
}

func TestBuildStampsOverridable(t *testing.T) {
	origCommit, origDate := GitCommit, BuildDate
	defer func() { GitCommit, BuildDate = origCommit, origDate }()

	GitCommit = "abc123def456"
	BuildDate = "2026-01-15T10:30:00Z"
	if GitCommit != "abc123def456" || BuildDate != "2026-01-15T10:30:00Z" {
		t.Errorf("stamps not applied: %q %q", GitCommit, BuildDate)
	}
}
