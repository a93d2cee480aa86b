package version

import (
	"errors"
	"strings"
	"testing"
)

// stubGit answers git invocations from a table keyed by the first flag after
// "describe". Missing keys fail like a repository without tags.
func stubGit(t *testing.T, answers map[string]string) {
	t.Helper()
	orig := runGit
	t.Cleanup(func() {
		runGit = orig
		Reset()
	})
	runGit = func(args ...string) (string, error) {
		if len(args) < 2 || args[0] != "describe" {
			t.Fatalf("unexpected git invocation %v", args)
		}
		out, ok := answers[args[1]]
		if !ok {
			return "", errors.New("exit status 128")
		}
		return out, nil
	}
}

func TestInfo(t *testing.T) {
	tests := []struct {
		name       string
		answers    map[string]string
		wantVer    string
		wantCommit string
	}{
		{
			name:       "tagged checkout",
			answers:    map[string]string{"--always": "4f2c9e1", "--tags": "v0.3.0"},
			wantVer:    "v0.3.0",
			wantCommit: "4f2c9e1",
		},
		{
			name:       "no tags",
			answers:    map[string]string{"--always": "4f2c9e1-dirty"},
			wantVer:    "dev",
			wantCommit: "4f2c9e1-dirty",
		},
		{
			name:       "empty tag output",
			answers:    map[string]string{"--always": "4f2c9e1", "--tags": ""},
			wantVer:    "dev",
			wantCommit: "4f2c9e1",
		},
		{
			name:       "not a repository",
			answers:    map[string]string{},
			wantVer:    "dev",
			wantCommit: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Reset()
			stubGit(t, tt.answers)

			if got := GetVersion(); got != tt.wantVer {
				t.Errorf("GetVersion() = %q, want %q", got, tt.wantVer)
			}
			if got := GetCommit(); got != tt.wantCommit {
				t.Errorf("GetCommit() = %q, want %q", got, tt.wantCommit)
			}
			info := Info()
			if !strings.HasPrefix(info, "llmusage "+tt.wantVer+" ") || !strings.Contains(info, "commit: "+tt.wantCommit) {
				t.Errorf("Info() = %q", info)
			}
		})
	}
}

func TestGetDate(t *testing.T) {
	Reset()
	stubGit(t, nil)
	if GetDate() == "" {
		t.Error("GetDate() returned empty string")
	}
}

func TestLdflagsTakePrecedence(t *testing.T) {
	Reset()
	stubGit(t, nil)
	Version, Commit, Date = "1.2.3", "abc123", "2025-01-01"

	if GetVersion() != "1.2.3" || GetCommit() != "abc123" || GetDate() != "2025-01-01" {
		t.Errorf("build values overwritten: %s %s %s", Version, Commit, Date)
	}
}
