package credentials

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/j-veylop/llm-usage-tui/internal/models"
)

func TestService_GetSet(t *testing.T) {
	svc, err := New(map[models.Provider]string{models.ProviderOpenAI: "sk-a"}, "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer svc.Close()

	if !svc.Has(models.ProviderOpenAI) || svc.Has(models.ProviderAnthropic) {
		t.Error("unexpected initial credentials")
	}
	if got := svc.Configured(); len(got) != 1 || got[0] != models.ProviderOpenAI {
		t.Errorf("Configured() = %v", got)
	}

	if !svc.Set(models.ProviderAnthropic, "sk-ant") {
		t.Error("Set should report a change")
	}
	if svc.Set(models.ProviderAnthropic, "sk-ant") {
		t.Error("setting the same key is not a change")
	}
	if svc.Get(models.ProviderAnthropic) != "sk-ant" {
		t.Error("key was not stored")
	}
}

func TestService_WatchEnvFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ".env")
	if err := os.WriteFile(path, []byte("OPENAI_ADMIN_KEY=old\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	svc, err := New(map[models.Provider]string{models.ProviderOpenAI: "old"}, path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer svc.Close()

	if err := os.WriteFile(path, []byte("OPENAI_ADMIN_KEY=old\nANTHROPIC_ADMIN_KEY=new\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-svc.Events():
		if ev.Type != EventCredentialsChanged {
			t.Fatalf("event type = %v, error %v", ev.Type, ev.Error)
		}
		if len(ev.Providers) != 1 || ev.Providers[0] != models.ProviderAnthropic {
			t.Errorf("changed providers = %v", ev.Providers)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for credentials event")
	}

	if svc.Get(models.ProviderAnthropic) != "new" {
		t.Error("reloaded key not applied")
	}
}

func TestService_IgnoresOtherFiles(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ".env")

	svc, err := New(nil, path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer svc.Close()

	if err := os.WriteFile(filepath.Join(tmpDir, "other.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-svc.Events():
		t.Errorf("unexpected event %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}
