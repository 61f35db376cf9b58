package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestWatchReloadsOnSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	initial := &UserConfig{Provider: "gemini"}
	if err := initial.Save(path); err != nil {
		t.Fatal(err)
	}

	changes := make(chan *UserConfig, 4)
	stop, err := Watch(path, func(cfg *UserConfig) { changes <- cfg })
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer stop()

	updated := &UserConfig{
		Provider: "openai",
		Storage:  StorageConfig{RemoteURL: "https://db.example.com", RemoteKey: "k"},
	}
	if err := updated.Save(path); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-changes:
		if cfg.Provider != "openai" {
			t.Errorf("reloaded provider = %q, want openai", cfg.Provider)
		}
		if !cfg.Storage.RemoteConfigured() {
			t.Errorf("reloaded storage = %+v, want remote configured", cfg.Storage)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed after writing the config file")
	}
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := (&UserConfig{}).Save(path); err != nil {
		t.Fatal(err)
	}

	changes := make(chan *UserConfig, 4)
	stop, err := Watch(path, func(cfg *UserConfig) { changes <- cfg })
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer stop()

	if err := (&UserConfig{Provider: "gemini"}).Save(filepath.Join(dir, "other.json")); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changes:
		t.Fatal("writing an unrelated file triggered a reload")
	case <-time.After(300 * time.Millisecond):
	}
}
