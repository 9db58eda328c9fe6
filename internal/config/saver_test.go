package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAtomicWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "fa.yaml")

	if err := atomicWrite(path, []byte("a: 1\n")); err != nil {
		t.Fatalf("atomicWrite failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if string(data) != "a: 1\n" {
		t.Errorf("content mismatch: got %q", data)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file was not cleaned up")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fa.yaml")

	cfg := Default()
	cfg.Bot.Workers = 5
	cfg.Model.Breaker.Timeout = 90 * time.Second
	cfg.Model.Classifier.Hidden = []int{10, 5}
	cfg.Faculties = map[string]string{"ГФ": "Гуманитарный"}

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Bot.Workers != 5 {
		t.Errorf("expected 5 workers, got %d", loaded.Bot.Workers)
	}
	if loaded.Model.Breaker.Timeout != 90*time.Second {
		t.Errorf("expected 90s, got %v", loaded.Model.Breaker.Timeout)
	}
	if len(loaded.Model.Classifier.Hidden) != 2 || loaded.Model.Classifier.Hidden[0] != 10 {
		t.Errorf("expected hidden [10 5], got %v", loaded.Model.Classifier.Hidden)
	}
	if loaded.Faculties["ГФ"] != "Гуманитарный" {
		t.Errorf("expected faculty name, got %v", loaded.Faculties)
	}
}

func TestSaveKeepsBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fa.yaml")

	first := Default()
	first.Bot.Workers = 2
	if err := Save(first, path); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	second := Default()
	second.Bot.Workers = 7
	if err := Save(second, path); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	bak, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("expected backup file: %v", err)
	}
	if !strings.Contains(string(bak), "workers: 2") {
		t.Errorf("expected backup of first config, got:\n%s", bak)
	}
}

func TestMarshalRedacted(t *testing.T) {
	cfg := Default()
	cfg.Bot.Token = "123:secret"

	data, err := Marshal(cfg.Redacted())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if strings.Contains(string(data), "secret") {
		t.Errorf("expected token to be masked, got:\n%s", data)
	}
}
