package apikey

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestEnvStore_DefaultConvention(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test-123")
	s, err := NewEnvStore()
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	got, err := s.Get(context.Background(), "openai")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "sk-test-123" {
		t.Fatalf("unexpected value: %q", got)
	}
}

func TestEnvStore_MissingKey(t *testing.T) {
	s, err := NewEnvStore()
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := s.Get(context.Background(), "definitely-not-set"); err == nil {
		t.Fatalf("expected error for unset key")
	}
}

func TestEnvStore_Override(t *testing.T) {
	t.Setenv("CUSTOM_TOKEN", "xyz")
	s, err := NewEnvStore()
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	s.WithOverride("webhook", "CUSTOM_TOKEN")

	got, err := s.Get(context.Background(), "webhook")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "xyz" {
		t.Fatalf("unexpected value: %q", got)
	}
}

func TestNewEnvStore_MissingDotenvFileIsNotAnError(t *testing.T) {
	if _, err := NewEnvStore(filepath.Join(t.TempDir(), "does-not-exist.env")); err != nil {
		t.Fatalf("expected missing .env file to be tolerated, got %v", err)
	}
}

func TestNewEnvStore_LoadsDotenvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("ANTHROPIC_API_KEY=sk-ant-from-file\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	os.Unsetenv("ANTHROPIC_API_KEY")

	s, err := NewEnvStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	got, err := s.Get(context.Background(), "anthropic")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "sk-ant-from-file" {
		t.Fatalf("unexpected value: %q", got)
	}
}
