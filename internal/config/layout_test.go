package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeLayout(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "layout.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write layout: %v", err)
	}
	return path
}

func TestLoadLayout(t *testing.T) {
	path := writeLayout(t, `
charts:
  - width: 0.5
    height: 1
    position: left
  - width: 0.5
    height: 1
    position: right
`)
	layout, err := LoadLayout(path)
	if err != nil {
		t.Fatalf("LoadLayout() error = %v", err)
	}
	if len(layout.Charts) != 2 {
		t.Fatalf("charts = %d; want 2", len(layout.Charts))
	}
	if layout.Charts[1].Position != "right" {
		t.Fatalf("charts[1].position = %q; want right", layout.Charts[1].Position)
	}
}

func TestLoadLayoutMissingFile(t *testing.T) {
	_, err := LoadLayout(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("LoadLayout() error = %v; want os.ErrNotExist", err)
	}
}

func TestLoadLayoutRejectsEmpty(t *testing.T) {
	path := writeLayout(t, "charts: []\n")
	if _, err := LoadLayout(path); err == nil {
		t.Fatal("expected error for empty chart list")
	}
}

func TestLoadLayoutZeroDimensionsDefaulted(t *testing.T) {
	path := writeLayout(t, "charts:\n  - position: left\n")
	layout, err := LoadLayout(path)
	if err != nil {
		t.Fatalf("LoadLayout() error = %v", err)
	}
	if layout.Charts[0].Width != 1 || layout.Charts[0].Height != 1 {
		t.Fatalf("dimensions = %v,%v; want 1,1", layout.Charts[0].Width, layout.Charts[0].Height)
	}
}
