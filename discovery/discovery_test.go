package discovery

import (
	"os"
	"path/filepath"
	"testing"
)

func TestListEnginesFindsExecutables(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "tone-engine")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	nonExe := filepath.Join(dir, "readme.txt")
	if err := os.WriteFile(nonExe, []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ListEngines([]string{dir})
	if err != nil {
		t.Fatalf("ListEngines: %v", err)
	}
	if len(got) != 1 || got[0].Name != "tone-engine" {
		t.Fatalf("got %v", got)
	}
}

func TestListEnginesSkipsMissingDir(t *testing.T) {
	got, err := ListEngines([]string{"/no/such/directory/exists"})
	if err != nil {
		t.Fatalf("ListEngines: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %v, want empty", got)
	}
}

func TestListEnginesDedupesAcrossDirs(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	for _, dir := range []string{a, b} {
		exe := filepath.Join(dir, "tone-engine")
		if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0755); err != nil {
			t.Fatal(err)
		}
	}
	got, err := ListEngines([]string{a, b})
	if err != nil {
		t.Fatalf("ListEngines: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %v, want 1 deduplicated entry", got)
	}
}
