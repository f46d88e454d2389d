package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func writeStub(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
}

func TestCheckBinaries(t *testing.T) {
	present := filepath.Join(t.TempDir(), "present")
	writeStub(t, present)
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: "  ", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for unset command: %q", results[2].Detail)
	}

	missing := MissingRequired(results)
	if len(missing) != 1 || missing[0].Name != "Missing" {
		t.Fatalf("MissingRequired = %#v", missing)
	}
}

func TestResolveCompanionPrefersExplicit(t *testing.T) {
	if got := ResolveCompanion("/opt/ffprobe", "ffmpeg", "ffprobe"); got != "/opt/ffprobe" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveCompanionSidecar(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := filepath.Join(dir, executableName("ffmpeg"))
	ffprobe := filepath.Join(dir, executableName("ffprobe"))
	writeStub(t, ffmpeg)
	writeStub(t, ffprobe)

	if got := ResolveCompanion("", ffmpeg, "ffprobe"); got != ffprobe {
		t.Fatalf("expected sidecar %q, got %q", ffprobe, got)
	}
}

func TestResolveCompanionPathFallback(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := filepath.Join(dir, "custom", executableName("ffmpeg"))
	writeStub(t, ffmpeg)
	binDir := filepath.Join(dir, "bin")
	ffprobe := filepath.Join(binDir, executableName("ffprobe"))
	writeStub(t, ffprobe)
	t.Setenv("PATH", binDir)

	if got := ResolveCompanion("", ffmpeg, "ffprobe"); got != ffprobe {
		t.Fatalf("expected PATH fallback %q, got %q", ffprobe, got)
	}
}

func TestResolveCompanionNotFound(t *testing.T) {
	t.Setenv("PATH", "")
	if got := ResolveCompanion("", "", "ffprobe"); got != "ffprobe" {
		t.Fatalf("expected bare name, got %q", got)
	}
}
