package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/wav"

	"hitcut/internal/testsupport"
)

func writeMetadataLog(t *testing.T, path string, rows ...string) {
	t.Helper()
	body := "# Generated 2026-10-19T10:00:00Z\nfilename,start_time,end_time\n" + strings.Join(rows, "\n") + "\n"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func wavSeconds(t *testing.T, path string) float64 {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	d, err := wav.NewDecoder(f).Duration()
	if err != nil {
		t.Fatalf("duration: %v", err)
	}
	return d.Seconds()
}

func TestTrimNativeCommand(t *testing.T) {
	isolateHome(t)
	cfg := testsupport.NewConfig(t, testsupport.WithNativeTrim())
	configPath := writeTestConfig(t, cfg)
	logPath := cfg.Trim.MetadataFile
	sample := filepath.Join(filepath.Dir(logPath), "soft-hitwhistle11.wav")
	untracked := filepath.Join(filepath.Dir(logPath), "soft-hitwhistle12.wav")
	testsupport.WriteWAV(t, sample, 8000, 1, 5.0)
	testsupport.WriteWAV(t, untracked, 8000, 1, 5.0)
	before := testsupport.ModTime(t, untracked)
	writeMetadataLog(t, logPath, "soft-hitwhistle11,1.250,3.000", "x,0.000,2.000")

	res := runCLI(t, "-c", configPath, "trim", logPath)
	if res.code != 0 {
		t.Fatalf("trim exited %d\nstdout: %s\nstderr: %s", res.code, res.stdout, res.stderr)
	}
	if got := wavSeconds(t, sample); got < 3.7499 || got > 3.7501 {
		t.Fatalf("trimmed duration = %.4f, want 3.75", got)
	}
	if testsupport.ModTime(t, untracked) != before {
		t.Fatal("untracked file was modified")
	}
	if !strings.Contains(res.stdout, "Processed: 1  Skipped: 1  Errors: 0") {
		t.Fatalf("unexpected summary:\n%s", res.stdout)
	}

	// the ledger keeps a second run from trimming again
	res = runCLI(t, "-c", configPath, "trim", logPath)
	if res.code != 0 {
		t.Fatalf("second trim exited %d: %s", res.code, res.stderr)
	}
	if got := wavSeconds(t, sample); got < 3.7499 || got > 3.7501 {
		t.Fatalf("second run changed duration to %.4f", got)
	}
	if !strings.Contains(res.stdout, "Processed: 0  Skipped: 2  Errors: 0") {
		t.Fatalf("unexpected second summary:\n%s", res.stdout)
	}
}

func TestTrimMalformedRowExitsOne(t *testing.T) {
	isolateHome(t)
	cfg := testsupport.NewConfig(t, testsupport.WithNativeTrim())
	configPath := writeTestConfig(t, cfg)
	writeMetadataLog(t, cfg.Trim.MetadataFile, "y,abc,2.000")

	res := runCLI(t, "-c", configPath, "trim", cfg.Trim.MetadataFile)
	if res.code != 1 {
		t.Fatalf("expected exit 1, got %d\n%s", res.code, res.stdout)
	}
	if !strings.Contains(res.stdout, "Errors: 1") {
		t.Fatalf("unexpected summary:\n%s", res.stdout)
	}
}

func TestTrimMissingLogIsFatal(t *testing.T) {
	isolateHome(t)
	cfg := testsupport.NewConfig(t, testsupport.WithNativeTrim())
	configPath := writeTestConfig(t, cfg)

	res := runCLI(t, "-c", configPath, "trim", filepath.Join(testsupport.BaseDir(cfg), "nope.csv"))
	if res.code == 0 {
		t.Fatal("missing log should fail")
	}
	if !strings.Contains(res.stderr, "configuration error") {
		t.Fatalf("expected configuration error, got %q", res.stderr)
	}
}

func TestTrimMissingToolIsFatal(t *testing.T) {
	isolateHome(t)
	cfg := testsupport.NewConfig(t)
	cfg.Trim.FFmpegBinary = filepath.Join(testsupport.BaseDir(cfg), "missing-ffmpeg")
	configPath := writeTestConfig(t, cfg)
	writeMetadataLog(t, cfg.Trim.MetadataFile, "a,1.000,2.000")

	res := runCLI(t, "-c", configPath, "trim", cfg.Trim.MetadataFile)
	if res.code == 0 {
		t.Fatal("missing trim tool should fail")
	}
	if !strings.Contains(res.stderr, "not found") {
		t.Fatalf("expected missing tool message, got %q", res.stderr)
	}
}

func TestTrimFFmpegBackendWithStub(t *testing.T) {
	isolateHome(t)
	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	cfg.Trim.FFmpegBinary = writeScript(t, filepath.Join(base, "tools", "ffmpeg"),
		`for last; do :; done
printf 'trimmed' > "$last"`)
	configPath := writeTestConfig(t, cfg)
	dir := filepath.Dir(cfg.Trim.MetadataFile)
	testsupport.WriteFile(t, filepath.Join(dir, "soft-hitwhistle11.ogg"), 4096)
	writeMetadataLog(t, cfg.Trim.MetadataFile, "soft-hitwhistle11,1.250,3.000")

	res := runCLI(t, "-c", configPath, "trim", "--no-ledger", cfg.Trim.MetadataFile)
	if res.code != 0 {
		t.Fatalf("trim exited %d\nstdout: %s\nstderr: %s", res.code, res.stdout, res.stderr)
	}
	data, err := os.ReadFile(filepath.Join(dir, "soft-hitwhistle11.ogg"))
	if err != nil || string(data) != "trimmed" {
		t.Fatalf("file = %q err=%v", data, err)
	}
	if _, err := os.Stat(cfg.Trim.LedgerPath); !os.IsNotExist(err) {
		t.Fatalf("--no-ledger should not create the ledger: %v", err)
	}
}
