package ledger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(context.Background(), filepath.Join(t.TempDir(), "state", "trim_ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestRecordAndDetectUnchangedFile(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t)
	path := filepath.Join(t.TempDir(), "soft-hitwhistle11.ogg")
	if err := os.WriteFile(path, []byte("trimmed"), 0o644); err != nil {
		t.Fatal(err)
	}

	info, _ := os.Stat(path)
	if _, ok, err := l.AlreadyTrimmed(ctx, path, info); err != nil || ok {
		t.Fatalf("fresh file reported as trimmed: ok=%v err=%v", ok, err)
	}

	if err := l.Record(ctx, path, 1.25, "run-1"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	rec, ok, err := l.AlreadyTrimmed(ctx, path, info)
	if err != nil || !ok {
		t.Fatalf("expected unchanged file to be reported, ok=%v err=%v", ok, err)
	}
	if rec.Onset != 1.25 || rec.RunID != "run-1" || rec.TrimmedAt.IsZero() {
		t.Fatalf("unexpected record %+v", rec)
	}

	// a re-render replaces the file
	if err := os.WriteFile(path, []byte("fresh render, longer"), 0o644); err != nil {
		t.Fatal(err)
	}
	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	info, _ = os.Stat(path)
	if _, ok, _ := l.AlreadyTrimmed(ctx, path, info); ok {
		t.Fatal("changed file must be trimmable again")
	}
}

func TestRecordUpserts(t *testing.T) {
	ctx := context.Background()
	l := openTestLedger(t)
	path := filepath.Join(t.TempDir(), "a.wav")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := l.Record(ctx, path, 1, ""); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := l.Record(ctx, path, 2, "run-2"); err != nil {
		t.Fatalf("Record again: %v", err)
	}
	records, err := l.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 || records[0].Onset != 2 || records[0].RunID != "run-2" {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestReopenKeepsRecordsAndChecksVersion(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "trim_ledger.db")
	l, err := Open(ctx, dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	file := filepath.Join(t.TempDir(), "b.wav")
	_ = os.WriteFile(file, []byte("x"), 0o644)
	if err := l.Record(ctx, file, 0.5, ""); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := l.db.ExecContext(ctx, "UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = l.Close()

	if _, err := Open(ctx, dbPath); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}
