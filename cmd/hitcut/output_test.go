package main

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSummaryTableAlignsNumericColumns(t *testing.T) {
	tbl := newSummaryTable(numericColumn("#"), textColumn("File"))
	tbl.add("1", "a")
	tbl.add("10", "bb", "ignored")
	var buf bytes.Buffer
	tbl.writeTo(&buf)
	out := buf.String()
	if !strings.Contains(out, "│  1 │") || !strings.Contains(out, "│ 10 │") {
		t.Fatalf("expected right-aligned index column:\n%s", out)
	}
	if strings.Contains(out, "ignored") {
		t.Fatalf("extra cells should be dropped:\n%s", out)
	}
}

func TestSummaryTableWrapsDetail(t *testing.T) {
	tbl := newSummaryTable(detailColumn("Detail"))
	tbl.add(strings.Repeat("onset past end ", 10))
	var buf bytes.Buffer
	tbl.writeTo(&buf)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) <= 5 {
		t.Fatalf("expected wrapped detail, got %d lines:\n%s", len(lines), buf.String())
	}
	for _, line := range lines {
		if n := utf8.RuneCountInString(line); n > detailWidth+4 {
			t.Fatalf("line wider than %d: %d %q", detailWidth+4, n, line)
		}
	}
}

func TestSummaryTableEmptyPrintsNothing(t *testing.T) {
	var buf bytes.Buffer
	newSummaryTable(textColumn("File")).writeTo(&buf)
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}
