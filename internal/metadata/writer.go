package metadata

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// HeaderRow is the column header line.
const HeaderRow = "filename,start_time,end_time"

// Header is written as comment lines at the top of each log.
type Header struct {
	Generated time.Time
	Project   string
	RunID     string
}

// Row is one processed marker.
type Row struct {
	Filename   string
	Onset      float64
	MarkerTime float64
}

// String formats the row as a log line without the newline.
func (r Row) String() string {
	return fmt.Sprintf("%s,%.3f,%.3f", r.Filename, r.Onset, r.MarkerTime)
}

// Writer appends rows to a log. Each row reaches the file before Append returns.
type Writer struct {
	path string
	file *os.File
	rows int
}

// Create truncates path and writes the header.
func Create(path string, header Header) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create metadata dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open metadata log: %w", err)
	}
	generated := header.Generated
	if generated.IsZero() {
		generated = time.Now()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# Generated %s\n", generated.Format(time.RFC3339))
	fmt.Fprintf(&b, "# Project: %s\n", oneLine(header.Project))
	if header.RunID != "" {
		fmt.Fprintf(&b, "# Run: %s\n", oneLine(header.RunID))
	}
	b.WriteString(HeaderRow + "\n")
	if _, err := f.WriteString(b.String()); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write metadata header: %w", err)
	}
	return &Writer{path: path, file: f}, nil
}

// Path returns the log location.
func (w *Writer) Path() string { return w.path }

// Rows returns the number of rows appended.
func (w *Writer) Rows() int { return w.rows }

// Append writes one row and syncs it to disk.
func (w *Writer) Append(row Row) error {
	if strings.ContainsAny(row.Filename, ",\r\n") {
		return fmt.Errorf("filename %q cannot be written to the log", row.Filename)
	}
	if _, err := w.file.WriteString(row.String() + "\n"); err != nil {
		return fmt.Errorf("append metadata row: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync metadata log: %w", err)
	}
	w.rows++
	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	if w == nil || w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func oneLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
