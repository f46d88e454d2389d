package metadata

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrMalformedRow marks a data line that could not be parsed.
	ErrMalformedRow = errors.New("malformed metadata row")
)

// Record is one data line of a log. Err is set when the line is malformed.
type Record struct {
	Line      int
	Raw       string
	Row       Row
	HasMarker bool
	Err       error
}

// ReadFile parses the log at path.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads data records, skipping blank lines, # comments and the header.
// A leading byte order mark is honoured.
func Parse(r io.Reader) ([]Record, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		records []Record
		line    int
	)
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		fields := strings.Split(raw, ",")
		name := cleanFilename(fields[0])
		if strings.EqualFold(name, "filename") {
			continue
		}
		records = append(records, parseRecord(line, raw, name, fields))
	}
	if err := scanner.Err(); err != nil {
		return records, fmt.Errorf("read metadata log: %w", err)
	}
	return records, nil
}

func parseRecord(line int, raw, name string, fields []string) Record {
	rec := Record{Line: line, Raw: raw, Row: Row{Filename: name}}
	fail := func(format string, args ...any) Record {
		rec.Err = fmt.Errorf("%w: line %d: %s", ErrMalformedRow, line, fmt.Sprintf(format, args...))
		return rec
	}
	if name == "" {
		return fail("empty filename")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fail("filename %q must not contain path elements", name)
	}
	if len(fields) < 2 {
		return fail("missing start_time")
	}
	onset, err := parseSeconds(fields[1])
	if err != nil {
		return fail("start_time %q: %v", strings.TrimSpace(fields[1]), err)
	}
	rec.Row.Onset = onset
	if len(fields) >= 3 {
		// end_time is informational for trimming; a bad value is not an error
		if end, err := parseSeconds(fields[2]); err == nil {
			rec.Row.MarkerTime = end
			rec.HasMarker = true
		}
	}
	return rec
}

func parseSeconds(field string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
	if err != nil {
		return 0, errors.New("not a decimal number")
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, errors.New("not a finite number")
	}
	if value < 0 {
		return 0, errors.New("negative time")
	}
	return value, nil
}

func cleanFilename(field string) string {
	name := strings.Trim(strings.TrimSpace(field), `"'`)
	return norm.NFC.String(strings.TrimSpace(name))
}
