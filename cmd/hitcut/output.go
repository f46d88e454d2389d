package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// column is one column of a summary table. Numeric columns align right;
// free-text columns wrap at maxWidth when it is set.
type column struct {
	title    string
	numeric  bool
	maxWidth int
}

const detailWidth = 56

func numericColumn(title string) column { return column{title: title, numeric: true} }
func textColumn(title string) column    { return column{title: title} }
func detailColumn(title string) column  { return column{title: title, maxWidth: detailWidth} }

type summaryTable struct {
	columns []column
	tw      table.Writer
	rows    int
}

func newSummaryTable(columns ...column) *summaryTable {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, c := range columns {
		header[i] = c.title
		configs[i] = table.ColumnConfig{Number: i + 1, AlignHeader: text.AlignLeft, WidthMax: c.maxWidth}
		if c.numeric {
			configs[i].Align = text.AlignRight
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)
	return &summaryTable{columns: columns, tw: tw}
}

// add appends a row, padding missing cells and dropping extras.
func (t *summaryTable) add(cells ...string) {
	row := make(table.Row, len(t.columns))
	for i := range row {
		row[i] = ""
		if i < len(cells) {
			row[i] = cells[i]
		}
	}
	t.tw.AppendRow(row)
	t.rows++
}

// writeTo prints the table followed by a newline; empty tables print nothing.
func (t *summaryTable) writeTo(out io.Writer) {
	if t.rows == 0 {
		return
	}
	fmt.Fprintln(out, t.tw.Render())
}

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func colorize(label string, kind statusKind, enabled bool) string {
	if !enabled {
		return label
	}
	if color := statusKindColor(kind); color != "" {
		return color + label + ansiReset
	}
	return label
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func formatSeconds(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

func formatSize(size int64) string {
	if size <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(size))
}

func formatSizeChange(before, after int64) string {
	if after <= 0 {
		return formatSize(before)
	}
	return formatSize(before) + " → " + formatSize(after)
}
