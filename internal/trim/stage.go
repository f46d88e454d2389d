package trim

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hitcut/internal/fileutil"
	"hitcut/internal/logging"
	"hitcut/internal/media/probe"
	"hitcut/internal/metadata"
	"hitcut/internal/services"
	"hitcut/internal/trim/ledger"
)

// Status is the outcome class of one row.
type Status string

const (
	StatusProcessed Status = "processed"
	StatusSkipped   Status = "skipped"
	StatusError     Status = "error"
)

// Outcome reports what happened to one row.
type Outcome struct {
	Line       int
	Filename   string
	Path       string
	Onset      float64
	Status     Status
	Reason     string
	SizeBefore int64
	SizeAfter  int64
	Err        error
}

// Summary aggregates a trim run.
type Summary struct {
	Outcomes  []Outcome
	Processed int
	Skipped   int
	Errors    int
	Duration  time.Duration
}

// Failed reports whether any row errored.
func (s Summary) Failed() bool { return s.Errors > 0 }

func (s *Summary) add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	switch o.Status {
	case StatusProcessed:
		s.Processed++
	case StatusSkipped:
		s.Skipped++
	default:
		s.Errors++
	}
}

// Ledger remembers completed trims.
type Ledger interface {
	AlreadyTrimmed(ctx context.Context, path string, info os.FileInfo) (ledger.Record, bool, error)
	Record(ctx context.Context, path string, onset float64, runID string) error
}

// Prober reports audio durations.
type Prober interface {
	Probe(ctx context.Context, path string) (probe.Info, error)
}

// Options configures a Stage.
type Options struct {
	// Dir holds the rendered files. Empty means the log's directory.
	Dir       string
	Extension string
	Trimmer   Trimmer
	Prober    Prober
	Ledger    Ledger
	RunID     string
}

// Stage trims rendered files listed in a metadata log.
type Stage struct {
	opts   Options
	logger *slog.Logger
}

// NewStage constructs a trim stage.
func NewStage(opts Options, logger *slog.Logger) *Stage {
	opts.Extension = strings.TrimPrefix(strings.TrimSpace(opts.Extension), ".")
	return &Stage{opts: opts, logger: logging.NewComponentLogger(logger, "trim")}
}

// Run trims every row of the log at logPath. A missing or unreadable log is
// a configuration error; row failures only show up in the summary.
func (s *Stage) Run(ctx context.Context, logPath string) (Summary, error) {
	start := time.Now()
	ctx = services.WithStage(ctx, "trim")
	ctx = services.WithRunID(ctx, s.opts.RunID)
	logger := logging.WithContext(ctx, s.logger)

	if s.opts.Trimmer == nil {
		return Summary{}, services.Wrap(services.ErrConfiguration, "trim", "run", "no trim backend configured", nil)
	}
	records, err := metadata.ReadFile(logPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Summary{}, services.Wrap(services.ErrConfiguration, "trim", "read log",
				fmt.Sprintf("metadata log %s not found", logPath), err)
		}
		return Summary{}, services.Wrap(services.ErrConfiguration, "trim", "read log", logPath, err)
	}
	dir := s.opts.Dir
	if strings.TrimSpace(dir) == "" {
		dir = filepath.Dir(logPath)
	}

	logger.Info("trim run started",
		logging.String(logging.FieldEventType, "trim_run_start"),
		logging.String("metadata_log", logPath),
		logging.String("dir", dir),
		logging.String("backend", s.opts.Trimmer.Name()),
		logging.Int("rows", len(records)),
	)

	var summary Summary
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}
		outcome := s.trimRecord(ctx, logger, dir, rec)
		s.logOutcome(logger, outcome)
		summary.add(outcome)
	}

	summary.Duration = time.Since(start)
	logger.Info("trim run finished",
		logging.String(logging.FieldEventType, "trim_run_complete"),
		logging.Int("processed", summary.Processed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("errors", summary.Errors),
		logging.Duration("duration", summary.Duration),
	)
	return summary, nil
}

func (s *Stage) trimRecord(ctx context.Context, logger *slog.Logger, dir string, rec metadata.Record) Outcome {
	out := Outcome{Line: rec.Line, Filename: rec.Row.Filename, Onset: rec.Row.Onset}
	if rec.Err != nil {
		out.Status = StatusError
		out.Reason = "malformed row"
		out.Err = services.Wrap(services.ErrValidation, "trim", "parse row", "", rec.Err)
		return out
	}
	out.Path = filepath.Join(dir, rec.Row.Filename+"."+s.opts.Extension)

	info, err := os.Stat(out.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		out.Status = StatusSkipped
		out.Reason = "file not found"
		return out
	case err != nil:
		return failed(out, "stat failed", err)
	case info.IsDir():
		return failed(out, "path is a directory", nil)
	}
	out.SizeBefore = info.Size()

	if rec.Row.Onset == 0 {
		out.Status = StatusSkipped
		out.Reason = "no onset"
		return out
	}

	if s.opts.Ledger != nil {
		prev, done, err := s.opts.Ledger.AlreadyTrimmed(ctx, out.Path, info)
		if err != nil {
			logging.WarnWithContext(logger, "trim ledger lookup failed", "ledger_lookup_failed",
				logging.Error(err),
				logging.String("path", out.Path),
				logging.String(logging.FieldImpact, "file may be trimmed a second time"),
			)
		} else if done {
			out.Status = StatusSkipped
			out.Reason = fmt.Sprintf("already trimmed at %s", formatSeconds(prev.Onset))
			return out
		}
	}

	if s.opts.Prober != nil {
		if pi, err := s.opts.Prober.Probe(ctx, out.Path); err != nil {
			logger.Debug("duration probe unavailable", logging.String("path", out.Path), logging.Error(err))
		} else if rec.Row.Onset >= pi.Duration {
			return failed(out, fmt.Sprintf("onset %s is not before end of audio (%s)",
				formatSeconds(rec.Row.Onset), formatSeconds(pi.Duration)), nil)
		}
	}

	if err := s.replace(ctx, out.Path, rec.Row.Onset); err != nil {
		return failed(out, "trim failed", err)
	}
	if after, err := os.Stat(out.Path); err == nil {
		out.SizeAfter = after.Size()
	}
	if s.opts.Ledger != nil {
		if err := s.opts.Ledger.Record(ctx, out.Path, rec.Row.Onset, s.opts.RunID); err != nil {
			logging.WarnWithContext(logger, "trim ledger update failed", "ledger_record_failed",
				logging.Error(err),
				logging.String("path", out.Path),
				logging.String(logging.FieldImpact, "a later run may trim this file again"),
			)
		}
	}
	out.Status = StatusProcessed
	return out
}

// replace trims into a hidden sibling and renames it over path.
func (s *Stage) replace(ctx context.Context, path string, onset float64) error {
	tmpPath := TempPath(path)
	if err := s.opts.Trimmer.Trim(ctx, path, tmpPath, onset); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return fileutil.Replace(tmpPath, path)
}

// TempPath returns the temporary sibling used while trimming path:
// .<name>.trim.tmp.<ext> in the same directory.
func TempPath(path string) string {
	return fileutil.TempSibling(path, "trim")
}

func failed(out Outcome, reason string, err error) Outcome {
	out.Status = StatusError
	out.Reason = reason
	if err == nil {
		err = errors.New(reason)
	}
	out.Err = err
	return out
}

func (s *Stage) logOutcome(logger *slog.Logger, o Outcome) {
	attrs := []logging.Attr{
		logging.String("filename", o.Filename),
		logging.Int("line", o.Line),
		logging.String("reason", o.Reason),
	}
	switch o.Status {
	case StatusProcessed:
		logger.Info("file trimmed", logging.Args(append(attrs,
			logging.String(logging.FieldEventType, "file_trimmed"),
			logging.Seconds("onset", o.Onset),
			logging.Int64("size_before", o.SizeBefore),
			logging.Int64("size_after", o.SizeAfter),
		)...)...)
	case StatusSkipped:
		logger.Info("row skipped", logging.Args(append(attrs,
			logging.String(logging.FieldEventType, "row_skipped"))...)...)
	default:
		logging.ErrorWithContext(logger, "row failed", "row_failed", append(attrs,
			logging.Error(o.Err),
			logging.String(logging.FieldErrorHint, "fix the row or the rendered file and rerun trim"),
		)...)
	}
}
