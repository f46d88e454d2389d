package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hitcut/internal/fade"
	"hitcut/internal/host"
	"hitcut/internal/logging"
	"hitcut/internal/markers"
	"hitcut/internal/metadata"
	"hitcut/internal/onset"
	"hitcut/internal/render"
	"hitcut/internal/segment"
	"hitcut/internal/services"
)

// Recorder receives one metadata row per processed marker.
type Recorder interface {
	Append(row metadata.Row) error
}

// Options configures a render run.
type Options struct {
	Tracks          []string
	Ignore          onset.IgnoreSet
	Fade            fade.Options
	FilenamePattern string
	BaseIndex       int
	AdvisoryMarkers bool
}

// MarkerResult is everything produced for one marker.
type MarkerResult struct {
	Marker     markers.Marker
	Filename   string
	Onset      onset.Result
	FadeWindow float64
	Segments   []segment.Result
	SegmentErr error
	FadeErr    error
	RenderErr  error
}

// Row is the metadata row for this marker.
func (r MarkerResult) Row() metadata.Row {
	return metadata.Row{Filename: r.Filename, Onset: r.Onset.Seconds, MarkerTime: r.Marker.Time}
}

// Failed reports whether the render for this marker failed.
func (r MarkerResult) Failed() bool {
	return r.RenderErr != nil
}

// Summary aggregates a run.
type Summary struct {
	Results      []MarkerResult
	Rendered     int
	RenderErrors int
	FadeErrors   int
	HostErrors   int
	NoOnset      int
	Duration     time.Duration
}

// Errors is the number of markers whose render failed.
func (s Summary) Errors() int { return s.RenderErrors }

// Runner executes the render stage against one project.
type Runner struct {
	project  host.Project
	opts     Options
	recorder Recorder
	logger   *slog.Logger
}

// New constructs a Runner.
func New(project host.Project, opts Options, recorder Recorder, logger *slog.Logger) *Runner {
	return &Runner{
		project:  project,
		opts:     opts,
		recorder: recorder,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Run processes every marker in ascending order. Markers are handled strictly
// one after another; cancellation is checked between markers.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	ctx = services.WithStage(ctx, "render")
	logger := logging.WithContext(ctx, r.logger)

	list := markers.List(r.project)
	summary := Summary{Results: make([]MarkerResult, 0, len(list))}
	logger.Info("render run started",
		logging.String(logging.FieldEventType, "render_run_start"),
		logging.String("project", r.project.Name()),
		logging.Int("markers", len(list)),
	)

	for _, m := range list {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			logging.WarnWithContext(logger, "render run interrupted", "render_run_interrupted",
				logging.Int("processed", len(summary.Results)),
				logging.String(logging.FieldImpact, "metadata log holds only processed markers"),
			)
			return summary, err
		}

		res := r.ProcessMarker(ctx, m)
		summary.add(res)
		if r.recorder != nil {
			if err := r.recorder.Append(res.Row()); err != nil {
				summary.Duration = time.Since(start)
				return summary, services.Wrap(services.ErrConfiguration, "render", "record metadata",
					fmt.Sprintf("marker %d", m.Index), err)
			}
		}
	}

	summary.Duration = time.Since(start)
	logger.Info("render run finished",
		logging.String(logging.FieldEventType, "render_run_complete"),
		logging.Int("markers", len(summary.Results)),
		logging.Int("rendered", summary.Rendered),
		logging.Int("render_errors", summary.RenderErrors),
		logging.Duration("duration", summary.Duration),
	)
	return summary, nil
}

// ProcessMarker performs all per-marker work inside one host transaction. The
// project is rolled back on every path before ProcessMarker returns.
func (r *Runner) ProcessMarker(ctx context.Context, m markers.Marker) (res MarkerResult) {
	ctx = services.WithMarkerIndex(ctx, m.Index)
	logger := logging.WithContext(ctx, r.logger)
	res = MarkerResult{
		Marker:   m,
		Filename: render.Filename(r.opts.FilenamePattern, r.opts.BaseIndex, m.Index),
	}

	tx, err := r.project.Begin()
	if err != nil {
		res.RenderErr = services.Wrap(services.ErrHost, "render", "begin transaction", "", err)
		logging.ErrorWithContext(logger, "cannot open host transaction", "transaction_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "ensure no other edit is pending on the project"),
		)
		return res
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil {
			res.RenderErr = errors.Join(res.RenderErr, services.Wrap(services.ErrHost, "render", "rollback", "", rbErr))
			logging.ErrorWithContext(logger, "host rollback failed", "rollback_failed", logging.Error(rbErr))
		}
	}()

	res.Segments, res.SegmentErr = segment.Truncate(r.project, r.opts.Tracks, m.Time, logger)
	if res.SegmentErr != nil {
		logging.WarnWithContext(logger, "segmentation incomplete", "segment_failed",
			logging.Error(res.SegmentErr),
			logging.String(logging.FieldImpact, "render may contain content after the marker"),
		)
	}

	res.Onset = onset.Detect(r.project.TempoMap(), m.Time, r.trackNotes(), r.opts.Ignore)
	if res.Onset.Found {
		if r.opts.AdvisoryMarkers {
			if err := r.project.AddMarker(fmt.Sprintf("onset %d", m.Index), res.Onset.Seconds); err != nil {
				logger.Debug("advisory marker not added", logging.Error(err))
			}
		}
	} else {
		logger.Info("no qualifying note before marker",
			logging.String(logging.FieldEventType, "onset_missing"),
			logging.Seconds("marker_time", m.Time),
		)
	}

	fadeRes, err := fade.Build(r.project, m.Time, r.opts.Fade)
	if err != nil {
		res.FadeErr = err
		res.FadeWindow = fade.Window(r.project, m.Time, r.opts.Fade.BarCount)
		logging.WarnWithContext(logger, "fade automation skipped", "fade_skipped",
			logging.Error(err),
			logging.String("track", r.opts.Fade.Track),
			logging.String("lane", r.opts.Fade.Lane),
			logging.String(logging.FieldImpact, "render ends without a fade to silence"),
		)
	} else {
		res.FadeWindow = fadeRes.Window
	}
	res.FadeWindow = max(res.FadeWindow, 0)

	req := render.Request{Filename: res.Filename, MarkerTime: m.Time, FadeWindow: res.FadeWindow}
	if err := render.Trigger(ctx, r.project, req); err != nil {
		res.RenderErr = err
		logging.ErrorWithContext(logger, "render failed", "render_failed",
			logging.Error(err),
			logging.String("filename", res.Filename),
			logging.String(logging.FieldErrorHint, "check the render command and its output"),
		)
		return res
	}

	logger.Info("marker rendered",
		logging.String(logging.FieldEventType, "marker_rendered"),
		logging.String("filename", res.Filename),
		logging.Seconds("marker_time", m.Time),
		logging.Seconds("onset", res.Onset.Seconds),
		logging.Seconds("render_end", req.End()),
	)
	return res
}

func (r *Runner) trackNotes() [][]host.Note {
	out := make([][]host.Note, 0, len(r.opts.Tracks))
	for _, name := range r.opts.Tracks {
		if tr, ok := r.project.FindTrack(name); ok {
			out = append(out, tr.Notes())
		}
	}
	return out
}

func (s *Summary) add(res MarkerResult) {
	s.Results = append(s.Results, res)
	if res.RenderErr != nil {
		s.RenderErrors++
	} else {
		s.Rendered++
	}
	if res.FadeErr != nil {
		s.FadeErrors++
	}
	if res.SegmentErr != nil {
		s.HostErrors++
	}
	if !res.Onset.Found {
		s.NoOnset++
	}
}
