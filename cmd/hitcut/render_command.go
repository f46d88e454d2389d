package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"hitcut/internal/config"
	"hitcut/internal/deps"
	"hitcut/internal/fade"
	"hitcut/internal/host"
	"hitcut/internal/host/smfproject"
	"hitcut/internal/logging"
	"hitcut/internal/metadata"
	"hitcut/internal/onset"
	"hitcut/internal/pipeline"
	"hitcut/internal/preflight"
	"hitcut/internal/render"
	"hitcut/internal/services"
)

// snapshotExtension is used when no synthesizer command is configured and
// the clipped MIDI snapshot itself is the render output.
const snapshotExtension = "mid"

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	var metadataPath string

	cmd := &cobra.Command{
		Use:   "render [project.mid]",
		Short: "Render every marker of a project and write the metadata log",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			if err := applyRenderOverrides(cfg, args, outputDir, metadataPath); err != nil {
				return err
			}
			if err := cfg.ValidateRenderInputs(); err != nil {
				return services.Wrap(services.ErrConfiguration, "render", "validate", "", err)
			}
			if err := ensureRenderDirs(cfg); err != nil {
				return err
			}
			if err := checkPreflight(preflight.RunRender(cfg)); err != nil {
				return err
			}

			renderer, extension, err := buildRenderer(cfg, logger)
			if err != nil {
				return err
			}
			opts, err := pipelineOptions(cfg)
			if err != nil {
				return err
			}
			project, err := smfproject.Load(cfg.Project.Path,
				smfproject.WithRenderer(renderer),
				smfproject.WithOutput(cfg.Render.OutputDir, extension),
				smfproject.WithLogger(logger),
			)
			if err != nil {
				return err
			}

			if cfg.Render.LockRun {
				lock, err := render.AcquireRunLock(cfg.Render.MetadataFile)
				if err != nil {
					return services.Wrap(services.ErrConfiguration, "render", "lock", "", err)
				}
				defer func() { _ = lock.Release() }()
			}

			runID := uuid.NewString()
			writer, err := metadata.Create(cfg.Render.MetadataFile, metadata.Header{
				Generated: time.Now(),
				Project:   project.Path(),
				RunID:     runID,
			})
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "render", "metadata log", "", err)
			}
			defer writer.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			runCtx = services.WithRunID(runCtx, runID)

			summary, runErr := pipeline.New(project, opts, writer, logger).Run(runCtx)
			out := cmd.OutOrStdout()
			printRenderSummary(out, summary, writer.Path(), shouldColorize(out))
			if runErr != nil {
				return runErr
			}
			if summary.Errors() > 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for rendered files (default: project directory)")
	cmd.Flags().StringVarP(&metadataPath, "metadata", "m", "", "Metadata log path (default: <output-dir>/note_metadata.csv)")
	return cmd
}

// applyRenderOverrides folds arguments and flags into cfg and fills the
// defaults that depend on the project location.
func applyRenderOverrides(cfg *config.Config, args []string, outputDir, metadataPath string) error {
	if len(args) == 1 {
		path, err := config.ExpandPath(args[0])
		if err != nil {
			return err
		}
		cfg.Project.Path = path
	}
	if strings.TrimSpace(outputDir) != "" {
		path, err := config.ExpandPath(outputDir)
		if err != nil {
			return err
		}
		cfg.Render.OutputDir = path
	}
	if strings.TrimSpace(metadataPath) != "" {
		path, err := config.ExpandPath(metadataPath)
		if err != nil {
			return err
		}
		cfg.Render.MetadataFile = path
	}
	if cfg.Render.OutputDir == "" && cfg.Project.Path != "" {
		cfg.Render.OutputDir = filepath.Dir(cfg.Project.Path)
	}
	if cfg.Render.MetadataFile == "" && cfg.Render.OutputDir != "" {
		cfg.Render.MetadataFile = filepath.Join(cfg.Render.OutputDir, "note_metadata.csv")
	}
	return nil
}

func ensureRenderDirs(cfg *config.Config) error {
	for _, dir := range []string{cfg.Render.OutputDir, filepath.Dir(cfg.Render.MetadataFile)} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return services.Wrap(services.ErrConfiguration, "render", "output dir", dir, err)
		}
	}
	return nil
}

func buildRenderer(cfg *config.Config, logger *slog.Logger) (smfproject.Renderer, string, error) {
	if len(cfg.Render.Command) == 0 {
		logging.WarnWithContext(logger, "no render command configured", "render_snapshot_only",
			logging.String(logging.FieldImpact, "each marker produces a clipped MIDI file instead of audio"),
			logging.String(logging.FieldErrorHint, "set render.command to a synthesizer invocation"),
		)
		return smfproject.SnapshotRenderer{}, snapshotExtension, nil
	}
	statuses := deps.CheckBinaries([]deps.Requirement{{
		Name:        "Renderer",
		Command:     cfg.RenderCommandBinary(),
		Description: "Synthesizes each MIDI snapshot to audio",
	}})
	if missing := deps.MissingRequired(statuses); len(missing) > 0 {
		return nil, "", services.Wrap(services.ErrConfiguration, "render", "check tool", missing[0].Detail, nil)
	}
	timeout := time.Duration(cfg.Render.TimeoutSeconds) * time.Second
	return smfproject.NewCommandRenderer(cfg.Render.Command, cfg.Project.SoundFont, timeout, logger), cfg.Render.Extension, nil
}

func pipelineOptions(cfg *config.Config) (pipeline.Options, error) {
	shape, err := host.ParseShape(cfg.Fade.Shape)
	if err != nil {
		return pipeline.Options{}, services.Wrap(services.ErrConfiguration, "render", "fade shape", "", err)
	}
	return pipeline.Options{
		Tracks: cfg.Render.Tracks,
		Ignore: onset.NewIgnoreSet(cfg.Render.IgnorePitches),
		Fade: fade.Options{
			Track:    cfg.Fade.Track,
			Lane:     cfg.Fade.Lane,
			BarCount: cfg.Fade.BarCount,
			Shape:    shape,
		},
		FilenamePattern: cfg.Render.FilenamePattern,
		BaseIndex:       cfg.Render.BaseIndex,
		AdvisoryMarkers: cfg.Render.AdvisoryMarkers,
	}, nil
}

func checkPreflight(results []preflight.Result) error {
	failed := preflight.Failed(results)
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "", strings.Join(parts, "; "), nil)
}

func printRenderSummary(out io.Writer, summary pipeline.Summary, metadataPath string, color bool) {
	tbl := newSummaryTable(numericColumn("#"), textColumn("Marker"), numericColumn("Time"), textColumn("File"), numericColumn("Onset"), numericColumn("Fade"), textColumn("Status"))
	for _, res := range summary.Results {
		status := colorize("rendered", statusOK, color)
		switch {
		case res.RenderErr != nil:
			status = colorize("render failed", statusError, color)
		case res.FadeErr != nil || res.SegmentErr != nil:
			status = colorize("rendered (host warning)", statusWarn, color)
		}
		onsetText := "-"
		if res.Onset.Found {
			onsetText = formatSeconds(res.Onset.Seconds)
		}
		tbl.add(
			fmt.Sprintf("%d", res.Marker.Index),
			res.Marker.Name,
			formatSeconds(res.Marker.Time),
			res.Filename,
			onsetText,
			formatSeconds(res.FadeWindow),
			status,
		)
	}
	tbl.writeTo(out)
	fmt.Fprintf(out, "Markers: %d  Rendered: %d  Render errors: %d  Without onset: %d  Host warnings: %d\n",
		len(summary.Results), summary.Rendered, summary.RenderErrors, summary.NoOnset, summary.FadeErrors+summary.HostErrors)
	fmt.Fprintf(out, "Metadata log: %s\n", metadataPath)
}
