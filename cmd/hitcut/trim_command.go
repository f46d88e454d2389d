package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"hitcut/internal/config"
	"hitcut/internal/deps"
	"hitcut/internal/logging"
	"hitcut/internal/media/probe"
	"hitcut/internal/preflight"
	"hitcut/internal/services"
	"hitcut/internal/trim"
	"hitcut/internal/trim/ledger"
)

func newTrimCommand(ctx *commandContext) *cobra.Command {
	var dir string
	var ext string
	var backend string
	var noLedger bool

	cmd := &cobra.Command{
		Use:   "trim [log]",
		Short: "Trim rendered files so each starts at its recorded onset",
		Long: "Trim reads a note metadata log (default note_metadata.csv) and rewrites\n" +
			"every listed file so playback starts at the recorded onset. Rows with a\n" +
			"zero onset or a missing file are skipped. Exits 1 when any row failed.",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{helpExitAnnotation: "2"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup()
			if err != nil {
				return err
			}
			logPath, err := applyTrimOverrides(cfg, args, dir, ext, backend, noLedger)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return services.Wrap(services.ErrConfiguration, "trim", "validate", "", err)
			}
			if err := checkPreflight(preflight.RunTrim(cfg)); err != nil {
				return err
			}
			trimmer, err := buildTrimmer(cfg, logger)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := trim.Options{
				Dir:       cfg.Trim.Dir,
				Extension: cfg.Trim.Extension,
				Trimmer:   trimmer,
				Prober:    probe.New(deps.ResolveCompanion(cfg.Trim.FFprobeBinary, cfg.FFmpegBinary(), "ffprobe")),
				RunID:     uuid.NewString(),
			}
			if cfg.Trim.Ledger {
				l, err := ledger.Open(runCtx, cfg.Trim.LedgerPath)
				if err != nil {
					logging.WarnWithContext(logger, "trim ledger unavailable", "ledger_unavailable",
						logging.Error(err),
						logging.String("ledger_path", cfg.Trim.LedgerPath),
						logging.String(logging.FieldImpact, "files trimmed earlier are not protected from a second trim"),
					)
				} else {
					defer l.Close()
					opts.Ledger = l
				}
			}

			summary, err := trim.NewStage(opts, logger).Run(runCtx, logPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printTrimSummary(out, summary, shouldColorize(out))
			if summary.Failed() {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory holding the rendered files (default: the log's directory)")
	cmd.Flags().StringVar(&ext, "ext", "", "Rendered file extension (default from config)")
	cmd.Flags().StringVar(&backend, "backend", "", "Trim backend: ffmpeg or native (WAV only)")
	cmd.Flags().BoolVar(&noLedger, "no-ledger", false, "Do not consult or update the trim ledger")
	return cmd
}

func applyTrimOverrides(cfg *config.Config, args []string, dir, ext, backend string, noLedger bool) (string, error) {
	logPath := cfg.Trim.MetadataFile
	if len(args) == 1 {
		expanded, err := config.ExpandPath(args[0])
		if err != nil {
			return "", err
		}
		logPath = expanded
		cfg.Trim.MetadataFile = expanded
	}
	if strings.TrimSpace(dir) != "" {
		expanded, err := config.ExpandPath(dir)
		if err != nil {
			return "", err
		}
		cfg.Trim.Dir = expanded
	}
	if value := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), "."); value != "" {
		cfg.Trim.Extension = value
	}
	if value := strings.ToLower(strings.TrimSpace(backend)); value != "" {
		cfg.Trim.Backend = value
	}
	if noLedger {
		cfg.Trim.Ledger = false
	}
	return logPath, nil
}

func buildTrimmer(cfg *config.Config, logger *slog.Logger) (trim.Trimmer, error) {
	switch cfg.Trim.Backend {
	case "native":
		return trim.NativeTrimmer{}, nil
	default:
		t := trim.NewFFmpegTrimmer(cfg.FFmpegBinary(), time.Duration(cfg.Trim.TimeoutSeconds)*time.Second, logger)
		if err := t.Check(); err != nil {
			return nil, err
		}
		return t, nil
	}
}

func printTrimSummary(out io.Writer, summary trim.Summary, color bool) {
	tbl := newSummaryTable(numericColumn("Line"), textColumn("File"), numericColumn("Onset"), textColumn("Status"), numericColumn("Size"), detailColumn("Detail"))
	for _, o := range summary.Outcomes {
		var status string
		switch o.Status {
		case trim.StatusProcessed:
			status = colorize("trimmed", statusOK, color)
		case trim.StatusSkipped:
			status = colorize("skipped", statusInfo, color)
		default:
			status = colorize("error", statusError, color)
		}
		detail := o.Reason
		if o.Err != nil && o.Status == trim.StatusError {
			detail = o.Err.Error()
		}
		name := o.Filename
		if name == "" {
			name = "-"
		}
		tbl.add(
			fmt.Sprintf("%d", o.Line),
			name,
			formatSeconds(o.Onset),
			status,
			formatSizeChange(o.SizeBefore, o.SizeAfter),
			detail,
		)
	}
	tbl.writeTo(out)
	fmt.Fprintf(out, "Processed: %d  Skipped: %d  Errors: %d\n", summary.Processed, summary.Skipped, summary.Errors)
}
