package smfproject

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"hitcut/internal/fileutil"
	"hitcut/internal/logging"
	"hitcut/internal/services"
)

// Job describes one render: a MIDI snapshot and the audio file to produce.
type Job struct {
	Project    string
	MIDIPath   string
	OutputPath string
	Start      float64
	End        float64
}

// Renderer turns a snapshot into an audio file.
type Renderer interface {
	Render(ctx context.Context, job Job) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, job Job) error

func (f RendererFunc) Render(ctx context.Context, job Job) error { return f(ctx, job) }

type commandRunner func(ctx context.Context, name string, args ...string) error

// CommandRenderer runs an external synthesizer. The command template may use
// {input}, {output} and {soundfont} placeholders.
type CommandRenderer struct {
	command   []string
	soundFont string
	timeout   time.Duration
	logger    *slog.Logger
	run       commandRunner
}

// NewCommandRenderer constructs a renderer for the given argv template.
func NewCommandRenderer(command []string, soundFont string, timeout time.Duration, logger *slog.Logger) *CommandRenderer {
	return &CommandRenderer{
		command:   append([]string(nil), command...),
		soundFont: soundFont,
		timeout:   timeout,
		logger:    logging.NewComponentLogger(logger, "renderer"),
		run:       defaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (r *CommandRenderer) WithCommandRunner(run commandRunner) {
	if r != nil && run != nil {
		r.run = run
	}
}

// Render writes to a temporary sibling of the output and renames it into place.
func (r *CommandRenderer) Render(ctx context.Context, job Job) error {
	tmpPath := fileutil.TempSibling(job.OutputPath, "render")
	args := r.expand(job.MIDIPath, tmpPath)
	if len(args) == 0 || args[0] == "" {
		return services.Wrap(services.ErrConfiguration, "render", "command", "render command is empty after expanding placeholders", nil)
	}
	dir := filepath.Dir(job.OutputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.logger.Debug("executing render command",
		logging.String("binary", args[0]),
		logging.String("output_path", job.OutputPath),
	)
	if err := r.run(ctx, args[0], args[1:]...); err != nil {
		_ = os.Remove(tmpPath)
		return services.Wrap(services.ErrExternalTool, "render", args[0], "render command failed", err)
	}
	if err := fileutil.Replace(tmpPath, job.OutputPath); err != nil {
		return services.Wrap(services.ErrExternalTool, "render", args[0], "render command produced no usable output", err)
	}
	return nil
}

func (r *CommandRenderer) expand(input, output string) []string {
	replacer := strings.NewReplacer("{input}", input, "{output}", output, "{soundfont}", r.soundFont)
	args := make([]string, 0, len(r.command))
	for _, arg := range r.command {
		expanded := replacer.Replace(arg)
		// drop a bare soundfont slot when none is configured
		if expanded == "" && strings.Contains(arg, "{soundfont}") {
			continue
		}
		args = append(args, expanded)
	}
	return args
}

// SnapshotRenderer keeps the clipped MIDI snapshot itself as the render
// output. It is used when no synthesizer command is configured.
type SnapshotRenderer struct{}

func (SnapshotRenderer) Render(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(job.OutputPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmpPath := fileutil.TempSibling(job.OutputPath, "render")
	if err := fileutil.CopyFile(job.MIDIPath, tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("copy snapshot: %w", err)
	}
	return fileutil.Replace(tmpPath, job.OutputPath)
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
