package trim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"hitcut/internal/logging"
	"hitcut/internal/services"
)

// Trimmer writes src, starting at onset seconds, to dst.
type Trimmer interface {
	Name() string
	Trim(ctx context.Context, src, dst string, onset float64) error
}

type commandRunner func(ctx context.Context, name string, args ...string) error

// FFmpegTrimmer stream-copies from the onset with ffmpeg.
type FFmpegTrimmer struct {
	binary  string
	timeout time.Duration
	logger  *slog.Logger
	run     commandRunner
}

// NewFFmpegTrimmer constructs an ffmpeg-backed trimmer.
func NewFFmpegTrimmer(binary string, timeout time.Duration, logger *slog.Logger) *FFmpegTrimmer {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &FFmpegTrimmer{
		binary:  binary,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "ffmpeg-trimmer"),
		run:     defaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (f *FFmpegTrimmer) WithCommandRunner(r commandRunner) {
	if f != nil && r != nil {
		f.run = r
	}
}

func (f *FFmpegTrimmer) Name() string { return "ffmpeg" }

// Check verifies the ffmpeg binary can be found.
func (f *FFmpegTrimmer) Check() error {
	if _, err := exec.LookPath(f.binary); err != nil {
		return services.Wrap(services.ErrConfiguration, "trim", "check tool",
			fmt.Sprintf("trim tool %q not found", f.binary), err)
	}
	return nil
}

func (f *FFmpegTrimmer) Trim(ctx context.Context, src, dst string, onset float64) error {
	args := ffmpegArgs(src, dst, onset)
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	f.logger.Debug("executing ffmpeg",
		logging.String("source", src),
		logging.Seconds("onset", onset),
	)
	if err := f.run(ctx, f.binary, args...); err != nil {
		return services.Wrap(services.ErrExternalTool, "trim", f.binary, "ffmpeg failed", err)
	}
	return nil
}

func ffmpegArgs(src, dst string, onset float64) []string {
	return []string{"-y", "-v", "error", "-ss", formatSeconds(onset), "-i", src, "-c", "copy", "-map", "0", dst}
}

// NativeTrimmer copies PCM frames of a WAV file from the onset frame on.
type NativeTrimmer struct{}

func (NativeTrimmer) Name() string { return "native" }

func (NativeTrimmer) Trim(ctx context.Context, src, dst string, onset float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	dec := wav.NewDecoder(in)
	if !dec.IsValidFile() {
		return services.Wrap(services.ErrValidation, "trim", "native", src+" is not a PCM wav file", nil)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return fmt.Errorf("decode wav: %w", err)
	}
	channels := int(dec.NumChans)
	sampleRate := int(dec.SampleRate)
	if channels <= 0 || sampleRate <= 0 {
		return services.Wrap(services.ErrValidation, "trim", "native", "wav header has no channels or sample rate", nil)
	}
	frames := len(buf.Data) / channels
	start := int(math.Round(onset * float64(sampleRate)))
	if start >= frames {
		return services.Wrap(services.ErrValidation, "trim", "native",
			fmt.Sprintf("onset %s is past the end of %s", formatSeconds(onset), src), nil)
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	enc := wav.NewEncoder(out, sampleRate, int(dec.BitDepth), channels, int(dec.WavAudioFormat))
	trimmed := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           buf.Data[start*channels:],
		SourceBitDepth: int(dec.BitDepth),
	}
	if err := enc.Write(trimmed); err != nil {
		_ = out.Close()
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = out.Close()
		return fmt.Errorf("finalize wav: %w", err)
	}
	return out.Close()
}

func formatSeconds(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
