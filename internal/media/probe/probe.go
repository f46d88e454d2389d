// Package probe reports the duration of rendered audio files.
//
// WAV, Ogg Vorbis and MP3 are decoded natively. Other formats, or native
// failures, fall back to ffprobe when a binary is configured.
package probe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"

	"hitcut/internal/media/ffprobe"
)

// ErrUnsupported is returned when no native decoder handles the file and no
// ffprobe binary is available.
var ErrUnsupported = errors.New("unsupported audio format")

// mp3 frames decode to 16-bit stereo.
const mp3BytesPerFrame = 4

// Info describes a probed file.
type Info struct {
	Duration   float64
	SampleRate int
	Channels   int
	Format     string
	Source     string
}

// Prober probes audio files.
type Prober struct {
	ffprobeBinary string
	inspect       func(ctx context.Context, binary, path string) (ffprobe.Result, error)
}

// New builds a Prober. An empty binary disables the ffprobe fallback.
func New(ffprobeBinary string) *Prober {
	return &Prober{
		ffprobeBinary: strings.TrimSpace(ffprobeBinary),
		inspect:       ffprobe.Inspect,
	}
}

// Probe returns file information, trying native decoders first.
func (p *Prober) Probe(ctx context.Context, path string) (Info, error) {
	info, nativeErr := Native(path)
	if nativeErr == nil {
		return info, nil
	}
	if p == nil || p.ffprobeBinary == "" {
		return Info{}, nativeErr
	}
	result, err := p.inspect(ctx, p.ffprobeBinary, path)
	if err != nil {
		return Info{}, errors.Join(nativeErr, err)
	}
	duration := result.DurationSeconds()
	if math.IsNaN(duration) || duration <= 0 {
		return Info{}, fmt.Errorf("ffprobe reported no duration for %s", path)
	}
	channels := 0
	if len(result.Streams) > 0 {
		channels = result.Streams[0].Channels
	}
	return Info{
		Duration:   duration,
		SampleRate: result.SampleRate(),
		Channels:   channels,
		Format:     result.Format.FormatName,
		Source:     "ffprobe",
	}, nil
}

// Native probes by extension without external tools.
func Native(path string) (Info, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "wav", "wave":
		return probeWAV(path)
	case "ogg", "oga":
		return probeOgg(path)
	case "mp3":
		return probeMP3(path)
	default:
		return Info{}, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
}

func probeWAV(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Info{}, fmt.Errorf("%s is not a valid wav file", path)
	}
	d, err := dec.Duration()
	if err != nil {
		return Info{}, fmt.Errorf("wav duration: %w", err)
	}
	return Info{
		Duration:   d.Seconds(),
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		Format:     "wav",
		Source:     "native",
	}, nil
}

func probeOgg(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	r, err := oggvorbis.NewReader(f)
	if err != nil {
		return Info{}, fmt.Errorf("ogg decode: %w", err)
	}
	if r.SampleRate() <= 0 || r.Length() <= 0 {
		return Info{}, fmt.Errorf("ogg stream %s has no length", path)
	}
	return Info{
		Duration:   float64(r.Length()) / float64(r.SampleRate()),
		SampleRate: r.SampleRate(),
		Channels:   r.Channels(),
		Format:     "ogg",
		Source:     "native",
	}, nil
}

func probeMP3(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	dec, err := gomp3.NewDecoder(f)
	if err != nil {
		return Info{}, fmt.Errorf("mp3 decode: %w", err)
	}
	if dec.SampleRate() <= 0 || dec.Length() <= 0 {
		return Info{}, fmt.Errorf("mp3 stream %s has no length", path)
	}
	frames := dec.Length() / mp3BytesPerFrame
	return Info{
		Duration:   float64(frames) / float64(dec.SampleRate()),
		SampleRate: dec.SampleRate(),
		Channels:   2,
		Format:     "mp3",
		Source:     "native",
	}, nil
}
