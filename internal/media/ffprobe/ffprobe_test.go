package ffprobe

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio", SampleRate: "44100", Duration: "4.9"},
			{CodecType: "audio"},
		},
		Format: Format{Duration: "5.000000", Size: "1000"},
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 5.0 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SampleRate() != 44100 {
		t.Fatalf("unexpected sample rate: %d", result.SampleRate())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}

	result.Format.Duration = ""
	if result.DurationSeconds() != 4.9 {
		t.Fatalf("expected stream duration fallback, got %v", result.DurationSeconds())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad", Size: "-1"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
}

func TestInspectWithRunner(t *testing.T) {
	var gotArgs []string
	run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = args
		return []byte(`{"streams":[{"index":0,"codec_name":"vorbis","codec_type":"audio","sample_rate":"48000","channels":2}],"format":{"duration":"3.750000","format_name":"ogg"}}`), nil
	}
	result, err := InspectWith(context.Background(), run, "", "/renders/a.ogg")
	if err != nil {
		t.Fatalf("InspectWith: %v", err)
	}
	if result.DurationSeconds() != 3.75 || result.Format.FormatName != "ogg" {
		t.Fatalf("unexpected result %+v", result)
	}
	if gotArgs[len(gotArgs)-1] != "/renders/a.ogg" || gotArgs[len(gotArgs)-2] != "--" {
		t.Fatalf("path must follow --, got %v", gotArgs)
	}

	failing := func(context.Context, string, ...string) ([]byte, error) { return nil, errors.New("exit 1") }
	if _, err := InspectWith(context.Background(), failing, "ffprobe", "x.ogg"); err == nil {
		t.Fatal("expected runner failure to surface")
	}
	if _, err := InspectWith(context.Background(), run, "ffprobe", " "); err == nil {
		t.Fatal("expected empty path error")
	}
}
