package pipeline

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"gitlab.com/gomidi/midi/v2/smf"

	"hitcut/internal/fade"
	"hitcut/internal/host"
	"hitcut/internal/host/smfproject"
	"hitcut/internal/markers"
	"hitcut/internal/metadata"
	"hitcut/internal/onset"
	"hitcut/internal/services"
	"hitcut/internal/timing"
)

type recordingLog struct {
	rows []metadata.Row
	err  error
}

func (l *recordingLog) Append(row metadata.Row) error {
	if l.err != nil {
		return l.err
	}
	l.rows = append(l.rows, row)
	return nil
}

type renderCapture struct {
	filename string
	end      float64
	notes    map[uint8]int64 // pitch -> end tick
	markers  []string
	fade     []host.Point
}

func seconds(s float64) int64 { return int64(math.Round(s * 1920)) }

func newTestProject(t *testing.T, renderer smfproject.Renderer) *smfproject.Project {
	t.Helper()
	p := smfproject.New("song", timing.Map{}, smfproject.WithRenderer(renderer), smfproject.WithOutput(t.TempDir(), "ogg"))
	notes := []host.Note{
		{StartTick: seconds(0.5), EndTick: seconds(1.0), Pitch: 60, Velocity: 100},
		{StartTick: seconds(1.5), EndTick: seconds(2.0), Pitch: 62, Velocity: 100},
		{StartTick: seconds(2.2), EndTick: seconds(2.5), Pitch: 64, Velocity: 100},
		{StartTick: seconds(3.5), EndTick: seconds(4.5), Pitch: 65, Velocity: 100},
		{StartTick: seconds(5.2), EndTick: seconds(6.8), Pitch: 67, Velocity: 100},
	}
	if _, err := p.AddItem("Notes", 0, 8.0, notes); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	for _, m := range []host.Marker{{Name: "b", Time: 6.0}, {Name: "a", Time: 3.0}, {Name: "c", Time: 20.0}} {
		if err := p.AddMarker(m.Name, m.Time); err != nil {
			t.Fatalf("AddMarker: %v", err)
		}
	}
	return p
}

func capturingRenderer(t *testing.T, project **smfproject.Project, captures *[]renderCapture) smfproject.Renderer {
	return smfproject.RendererFunc(func(ctx context.Context, job smfproject.Job) error {
		mf, err := smf.ReadFile(job.MIDIPath)
		if err != nil {
			return err
		}
		c := renderCapture{filename: job.OutputPath, end: job.End, notes: map[uint8]int64{}}
		for _, tr := range mf.Tracks {
			var abs int64
			for _, ev := range tr {
				abs += int64(ev.Delta)
				var ch, key uint8
				var text string
				switch {
				case ev.Message.GetNoteEnd(&ch, &key):
					c.notes[key] = abs
				case ev.Message.GetMetaMarker(&text):
					c.markers = append(c.markers, text)
				}
			}
		}
		if master, ok := (*project).FindTrack("Master"); ok {
			if lane, ok := master.Lane("Volume"); ok {
				c.fade = lane.Points()
			}
		}
		*captures = append(*captures, c)
		return nil
	})
}

func defaultOptions() Options {
	return Options{
		Tracks:          []string{"Notes"},
		Ignore:          onset.NewIgnoreSet(nil),
		Fade:            fade.Options{Track: "Master", Lane: "Volume", BarCount: 1, Shape: host.ShapeLinear},
		FilenamePattern: "soft-hitwhistle%d",
		BaseIndex:       1,
		AdvisoryMarkers: true,
	}
}

func TestRunRecordsRowsInMarkerOrder(t *testing.T) {
	var p *smfproject.Project
	var captures []renderCapture
	p = newTestProject(t, capturingRenderer(t, &p, &captures))
	log := &recordingLog{}

	summary, err := New(p, defaultOptions(), log, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []metadata.Row{
		{Filename: "soft-hitwhistle1", Onset: 2.2, MarkerTime: 3.0},
		{Filename: "soft-hitwhistle2", Onset: 5.2, MarkerTime: 6.0},
		{Filename: "soft-hitwhistle3", Onset: 0, MarkerTime: 20.0},
	}
	if len(log.rows) != len(want) {
		t.Fatalf("expected %d rows, got %+v", len(want), log.rows)
	}
	for i, row := range log.rows {
		if row.Filename != want[i].Filename || row.MarkerTime != want[i].MarkerTime || math.Abs(row.Onset-want[i].Onset) > 1e-3 {
			t.Fatalf("row %d = %+v, want %+v", i, row, want[i])
		}
		if row.String() != want[i].String() {
			t.Fatalf("row %d formats as %q, want %q", i, row.String(), want[i].String())
		}
	}
	if summary.Rendered != 3 || summary.RenderErrors != 0 || summary.NoOnset != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(captures) != 3 {
		t.Fatalf("expected 3 renders, got %d", len(captures))
	}
	if captures[0].end != 5.0 || captures[1].end != 8.0 || captures[2].end != 22.0 {
		t.Fatalf("unexpected render ends %v %v %v", captures[0].end, captures[1].end, captures[2].end)
	}
}

func TestFadeLaneHoldsTwoPointsDuringRender(t *testing.T) {
	var p *smfproject.Project
	var captures []renderCapture
	p = newTestProject(t, capturingRenderer(t, &p, &captures))
	opts := defaultOptions()
	opts.Fade.BarCount = 0.5

	if _, err := New(p, opts, &recordingLog{}, nil).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, c := range captures {
		if len(c.fade) != 2 {
			t.Fatalf("render %d: expected two fade points, got %+v", i, c.fade)
		}
		marker := []float64{3.0, 6.0, 20.0}[i]
		if c.fade[0].Time != marker || c.fade[0].Value != fade.LaneValue(host.ScalingCC7, fade.UnityGain) {
			t.Fatalf("render %d: unexpected hold %+v", i, c.fade[0])
		}
		if math.Abs(c.fade[1].Time-(marker+1.0)) > 1e-9 || c.fade[1].Value != 0 {
			t.Fatalf("render %d: unexpected decay %+v", i, c.fade[1])
		}
	}
}

func TestMarkersAreIsolated(t *testing.T) {
	var p *smfproject.Project
	var captures []renderCapture
	p = newTestProject(t, capturingRenderer(t, &p, &captures))
	if _, err := New(p, defaultOptions(), &recordingLog{}, nil).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	first := captures[0]
	if len(first.notes) != 3 {
		t.Fatalf("marker 1 should render three notes, got %v", first.notes)
	}
	if got := captures[1].notes[67]; got != seconds(6.0) {
		t.Fatalf("marker 2 should truncate the straddling note at the marker, got end %d", got)
	}
	if got := captures[2].notes[67]; got != seconds(6.8) {
		t.Fatalf("marker 3 must see the original note after rollback, got end %d", got)
	}
	if !containsString(first.markers, "onset 1") || containsString(captures[1].markers, "onset 1") {
		t.Fatalf("advisory marker should exist only within its own marker: %v / %v", first.markers, captures[1].markers)
	}

	// the same marker processed alone yields the same render
	var q *smfproject.Project
	var solo []renderCapture
	q = newTestProject(t, capturingRenderer(t, &q, &solo))
	runner := New(q, defaultOptions(), nil, nil)
	res := runner.ProcessMarker(context.Background(), runnerMarker(q, 1))
	if res.Filename != "soft-hitwhistle1" || math.Abs(res.Onset.Seconds-2.2) > 1e-3 {
		t.Fatalf("unexpected solo result %+v", res)
	}
	if len(solo) != 1 || len(solo[0].notes) != len(first.notes) {
		t.Fatalf("solo render differs from full run: %v vs %v", solo, first.notes)
	}
	for pitch, end := range first.notes {
		if solo[0].notes[pitch] != end {
			t.Fatalf("pitch %d end %d differs from full run %d", pitch, solo[0].notes[pitch], end)
		}
	}

	tr, _ := p.FindTrack("Notes")
	if len(tr.Items()) != 1 || len(tr.Notes()) != 5 {
		t.Fatalf("project not restored after run: %+v", tr.Items())
	}
	if _, ok := p.FindTrack("Master"); ok {
		t.Fatal("fade track should not survive the run")
	}
	if len(p.Markers()) != 3 {
		t.Fatalf("advisory markers leaked: %+v", p.Markers())
	}
}

func TestRenderFailureContinues(t *testing.T) {
	var calls int
	renderer := smfproject.RendererFunc(func(ctx context.Context, job smfproject.Job) error {
		calls++
		if strings.Contains(job.OutputPath, "soft-hitwhistle2") {
			return errors.New("synth crashed")
		}
		return nil
	})
	p := newTestProject(t, renderer)
	log := &recordingLog{}

	summary, err := New(p, defaultOptions(), log, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 3 || summary.RenderErrors != 1 || summary.Rendered != 2 {
		t.Fatalf("expected continue-on-error, calls=%d summary=%+v", calls, summary)
	}
	if !errors.Is(summary.Results[1].RenderErr, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", summary.Results[1].RenderErr)
	}
	if len(log.rows) != 3 {
		t.Fatalf("every marker should still be recorded, got %d rows", len(log.rows))
	}
}

func TestFadeFailureSkipsAutomationOnly(t *testing.T) {
	var renders []float64
	renderer := smfproject.RendererFunc(func(ctx context.Context, job smfproject.Job) error {
		renders = append(renders, job.End)
		return nil
	})
	p := newTestProject(t, renderer)
	opts := defaultOptions()
	opts.Fade.Lane = "Pan"

	summary, err := New(p, opts, &recordingLog{}, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.FadeErrors != 3 || summary.Rendered != 3 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if renders[0] != 5.0 {
		t.Fatalf("render bounds should still include the fade window, got %v", renders[0])
	}
}

func TestRunWithoutMarkers(t *testing.T) {
	p := smfproject.New("empty", timing.Map{})
	log := &recordingLog{}
	summary, err := New(p, defaultOptions(), log, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(log.rows) != 0 || len(summary.Results) != 0 {
		t.Fatalf("expected no work, got %+v", summary)
	}
}

func TestRunStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	renderer := smfproject.RendererFunc(func(context.Context, smfproject.Job) error {
		cancel()
		return nil
	})
	p := newTestProject(t, renderer)
	log := &recordingLog{}

	summary, err := New(p, defaultOptions(), log, nil).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(log.rows) != 1 || len(summary.Results) != 1 {
		t.Fatalf("expected one processed marker, got %d rows", len(log.rows))
	}
}

func TestRecorderFailureAborts(t *testing.T) {
	p := newTestProject(t, smfproject.RendererFunc(func(context.Context, smfproject.Job) error { return nil }))
	_, err := New(p, defaultOptions(), &recordingLog{err: errors.New("disk full")}, nil).Run(context.Background())
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected fatal error, got %v", err)
	}
}

func runnerMarker(p *smfproject.Project, index int) markers.Marker {
	for _, m := range markers.List(p) {
		if m.Index == index {
			return m
		}
	}
	return markers.Marker{}
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
