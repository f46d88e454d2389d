package smfproject

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"hitcut/internal/host"
	"hitcut/internal/logging"
	"hitcut/internal/services"
	"hitcut/internal/timing"
)

// VolumeLane is the lane name mapped to MIDI channel volume.
const VolumeLane = "Volume"

type itemState struct {
	id     string
	start  float64
	length float64
	notes  []host.Note
}

type laneState struct {
	name    string
	scaling host.Scaling
	points  []host.Point
}

type trackState struct {
	name  string
	items []*itemState
	lanes []*laneState
}

type state struct {
	markers     []host.Marker
	tracks      []*trackState
	renderStart float64
	renderEnd   float64
	outputName  string
}

// Project is an in-memory MIDI project.
type Project struct {
	name      string
	path      string
	tempo     timing.Map
	state     *state
	tx        *transaction
	renderer  Renderer
	outputDir string
	extension string
	logger    *slog.Logger
	nextID    int
}

// Option configures a Project.
type Option func(*Project)

// WithRenderer sets the renderer invoked by Render.
func WithRenderer(r Renderer) Option {
	return func(p *Project) {
		if r != nil {
			p.renderer = r
		}
	}
}

// WithOutput sets where rendered files are written.
func WithOutput(dir, extension string) Option {
	return func(p *Project) {
		p.outputDir = dir
		p.extension = strings.TrimPrefix(strings.TrimSpace(extension), ".")
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Project) {
		p.logger = logging.NewComponentLogger(logger, "smfproject")
	}
}

// New creates an empty project with the given tempo map.
func New(name string, tempo timing.Map, opts ...Option) *Project {
	p := &Project{
		name:      name,
		tempo:     tempo,
		state:     &state{},
		extension: "wav",
		logger:    logging.NewComponentLogger(nil, "smfproject"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Project) Name() string         { return p.name }
func (p *Project) Path() string         { return p.path }
func (p *Project) TempoMap() timing.Map { return p.tempo }

// Markers returns markers in insertion order.
func (p *Project) Markers() []host.Marker {
	return append([]host.Marker(nil), p.state.markers...)
}

// AddMarker appends a marker.
func (p *Project) AddMarker(name string, at float64) error {
	if at < 0 {
		return fmt.Errorf("marker %q at negative time %.3f", name, at)
	}
	p.state.markers = append(p.state.markers, host.Marker{Name: name, Time: at})
	return nil
}

// FindTrack looks up a track by name, case-insensitively.
func (p *Project) FindTrack(name string) (host.Track, bool) {
	ts := p.trackState(name)
	if ts == nil {
		return nil, false
	}
	return &track{project: p, name: ts.name}, true
}

// CreateTrack adds an empty track or returns the existing one.
func (p *Project) CreateTrack(name string) (host.Track, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, services.Wrap(services.ErrHost, "smfproject", "create track", "track name is empty", nil)
	}
	if ts := p.trackState(name); ts != nil {
		return &track{project: p, name: ts.name}, nil
	}
	p.state.tracks = append(p.state.tracks, &trackState{name: name})
	return &track{project: p, name: name}, nil
}

// AddItem places an item holding notes on a track, creating the track if needed.
// Notes use absolute ticks.
func (p *Project) AddItem(trackName string, start, length float64, notes []host.Note) (host.Item, error) {
	if length <= 0 {
		return host.Item{}, fmt.Errorf("item length must be positive, got %.3f", length)
	}
	if _, err := p.CreateTrack(trackName); err != nil {
		return host.Item{}, err
	}
	ts := p.trackState(trackName)
	item := &itemState{id: p.newItemID(ts.name), start: start, length: length, notes: sortedNotes(notes)}
	ts.items = append(ts.items, item)
	sort.SliceStable(ts.items, func(i, j int) bool { return ts.items[i].start < ts.items[j].start })
	return item.view(ts.name), nil
}

// SetRenderBounds sets the time range of the next render.
func (p *Project) SetRenderBounds(start, end float64) error {
	if start < 0 || end <= start {
		return services.Wrap(services.ErrValidation, "smfproject", "render bounds",
			fmt.Sprintf("invalid range [%.3f, %.3f]", start, end), nil)
	}
	p.state.renderStart = start
	p.state.renderEnd = end
	return nil
}

// SetOutputName sets the output file name without extension.
func (p *Project) SetOutputName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return services.Wrap(services.ErrValidation, "smfproject", "output name",
			fmt.Sprintf("invalid output name %q", name), nil)
	}
	p.state.outputName = name
	return nil
}

// OutputPath returns the file the next render writes.
func (p *Project) OutputPath() string {
	return filepath.Join(p.outputDir, p.state.outputName+"."+p.extension)
}

// Render writes a snapshot of the current state and invokes the renderer.
func (p *Project) Render(ctx context.Context) error {
	if p.renderer == nil {
		return services.Wrap(services.ErrConfiguration, "smfproject", "render", "no renderer configured", nil)
	}
	if p.state.outputName == "" {
		return services.Wrap(services.ErrValidation, "smfproject", "render", "output name not set", nil)
	}
	if p.state.renderEnd <= p.state.renderStart {
		return services.Wrap(services.ErrValidation, "smfproject", "render", "render bounds not set", nil)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot, err := p.Snapshot()
	if err != nil {
		return err
	}
	workDir, err := os.MkdirTemp("", "hitcut-render-")
	if err != nil {
		return fmt.Errorf("create render work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	midiPath := filepath.Join(workDir, p.state.outputName+".mid")
	if err := snapshot.WriteFile(midiPath); err != nil {
		return fmt.Errorf("write render snapshot: %w", err)
	}

	job := Job{
		Project:    p.name,
		MIDIPath:   midiPath,
		OutputPath: p.OutputPath(),
		Start:      p.state.renderStart,
		End:        p.state.renderEnd,
	}
	p.logger.Debug("rendering snapshot",
		logging.String("output_path", job.OutputPath),
		logging.Seconds("render_end", job.End),
	)
	return p.renderer.Render(ctx, job)
}

// Begin snapshots project state for rollback.
func (p *Project) Begin() (host.Transaction, error) {
	if p.tx != nil {
		return nil, host.ErrTransactionOpen
	}
	p.tx = &transaction{project: p, saved: p.state.clone()}
	return p.tx, nil
}

func (p *Project) trackState(name string) *trackState {
	for _, ts := range p.state.tracks {
		if strings.EqualFold(ts.name, strings.TrimSpace(name)) {
			return ts
		}
	}
	return nil
}

func (p *Project) newItemID(trackName string) string {
	p.nextID++
	return fmt.Sprintf("%s#%d", trackName, p.nextID)
}

func (it *itemState) view(trackName string) host.Item {
	return host.Item{ID: it.id, Track: trackName, Start: it.start, Length: it.length}
}

func sortedNotes(notes []host.Note) []host.Note {
	out := append([]host.Note(nil), notes...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTick < out[j].StartTick })
	return out
}
