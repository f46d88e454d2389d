package smfproject

import (
	"fmt"
	"sort"
	"strings"

	"hitcut/internal/host"
	"hitcut/internal/services"
)

// track resolves its state by name on every call so handles survive rollback.
type track struct {
	project *Project
	name    string
}

func (t *track) Name() string { return t.name }

func (t *track) state() *trackState {
	return t.project.trackState(t.name)
}

func (t *track) Items() []host.Item {
	ts := t.state()
	if ts == nil {
		return nil
	}
	items := make([]host.Item, 0, len(ts.items))
	for _, it := range ts.items {
		items = append(items, it.view(ts.name))
	}
	return items
}

// Split cuts an item at the given time. Notes starting before the cut stay on
// the left and are truncated at the cut tick; the rest move right.
func (t *track) Split(itemID string, at float64) (host.Item, error) {
	ts := t.state()
	if ts == nil {
		return host.Item{}, services.Wrap(services.ErrHost, "smfproject", "split", "track "+t.name+" no longer exists", nil)
	}
	idx := ts.indexOf(itemID)
	if idx < 0 {
		return host.Item{}, fmt.Errorf("%w: %s", host.ErrItemNotFound, itemID)
	}
	left := ts.items[idx]
	if at <= left.start || at >= left.start+left.length {
		return host.Item{}, fmt.Errorf("%w: %.3f not inside [%.3f, %.3f)", host.ErrSplitOutside, at, left.start, left.start+left.length)
	}

	splitTick := t.project.tempo.SecondsToTicks(at)
	var kept, moved []host.Note
	for _, n := range left.notes {
		if n.StartTick < splitTick {
			if n.EndTick > splitTick {
				n.EndTick = splitTick
			}
			kept = append(kept, n)
			continue
		}
		moved = append(moved, n)
	}

	right := &itemState{
		id:     t.project.newItemID(ts.name),
		start:  at,
		length: left.start + left.length - at,
		notes:  moved,
	}
	left.length = at - left.start
	left.notes = kept

	ts.items = append(ts.items, nil)
	copy(ts.items[idx+2:], ts.items[idx+1:])
	ts.items[idx+1] = right
	return right.view(ts.name), nil
}

func (t *track) DeleteItem(itemID string) error {
	ts := t.state()
	if ts == nil {
		return services.Wrap(services.ErrHost, "smfproject", "delete item", "track "+t.name+" no longer exists", nil)
	}
	idx := ts.indexOf(itemID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", host.ErrItemNotFound, itemID)
	}
	ts.items = append(ts.items[:idx], ts.items[idx+1:]...)
	return nil
}

// Notes returns the notes of all items, ordered by start tick.
func (t *track) Notes() []host.Note {
	ts := t.state()
	if ts == nil {
		return nil
	}
	var notes []host.Note
	for _, it := range ts.items {
		notes = append(notes, it.notes...)
	}
	return sortedNotes(notes)
}

func (t *track) Lane(name string) (host.Lane, bool) {
	ts := t.state()
	if ts == nil {
		return nil, false
	}
	if ls := ts.lane(name); ls != nil {
		return &lane{track: t, name: ls.name}, true
	}
	return nil, false
}

// CreateLane adds an automation lane. Only the volume lane is supported since
// it is the only parameter the snapshot can express.
func (t *track) CreateLane(name string) (host.Lane, error) {
	ts := t.state()
	if ts == nil {
		return nil, services.Wrap(services.ErrHost, "smfproject", "create lane", "track "+t.name+" no longer exists", nil)
	}
	if ls := ts.lane(name); ls != nil {
		return &lane{track: t, name: ls.name}, nil
	}
	if !strings.EqualFold(strings.TrimSpace(name), VolumeLane) {
		return nil, services.Wrap(services.ErrHost, "smfproject", "create lane",
			fmt.Sprintf("unsupported automation lane %q", name), nil)
	}
	ts.lanes = append(ts.lanes, &laneState{name: VolumeLane, scaling: host.ScalingCC7})
	return &lane{track: t, name: VolumeLane}, nil
}

func (ts *trackState) indexOf(itemID string) int {
	for i, it := range ts.items {
		if it.id == itemID {
			return i
		}
	}
	return -1
}

func (ts *trackState) lane(name string) *laneState {
	for _, ls := range ts.lanes {
		if strings.EqualFold(ls.name, strings.TrimSpace(name)) {
			return ls
		}
	}
	return nil
}

type lane struct {
	track *track
	name  string
}

func (l *lane) state() *laneState {
	ts := l.track.state()
	if ts == nil {
		return nil
	}
	return ts.lane(l.name)
}

func (l *lane) Name() string { return l.name }

func (l *lane) Scaling() host.Scaling {
	if ls := l.state(); ls != nil {
		return ls.scaling
	}
	return host.ScalingCC7
}

func (l *lane) Points() []host.Point {
	if ls := l.state(); ls != nil {
		return append([]host.Point(nil), ls.points...)
	}
	return nil
}

func (l *lane) Clear() {
	if ls := l.state(); ls != nil {
		ls.points = nil
	}
}

func (l *lane) Insert(p host.Point) {
	if ls := l.state(); ls != nil {
		ls.points = append(ls.points, p)
	}
}

func (l *lane) Sort() {
	if ls := l.state(); ls != nil {
		sort.SliceStable(ls.points, func(i, j int) bool { return ls.points[i].Time < ls.points[j].Time })
	}
}
