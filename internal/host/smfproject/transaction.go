package smfproject

import "hitcut/internal/host"

type transaction struct {
	project *Project
	saved   *state
	done    bool
}

// Rollback restores the state captured by Begin.
func (tx *transaction) Rollback() error {
	if tx.done {
		return nil
	}
	tx.done = true
	tx.project.state = tx.saved
	if tx.project.tx == tx {
		tx.project.tx = nil
	}
	return nil
}

func (s *state) clone() *state {
	out := &state{
		markers:     append([]host.Marker(nil), s.markers...),
		tracks:      make([]*trackState, 0, len(s.tracks)),
		renderStart: s.renderStart,
		renderEnd:   s.renderEnd,
		outputName:  s.outputName,
	}
	for _, ts := range s.tracks {
		copyTrack := &trackState{name: ts.name}
		for _, it := range ts.items {
			copyTrack.items = append(copyTrack.items, &itemState{
				id:     it.id,
				start:  it.start,
				length: it.length,
				notes:  append([]host.Note(nil), it.notes...),
			})
		}
		for _, ls := range ts.lanes {
			copyTrack.lanes = append(copyTrack.lanes, &laneState{
				name:    ls.name,
				scaling: ls.scaling,
				points:  append([]host.Point(nil), ls.points...),
			})
		}
		out.tracks = append(out.tracks, copyTrack)
	}
	return out
}
