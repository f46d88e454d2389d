package host

import (
	"context"
	"errors"

	"hitcut/internal/timing"
)

var (
	// ErrTransactionOpen is returned by Begin while another transaction is active.
	ErrTransactionOpen = errors.New("host transaction already open")
	// ErrItemNotFound is returned when an item id does not exist on the track.
	ErrItemNotFound = errors.New("track item not found")
	// ErrSplitOutside is returned when a split position is not inside the item.
	ErrSplitOutside = errors.New("split position outside item")
)

// Marker is an authored cut point.
type Marker struct {
	Name string
	Time float64
}

// Item is a piece of track content positioned in seconds.
type Item struct {
	ID     string
	Track  string
	Start  float64
	Length float64
}

// End returns the item's end time in seconds.
func (i Item) End() float64 {
	return i.Start + i.Length
}

// Note is a read-only view of a MIDI note in absolute ticks.
type Note struct {
	StartTick int64
	EndTick   int64
	Pitch     uint8
	Channel   uint8
	Velocity  uint8
}

// Point is one automation envelope point. Value is in the lane's native domain.
type Point struct {
	Time  float64
	Value float64
	Shape Shape
}

// Project is the host capability surface used by the render stage.
type Project interface {
	// Name identifies the project in logs and the metadata header.
	Name() string
	// Path is the project file location, empty for in-memory projects.
	Path() string

	Markers() []Marker
	AddMarker(name string, at float64) error
	TempoMap() timing.Map

	FindTrack(name string) (Track, bool)
	CreateTrack(name string) (Track, error)

	SetRenderBounds(start, end float64) error
	SetOutputName(name string) error
	// Render blocks until the render configured by the previous calls completes.
	Render(ctx context.Context) error

	// Begin snapshots project state. Rollback restores it.
	Begin() (Transaction, error)
}

// Track exposes items, notes and automation lanes of a single track.
type Track interface {
	Name() string
	Items() []Item
	// Split cuts an item at the given time and returns the right-hand piece.
	Split(itemID string, at float64) (Item, error)
	DeleteItem(itemID string) error
	// Notes returns the notes of the track's current content.
	Notes() []Note

	Lane(name string) (Lane, bool)
	CreateLane(name string) (Lane, error)
}

// Lane is an automation envelope.
type Lane interface {
	Name() string
	Scaling() Scaling
	Points() []Point
	Clear()
	Insert(p Point)
	Sort()
}

// Transaction reverts every edit made since Begin. Rollback is idempotent.
type Transaction interface {
	Rollback() error
}
