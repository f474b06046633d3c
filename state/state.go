package state

import (
	"time"

	"smartstay-cli/api"
	"smartstay-cli/view"
)

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePending   Phase = "pending"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

type Action string

const (
	ActionNone      Action = ""
	ActionBook      Action = "book"
	ActionScenario  Action = "scenario"
	ActionReset     Action = "reset"
	ActionRandomize Action = "randomize"
)

// Snapshot is an immutable view of the store. Rooms and Highlight are
// replaced wholesale by transitions and must not be modified by readers.
type Snapshot struct {
	Phase         Phase
	Action        Action
	Loading       bool
	Err           error
	Warning       string
	LastResult    *api.BookingResult
	Highlight     view.HighlightSet
	RequestedSize int

	Rooms       []api.Room
	RefreshedAt time.Time
	Offline     bool

	// ActionEpoch advances on every ActionStarted, InventoryEpoch on every
	// RefreshStarted. Events stamped with an older epoch are dropped.
	ActionEpoch    uint64
	InventoryEpoch uint64

	// refreshErr and refreshWarn mark an error or warning that the next
	// successful refresh resolves.
	refreshErr  bool
	refreshWarn bool
}

func Initial(rooms []api.Room, refreshedAt time.Time, size int) Snapshot {
	return Snapshot{
		Phase:         PhaseIdle,
		RequestedSize: ClampSize(size),
		Rooms:         cloneRooms(rooms),
		RefreshedAt:   refreshedAt,
	}
}

func ClampSize(size int) int {
	if size < api.MinBooking {
		return api.MinBooking
	}
	if size > api.MaxBooking {
		return api.MaxBooking
	}
	return size
}

func validSize(size int) bool {
	return size >= api.MinBooking && size <= api.MaxBooking
}

func (s Snapshot) Floors() [api.FloorCount]view.FloorView {
	return view.Project(s.Rooms, s.Highlight)
}

func (s Snapshot) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

func cloneRooms(rooms []api.Room) []api.Room {
	if rooms == nil {
		return nil
	}
	cloned := make([]api.Room, len(rooms))
	copy(cloned, rooms)
	return cloned
}
