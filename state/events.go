package state

import (
	"time"

	"smartstay-cli/api"
	"smartstay-cli/view"
)

type Event interface {
	event()
}

// ActionStarted advances the action epoch, which supersedes any action
// still pending.
type ActionStarted struct {
	Action Action
}

type SizeForced struct {
	Epoch uint64
	Size  int
}

type SizeStepped struct {
	Delta int
}

type SizeSet struct {
	Size int
}

type AllocationSucceeded struct {
	Epoch  uint64
	Result api.BookingResult
}

type ActionWarned struct {
	Epoch   uint64
	Message string
}

type ActionFailed struct {
	Epoch uint64
	Err   error
}

type ActionSettled struct {
	Epoch uint64
}

type RefreshStarted struct{}

type InventoryLoaded struct {
	Epoch uint64
	Rooms []api.Room
	At    time.Time
}

// InventoryFailed keeps the last good inventory.
type InventoryFailed struct {
	Epoch uint64
	Err   error
}

type Dismissed struct{}

func (ActionStarted) event()       {}
func (SizeForced) event()          {}
func (SizeStepped) event()         {}
func (SizeSet) event()             {}
func (AllocationSucceeded) event() {}
func (ActionWarned) event()        {}
func (ActionFailed) event()        {}
func (ActionSettled) event()       {}
func (RefreshStarted) event()      {}
func (InventoryLoaded) event()     {}
func (InventoryFailed) event()     {}
func (Dismissed) event()           {}

func Apply(s Snapshot, ev Event) Snapshot {
	switch ev := ev.(type) {
	case ActionStarted:
		s.ActionEpoch++
		s.Phase = PhasePending
		s.Action = ev.Action
		s.Loading = true
		s.Err = nil
		s.refreshErr = false
		s.Warning = ""
		s.refreshWarn = false
		s.LastResult = nil
		s.Highlight = nil

	case SizeForced:
		if ev.Epoch != s.ActionEpoch || !validSize(ev.Size) {
			return s
		}
		s.RequestedSize = ev.Size

	case SizeStepped:
		if s.Loading || !validSize(s.RequestedSize+ev.Delta) {
			return s
		}
		s.RequestedSize += ev.Delta

	case SizeSet:
		if s.Loading || !validSize(ev.Size) {
			return s
		}
		s.RequestedSize = ev.Size

	case AllocationSucceeded:
		if !s.pending(ev.Epoch) {
			return s
		}
		result := ev.Result
		result.BookedRooms = cloneRooms(ev.Result.BookedRooms)
		s.LastResult = &result
		s.Highlight = view.NewHighlightSet(result.BookedRooms)

	case ActionWarned:
		if !s.pending(ev.Epoch) {
			return s
		}
		s.Warning = ev.Message
		s.refreshWarn = true

	case ActionFailed:
		if !s.pending(ev.Epoch) {
			return s
		}
		s.Phase = PhaseFailed
		s.Loading = false
		s.Err = ev.Err
		s.LastResult = nil
		s.Highlight = nil

	case ActionSettled:
		if !s.pending(ev.Epoch) {
			return s
		}
		s.Loading = false
		s.Phase = PhaseSucceeded
		if s.Err != nil {
			s.Phase = PhaseFailed
		}

	case RefreshStarted:
		s.InventoryEpoch++

	case InventoryLoaded:
		if ev.Epoch != s.InventoryEpoch {
			return s
		}
		s.Rooms = cloneRooms(ev.Rooms)
		if s.Rooms == nil {
			s.Rooms = []api.Room{}
		}
		s.RefreshedAt = ev.At
		s.Offline = false
		if s.refreshErr {
			s.Err = nil
			s.refreshErr = false
		}
		if s.refreshWarn {
			s.Warning = ""
			s.refreshWarn = false
		}

	case InventoryFailed:
		if ev.Epoch != s.InventoryEpoch {
			return s
		}
		s.Offline = true
		// The error slot belongs to the action while one is pending or its
		// outcome is on display.
		if s.Phase == PhasePending || s.LastResult != nil || (s.Err != nil && !s.refreshErr) {
			if ev.Err != nil {
				s.Warning = ev.Err.Error()
				s.refreshWarn = true
			}
			return s
		}
		s.Err = ev.Err
		s.refreshErr = true

	case Dismissed:
		if s.Phase == PhasePending {
			return s
		}
		s.Phase = PhaseIdle
		s.Action = ActionNone
		s.Err = nil
		s.refreshErr = false
		s.Warning = ""
		s.refreshWarn = false
		s.LastResult = nil
		s.Highlight = nil
	}
	return s
}

func (s Snapshot) pending(epoch uint64) bool {
	return s.Phase == PhasePending && epoch == s.ActionEpoch
}
