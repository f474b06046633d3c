package state

import (
	"errors"
	"sync"
	"testing"
	"time"

	"smartstay-cli/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepperStaysInRange(t *testing.T) {
	s := Initial(nil, time.Time{}, 1)

	s = Apply(s, SizeStepped{Delta: -1})
	assert.Equal(t, 1, s.RequestedSize)

	for i := 0; i < 10; i++ {
		s = Apply(s, SizeStepped{Delta: 1})
		assert.GreaterOrEqual(t, s.RequestedSize, api.MinBooking)
		assert.LessOrEqual(t, s.RequestedSize, api.MaxBooking)
	}
	assert.Equal(t, 5, s.RequestedSize)

	s = Apply(s, SizeStepped{Delta: 1})
	assert.Equal(t, 5, s.RequestedSize)

	s = Apply(s, SizeSet{Size: 0})
	assert.Equal(t, 5, s.RequestedSize)
	s = Apply(s, SizeSet{Size: 2})
	assert.Equal(t, 2, s.RequestedSize)
}

func TestStepperIgnoredWhileLoading(t *testing.T) {
	s := Apply(Initial(nil, time.Time{}, 2), ActionStarted{Action: ActionBook})

	s = Apply(s, SizeStepped{Delta: 1})
	s = Apply(s, SizeSet{Size: 4})
	assert.Equal(t, 2, s.RequestedSize)
}

func TestClampSize(t *testing.T) {
	assert.Equal(t, 1, ClampSize(-3))
	assert.Equal(t, 3, ClampSize(3))
	assert.Equal(t, 5, ClampSize(9))
}

func TestActionStartedClearsPreviousOutcome(t *testing.T) {
	s := Apply(Initial(nil, time.Time{}, 1), ActionStarted{Action: ActionBook})
	s = Apply(s, AllocationSucceeded{Epoch: s.ActionEpoch, Result: api.BookingResult{
		TravelTime:  1,
		BookedRooms: []api.Room{{Number: 101}},
	}})
	s = Apply(s, ActionWarned{Epoch: s.ActionEpoch, Message: "stale"})
	s = Apply(s, ActionSettled{Epoch: s.ActionEpoch})
	require.Equal(t, PhaseSucceeded, s.Phase)
	require.NotNil(t, s.LastResult)

	s = Apply(s, ActionStarted{Action: ActionReset})
	assert.Equal(t, PhasePending, s.Phase)
	assert.True(t, s.Loading)
	assert.Nil(t, s.Err)
	assert.Nil(t, s.LastResult)
	assert.Empty(t, s.Highlight)
	assert.Empty(t, s.Warning)
	assert.Equal(t, uint64(2), s.ActionEpoch)
}

func TestSettleInvariants(t *testing.T) {
	start := Apply(Initial(nil, time.Time{}, 1), ActionStarted{Action: ActionBook})

	failed := Apply(start, ActionFailed{Epoch: start.ActionEpoch, Err: errors.New("nope")})
	assert.False(t, failed.Loading)
	assert.Equal(t, PhaseFailed, failed.Phase)
	assert.Nil(t, failed.LastResult)
	assert.EqualError(t, failed.Err, "nope")

	ok := Apply(start, AllocationSucceeded{Epoch: start.ActionEpoch, Result: api.BookingResult{BookedRooms: []api.Room{{Number: 301}}}})
	ok = Apply(ok, ActionSettled{Epoch: start.ActionEpoch})
	assert.False(t, ok.Loading)
	assert.Equal(t, PhaseSucceeded, ok.Phase)
	assert.Nil(t, ok.Err)
	assert.True(t, ok.Highlight.Has(301))
}

func TestStaleActionEventsAreDropped(t *testing.T) {
	first := Apply(Initial(nil, time.Time{}, 1), ActionStarted{Action: ActionBook})
	second := Apply(first, ActionStarted{Action: ActionScenario})

	s := Apply(second, AllocationSucceeded{Epoch: first.ActionEpoch, Result: api.BookingResult{BookedRooms: []api.Room{{Number: 101}}}})
	s = Apply(s, ActionFailed{Epoch: first.ActionEpoch, Err: errors.New("late")})
	s = Apply(s, ActionSettled{Epoch: first.ActionEpoch})
	s = Apply(s, SizeForced{Epoch: first.ActionEpoch, Size: 4})

	assert.Equal(t, second, s)
	assert.True(t, s.Loading)
}

func TestSettledActionIgnoresLateEvents(t *testing.T) {
	s := Apply(Initial(nil, time.Time{}, 1), ActionStarted{Action: ActionBook})
	epoch := s.ActionEpoch
	s = Apply(s, ActionFailed{Epoch: epoch, Err: errors.New("first")})
	settled := s

	s = Apply(s, ActionSettled{Epoch: epoch})
	s = Apply(s, AllocationSucceeded{Epoch: epoch})
	assert.Equal(t, settled, s)
}

func TestInventoryEpochDropsOlderRefresh(t *testing.T) {
	s := Initial(nil, time.Time{}, 1)
	s = Apply(s, RefreshStarted{})
	older := s.InventoryEpoch
	s = Apply(s, RefreshStarted{})
	newer := s.InventoryEpoch

	fresh := []api.Room{{Number: 101, Floor: 1, IsOccupied: true}}
	stale := []api.Room{{Number: 101, Floor: 1}}

	s = Apply(s, InventoryLoaded{Epoch: newer, Rooms: fresh})
	s = Apply(s, InventoryLoaded{Epoch: older, Rooms: stale})
	assert.Equal(t, fresh, s.Rooms)

	s = Apply(s, InventoryFailed{Epoch: older, Err: errors.New("offline")})
	assert.Nil(t, s.Err)
	assert.False(t, s.Offline)
}

func TestInventoryLoadedCopiesRooms(t *testing.T) {
	s := Apply(Initial(nil, time.Time{}, 1), RefreshStarted{})
	rooms := []api.Room{{Number: 101, Floor: 1}}
	s = Apply(s, InventoryLoaded{Epoch: s.InventoryEpoch, Rooms: rooms})

	rooms[0].IsOccupied = true
	assert.False(t, s.Rooms[0].IsOccupied)
}

func TestInventoryFailureKeepsLastGoodRooms(t *testing.T) {
	good := []api.Room{{Number: 101, Floor: 1}}
	s := Initial(good, time.Time{}, 1)

	s = Apply(s, RefreshStarted{})
	s = Apply(s, InventoryFailed{Epoch: s.InventoryEpoch, Err: errors.New("offline")})
	assert.Equal(t, good, s.Rooms)
	assert.True(t, s.Offline)
	assert.EqualError(t, s.Err, "offline")

	s = Apply(s, RefreshStarted{})
	s = Apply(s, InventoryFailed{Epoch: s.InventoryEpoch, Err: errors.New("still offline")})
	assert.EqualError(t, s.Err, "still offline")
	assert.Empty(t, s.Warning)

	s = Apply(s, RefreshStarted{})
	s = Apply(s, InventoryLoaded{Epoch: s.InventoryEpoch, Rooms: good})
	assert.Nil(t, s.Err)
	assert.False(t, s.Offline)
}

func TestInventoryFailureNeverOverwritesActionOutcome(t *testing.T) {
	s := Apply(Initial(nil, time.Time{}, 1), ActionStarted{Action: ActionBook})
	s = Apply(s, AllocationSucceeded{Epoch: s.ActionEpoch, Result: api.BookingResult{BookedRooms: []api.Room{{Number: 101}}}})
	s = Apply(s, ActionSettled{Epoch: s.ActionEpoch})

	s = Apply(s, RefreshStarted{})
	s = Apply(s, InventoryFailed{Epoch: s.InventoryEpoch, Err: errors.New("offline")})
	assert.Nil(t, s.Err)
	assert.NotNil(t, s.LastResult)
	assert.Equal(t, "offline", s.Warning)

	failed := Apply(s, ActionStarted{Action: ActionBook})
	failed = Apply(failed, ActionFailed{Epoch: failed.ActionEpoch, Err: errors.New("declined")})
	failed = Apply(failed, RefreshStarted{})
	failed = Apply(failed, InventoryFailed{Epoch: failed.InventoryEpoch, Err: errors.New("offline")})
	failed = Apply(failed, RefreshStarted{})
	failed = Apply(failed, InventoryLoaded{Epoch: failed.InventoryEpoch})
	assert.EqualError(t, failed.Err, "declined")
}

func TestSuccessfulRefreshClearsRefreshWarning(t *testing.T) {
	s := Apply(Initial(nil, time.Time{}, 1), ActionStarted{Action: ActionBook})
	s = Apply(s, AllocationSucceeded{Epoch: s.ActionEpoch, Result: api.BookingResult{BookedRooms: []api.Room{{Number: 101}}}})
	s = Apply(s, ActionSettled{Epoch: s.ActionEpoch})

	s = Apply(s, RefreshStarted{})
	s = Apply(s, InventoryFailed{Epoch: s.InventoryEpoch, Err: errors.New("offline")})
	require.Equal(t, "offline", s.Warning)
	require.True(t, s.Offline)

	s = Apply(s, RefreshStarted{})
	s = Apply(s, InventoryLoaded{Epoch: s.InventoryEpoch, Rooms: []api.Room{{Number: 101, Floor: 1}}})
	assert.False(t, s.Offline)
	assert.Empty(t, s.Warning)
	assert.Nil(t, s.Err)
	assert.NotNil(t, s.LastResult)
}

func TestStaleMapWarningLastsUntilRefreshSucceeds(t *testing.T) {
	s := Apply(Initial(nil, time.Time{}, 1), ActionStarted{Action: ActionBook})
	epoch := s.ActionEpoch
	s = Apply(s, AllocationSucceeded{Epoch: epoch, Result: api.BookingResult{BookedRooms: []api.Room{{Number: 101}}}})
	s = Apply(s, RefreshStarted{})
	s = Apply(s, InventoryFailed{Epoch: s.InventoryEpoch, Err: errors.New("offline")})
	s = Apply(s, ActionWarned{Epoch: epoch, Message: "Room map may be out of date."})
	s = Apply(s, ActionSettled{Epoch: epoch})

	stale := s.InventoryEpoch
	s = Apply(s, RefreshStarted{})
	s = Apply(s, InventoryLoaded{Epoch: stale})
	assert.Equal(t, "Room map may be out of date.", s.Warning, "stale load must not clear the warning")

	s = Apply(s, Dismissed{})
	assert.Empty(t, s.Warning)

	s = Apply(s, ActionStarted{Action: ActionBook})
	s = Apply(s, ActionWarned{Epoch: s.ActionEpoch, Message: "Room map may be out of date."})
	s = Apply(s, RefreshStarted{})
	s = Apply(s, InventoryFailed{Epoch: s.InventoryEpoch, Err: errors.New("offline")})
	assert.Equal(t, "offline", s.Warning)
	s = Apply(s, RefreshStarted{})
	s = Apply(s, InventoryLoaded{Epoch: s.InventoryEpoch})
	assert.Empty(t, s.Warning)
}

func TestDismissed(t *testing.T) {
	s := Apply(Initial(nil, time.Time{}, 1), ActionStarted{Action: ActionBook})
	assert.Equal(t, s, Apply(s, Dismissed{}))

	s = Apply(s, ActionFailed{Epoch: s.ActionEpoch, Err: errors.New("nope")})
	s = Apply(s, Dismissed{})
	assert.Equal(t, PhaseIdle, s.Phase)
	assert.Nil(t, s.Err)
}

func TestStoreNotifiesInOrder(t *testing.T) {
	store := NewStore(Initial(nil, time.Time{}, 1))

	var mu sync.Mutex
	epochs := []uint64{}
	store.Subscribe(func(s Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		epochs = append(epochs, s.ActionEpoch)
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Dispatch(ActionStarted{Action: ActionBook})
		}()
	}
	wg.Wait()

	require.Len(t, epochs, 20)
	for i, epoch := range epochs {
		assert.Equal(t, uint64(i+1), epoch)
	}
	assert.Equal(t, uint64(20), store.Snapshot().ActionEpoch)
}
