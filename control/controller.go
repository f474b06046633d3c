package control

import (
	"context"
	"fmt"
	"time"

	"smartstay-cli/api"
	"smartstay-cli/state"

	"go.uber.org/zap"
)

type Service interface {
	GetState(ctx context.Context) ([]api.Room, error)
	Book(ctx context.Context, size int) (api.BookingResult, error)
	Reset(ctx context.Context) error
	Randomize(ctx context.Context) error
	SeedScenario(ctx context.Context, name string) error
}

type Allocation struct {
	Action   state.Action
	Scenario string
	Size     int
	Result   api.BookingResult
	At       time.Time
}

type Recorder interface {
	RecordAllocation(ctx context.Context, allocation Allocation) error
}

type InventoryCache interface {
	SaveInventory(rooms []api.Room, at time.Time) error
}

type Option func(*Controller)

func WithRecorder(recorder Recorder) Option {
	return func(c *Controller) { c.recorder = recorder }
}

func WithInventoryCache(cache InventoryCache) Option {
	return func(c *Controller) { c.cache = cache }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

type Controller struct {
	service  Service
	store    *state.Store
	logger   *zap.Logger
	recorder Recorder
	cache    InventoryCache
	now      func() time.Time
}

func New(service Service, store *state.Store, logger *zap.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		service: service,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Store() *state.Store {
	return c.store
}

func (c *Controller) Snapshot() state.Snapshot {
	return c.store.Snapshot()
}

func (c *Controller) Busy() bool {
	return c.store.Snapshot().Loading
}

func (c *Controller) StepSize(delta int) state.Snapshot {
	return c.store.Dispatch(state.SizeStepped{Delta: delta})
}

func (c *Controller) SetSize(size int) state.Snapshot {
	return c.store.Dispatch(state.SizeSet{Size: size})
}

func (c *Controller) Dismiss() state.Snapshot {
	return c.store.Dispatch(state.Dismissed{})
}

func (c *Controller) RequestBooking(ctx context.Context, size int) state.Snapshot {
	size = state.ClampSize(size)
	epoch := c.store.Dispatch(state.ActionStarted{Action: state.ActionBook}).ActionEpoch
	log := c.logger.With(
		zap.String("action", string(state.ActionBook)),
		zap.Uint64("epoch", epoch),
		zap.Int("size", size),
	)

	result, err := c.service.Book(ctx, size)
	if err != nil {
		log.Warn("booking failed", zap.Error(err))
		return c.store.Dispatch(state.ActionFailed{Epoch: epoch, Err: allocationError(err)})
	}

	return c.completeAllocation(ctx, log, epoch, Allocation{
		Action: state.ActionBook,
		Size:   size,
		Result: result,
	})
}

// RunScenario seeds a demonstration scenario and books ScenarioSize rooms
// against it. A seeded scenario is not rolled back when the booking fails.
func (c *Controller) RunScenario(ctx context.Context, id int) state.Snapshot {
	epoch := c.store.Dispatch(state.ActionStarted{Action: state.ActionScenario}).ActionEpoch
	c.store.Dispatch(state.SizeForced{Epoch: epoch, Size: api.ScenarioSize})
	log := c.logger.With(
		zap.String("action", string(state.ActionScenario)),
		zap.Uint64("epoch", epoch),
		zap.Int("scenario", id),
	)

	fail := func(err error) state.Snapshot {
		log.Warn("scenario failed", zap.Error(err))
		return c.store.Dispatch(state.ActionFailed{Epoch: epoch, Err: &ScenarioError{Scenario: id, Err: err}})
	}

	scenario, ok := LookupScenario(id)
	if !ok {
		return fail(fmt.Errorf("unknown scenario %d", id))
	}
	if err := c.service.SeedScenario(ctx, scenario.Name); err != nil {
		return fail(fmt.Errorf("seed %s: %w", scenario.Name, err))
	}

	result, err := c.service.Book(ctx, api.ScenarioSize)
	if err != nil {
		return fail(fmt.Errorf("book %s: %w", scenario.Name, err))
	}

	return c.completeAllocation(ctx, log, epoch, Allocation{
		Action:   state.ActionScenario,
		Scenario: scenario.Name,
		Size:     api.ScenarioSize,
		Result:   result,
	})
}

func (c *Controller) RunSimpleAction(ctx context.Context, action state.Action) state.Snapshot {
	epoch := c.store.Dispatch(state.ActionStarted{Action: action}).ActionEpoch
	log := c.logger.With(zap.String("action", string(action)), zap.Uint64("epoch", epoch))

	var err error
	switch action {
	case state.ActionReset:
		err = c.service.Reset(ctx)
	case state.ActionRandomize:
		err = c.service.Randomize(ctx)
	default:
		err = fmt.Errorf("unsupported action %q", action)
	}
	if err == nil {
		_, err = c.loadInventory(ctx)
	}
	if err != nil {
		log.Warn("action failed", zap.Error(err))
		return c.store.Dispatch(state.ActionFailed{Epoch: epoch, Err: &ActionError{Action: string(action), Err: err}})
	}
	return c.store.Dispatch(state.ActionSettled{Epoch: epoch})
}

// Refresh replaces the inventory with the backend's. On failure the last
// good inventory stays and the system is marked offline.
func (c *Controller) Refresh(ctx context.Context) state.Snapshot {
	epoch, err := c.loadInventory(ctx)
	if err != nil {
		c.logger.Warn("inventory refresh failed", zap.Uint64("inventory_epoch", epoch), zap.Error(err))
		return c.store.Dispatch(state.InventoryFailed{Epoch: epoch, Err: &TransportError{Err: err}})
	}
	return c.store.Snapshot()
}

func (c *Controller) AutoRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Refresh(ctx)
		}
	}
}

func (c *Controller) completeAllocation(ctx context.Context, log *zap.Logger, epoch uint64, allocation Allocation) state.Snapshot {
	allocation.At = c.now()
	c.store.Dispatch(state.AllocationSucceeded{Epoch: epoch, Result: allocation.Result})
	c.record(ctx, log, allocation)

	if _, err := c.loadInventory(ctx); err != nil {
		log.Warn("inventory refresh after allocation failed", zap.Error(err))
		c.store.Dispatch(state.ActionWarned{
			Epoch:   epoch,
			Message: "Room map may be out of date. " + offlineMessage,
		})
	}
	return c.store.Dispatch(state.ActionSettled{Epoch: epoch})
}

func (c *Controller) record(ctx context.Context, log *zap.Logger, allocation Allocation) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.RecordAllocation(ctx, allocation); err != nil {
		log.Warn("record allocation failed", zap.Error(err))
	}
}

func (c *Controller) loadInventory(ctx context.Context) (uint64, error) {
	epoch := c.store.Dispatch(state.RefreshStarted{}).InventoryEpoch

	rooms, err := c.service.GetState(ctx)
	if err != nil {
		return epoch, err
	}
	if err := api.ValidateInventory(rooms); err != nil {
		return epoch, invalidInventory(err)
	}

	at := c.now()
	next := c.store.Dispatch(state.InventoryLoaded{Epoch: epoch, Rooms: rooms, At: at})
	if next.InventoryEpoch != epoch {
		c.logger.Debug("dropped stale inventory", zap.Uint64("inventory_epoch", epoch), zap.Uint64("current", next.InventoryEpoch))
		return epoch, nil
	}
	if c.cache != nil {
		if err := c.cache.SaveInventory(rooms, at); err != nil {
			c.logger.Warn("save inventory cache failed", zap.Error(err))
		}
	}
	return epoch, nil
}
