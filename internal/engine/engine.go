package engine

import (
	"context"
	"slices"
	"sort"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/example/progress/internal/clock"
	"github.com/example/progress/internal/errs"
	"github.com/example/progress/internal/habits"
	sr "github.com/example/progress/internal/spaced_repetition"
	"github.com/example/progress/internal/store"
	"github.com/example/progress/pkg/models"
)

// MilestoneHook is called after a check-in that awarded new milestones has
// been committed.
type MilestoneHook func(habit string, thresholds []int)

// Engine orchestrates the habit ledger and the review scheduler over a Store.
type Engine struct {
	store  store.Store
	clock  clock.Clock
	logger *zap.Logger
	sm     *sr.SM2

	seedThresholds []int
	onMilestone    MilestoneHook

	habits    *habits.Ledger
	reviews   *sr.Scheduler
	committed *models.State
	busy      bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the source of "today". Defaults to the system clock.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithThresholds seeds the milestone thresholds of a store that is still empty.
// Non-positive values are dropped; the rest are sorted and deduplicated.
func WithThresholds(ts []int) Option {
	return func(e *Engine) {
		var clean []int
		for _, t := range ts {
			if t > 0 {
				clean = append(clean, t)
			}
		}
		sort.Ints(clean)
		e.seedThresholds = slices.Compact(clean)
	}
}

// WithSM2 replaces the review rule parameters.
func WithSM2(sm *sr.SM2) Option {
	return func(e *Engine) { e.sm = sm }
}

// WithMilestoneHook registers a callback for newly awarded milestones.
func WithMilestoneHook(h MilestoneHook) Option {
	return func(e *Engine) { e.onMilestone = h }
}

// New creates an engine with empty ledgers. Call Load to rehydrate from st.
func New(st store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  st,
		clock:  clock.NewSystem(),
		logger: zap.NewNop(),
		sm:     sr.NewSM2(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.committed = models.NewState(e.seedThresholds)
	e.reset(e.committed)
	return e
}

// reset rebuilds the ledgers from a state known to be valid.
func (e *Engine) reset(st *models.State) {
	h, r, err := decode(st, e.clock, e.sm)
	if err != nil {
		// st was produced by encode or accepted by decode before.
		panic(err)
	}
	e.habits, e.reviews = h, r
}

// Today returns the engine's current date.
func (e *Engine) Today() civil.Date {
	return e.clock.Today()
}

func (e *Engine) dateOr(d civil.Date) civil.Date {
	if d.IsZero() {
		return e.clock.Today()
	}
	return d
}

// Load replaces the in-memory state with the store's last committed state.
func (e *Engine) Load(ctx context.Context) error {
	if e.busy {
		return errs.New(errs.ReentrantCall, "operation", "load")
	}
	st, err := e.store.Load(ctx)
	if err != nil {
		return err
	}
	if st.IsEmpty() && len(e.seedThresholds) > 0 {
		st.MilestoneThresholds = append([]int(nil), e.seedThresholds...)
	}
	if err := rejectFuture(st, e.clock.Today()); err != nil {
		return err
	}
	h, r, err := decode(st, e.clock, e.sm)
	if err != nil {
		return err
	}
	e.habits, e.reviews = h, r
	e.committed = encode(h, r)
	e.logger.Debug("engine loaded",
		zap.Int("habits", h.Len()),
		zap.Int("reviews", r.Len()))
	return nil
}

// Save commits the current state.
func (e *Engine) Save(ctx context.Context) error {
	return e.mutate(ctx, "save", func() (bool, error) { return true, nil }, nil)
}

// mutate runs fn against the ledgers and commits the result. fn reports
// whether it changed anything; unchanged operations skip the commit. On
// any error the ledgers are restored to the last committed state. after
// runs once the commit has succeeded, still inside the operation.
func (e *Engine) mutate(ctx context.Context, op string, fn func() (bool, error), after func()) error {
	if e.busy {
		return errs.New(errs.ReentrantCall, "operation", op)
	}
	e.busy = true
	defer func() { e.busy = false }()

	changed, err := fn()
	if err != nil {
		e.reset(e.committed)
		return err
	}
	if !changed {
		return nil
	}

	next := encode(e.habits, e.reviews)
	if err := e.store.Commit(ctx, next); err != nil {
		e.reset(e.committed)
		e.logger.Warn("commit failed, rolled back", zap.String("op", op), zap.Error(err))
		return err
	}
	e.committed = next
	e.logger.Debug("operation committed", zap.String("op", op))

	if after != nil {
		after()
	}
	return nil
}

// AddHabit starts tracking a habit.
func (e *Engine) AddHabit(ctx context.Context, name string) error {
	return e.mutate(ctx, "add-habit", func() (bool, error) {
		return true, e.habits.Add(name)
	}, nil)
}

// RemoveHabit deletes a habit and its history.
func (e *Engine) RemoveHabit(ctx context.Context, name string) error {
	return e.mutate(ctx, "remove-habit", func() (bool, error) {
		return true, e.habits.Remove(name)
	}, nil)
}

// CheckIn records a habit as done on date (today when zero). A repeated
// check-in succeeds with status AlreadyRecorded and does not commit.
func (e *Engine) CheckIn(ctx context.Context, name string, date civil.Date) (habits.CheckInResult, error) {
	var res habits.CheckInResult
	err := e.mutate(ctx, "check-in", func() (bool, error) {
		var err error
		res, err = e.habits.CheckIn(name, e.dateOr(date))
		return res.Status == habits.Recorded, err
	}, func() {
		e.announce(name, res.NewMilestones)
	})
	if err != nil {
		return habits.CheckInResult{}, err
	}
	return res, nil
}

func (e *Engine) announce(name string, awarded []int) {
	if len(awarded) == 0 {
		return
	}
	e.logger.Info("milestone awarded", zap.String("habit", name), zap.Ints("thresholds", awarded))
	if e.onMilestone != nil {
		e.onMilestone(name, awarded)
	}
}

// AddItem creates a review item first due the day after created (today when zero).
func (e *Engine) AddItem(ctx context.Context, id string, created civil.Date) error {
	return e.mutate(ctx, "add-item", func() (bool, error) {
		return true, e.reviews.Add(id, e.dateOr(created))
	}, nil)
}

// RemoveItem deletes a review item.
func (e *Engine) RemoveItem(ctx context.Context, id string) error {
	return e.mutate(ctx, "remove-item", func() (bool, error) {
		return true, e.reviews.Remove(id)
	}, nil)
}

// Grade applies a recall quality (0..5) to an item on date (today when zero).
func (e *Engine) Grade(ctx context.Context, id string, quality int, date civil.Date) (sr.Snapshot, error) {
	var snap sr.Snapshot
	err := e.mutate(ctx, "grade", func() (bool, error) {
		var err error
		snap, err = e.reviews.Grade(id, quality, e.dateOr(date))
		return true, err
	}, nil)
	if err != nil {
		return sr.Snapshot{}, err
	}
	return snap, nil
}

// Streak returns a habit's current streak.
func (e *Engine) Streak(name string) (int, error) {
	return e.habits.Streak(name)
}

// Milestones returns the thresholds awarded to a habit.
func (e *Engine) Milestones(name string) ([]int, error) {
	return e.habits.Milestones(name)
}

// Habit returns a snapshot of a habit.
func (e *Engine) Habit(name string) (habits.Snapshot, error) {
	return e.habits.Snapshot(name)
}

// Item returns a snapshot of a review item.
func (e *Engine) Item(id string) (sr.Snapshot, error) {
	return e.reviews.Snapshot(id)
}

// HabitNames returns every habit name, ascending.
func (e *Engine) HabitNames() []string {
	return e.habits.Names()
}

// ItemIDs returns every review item id, ascending.
func (e *Engine) ItemIDs() []string {
	return e.reviews.IDs()
}

// State returns a copy of the last committed state.
func (e *Engine) State() *models.State {
	return e.committed.Clone()
}
