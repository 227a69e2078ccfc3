package engine

import (
	"context"

	"cloud.google.com/go/civil"

	"github.com/example/progress/internal/habits"
)

// Batch applies several changes that are committed together. It is only
// valid inside the function passed to Engine.Batch.
type Batch struct {
	e       *Engine
	changed bool
	awards  map[string][]int
}

// Today returns the engine's current date.
func (b *Batch) Today() civil.Date {
	return b.e.Today()
}

// HasHabit reports whether a habit exists.
func (b *Batch) HasHabit(name string) bool {
	_, ok := b.e.habits.Get(name)
	return ok
}

// HasItem reports whether a review item exists.
func (b *Batch) HasItem(id string) bool {
	_, ok := b.e.reviews.Get(id)
	return ok
}

// AddHabit stages a new habit.
func (b *Batch) AddHabit(name string) error {
	if err := b.e.habits.Add(name); err != nil {
		return err
	}
	b.changed = true
	return nil
}

// CheckIn stages a check-in (today when date is zero).
func (b *Batch) CheckIn(name string, date civil.Date) (habits.CheckInResult, error) {
	res, err := b.e.habits.CheckIn(name, b.e.dateOr(date))
	if err != nil {
		return res, err
	}
	if res.Status == habits.Recorded {
		b.changed = true
	}
	if len(res.NewMilestones) > 0 {
		b.awards[name] = append(b.awards[name], res.NewMilestones...)
	}
	return res, nil
}

// AddItem stages a new review item (created today when date is zero).
func (b *Batch) AddItem(id string, created civil.Date) error {
	if err := b.e.reviews.Add(id, b.e.dateOr(created)); err != nil {
		return err
	}
	b.changed = true
	return nil
}

// Batch runs fn and commits everything it staged in one commit. If fn
// returns an error nothing is kept.
func (e *Engine) Batch(ctx context.Context, fn func(b *Batch) error) error {
	b := &Batch{e: e, awards: make(map[string][]int)}
	return e.mutate(ctx, "batch", func() (bool, error) {
		if err := fn(b); err != nil {
			return false, err
		}
		return b.changed, nil
	}, func() {
		for _, name := range e.habits.Names() {
			e.announce(name, b.awards[name])
		}
	})
}
