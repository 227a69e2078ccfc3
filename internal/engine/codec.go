package engine

import (
	"fmt"
	"strconv"

	"cloud.google.com/go/civil"

	"github.com/example/progress/internal/clock"
	"github.com/example/progress/internal/errs"
	"github.com/example/progress/internal/habits"
	sr "github.com/example/progress/internal/spaced_repetition"
	"github.com/example/progress/pkg/models"
)

// encode translates the ledgers into the persisted document.
func encode(h *habits.Ledger, r *sr.Scheduler) *models.State {
	st := models.NewState(h.Thresholds())
	for _, name := range h.Names() {
		habit, _ := h.Get(name)
		checkIns := habit.CheckIns()
		if checkIns == nil {
			checkIns = []civil.Date{}
		}
		st.Habits[name] = models.HabitRecord{
			CheckIns:          checkIns,
			MilestonesAwarded: habit.Awarded(),
		}
	}
	for _, id := range r.IDs() {
		it, _ := r.Get(id)
		rec := models.ReviewRecord{
			IntervalDays: it.IntervalDays,
			Ease:         it.Ease,
			LastReviewed: it.LastReviewed,
			DueDate:      it.DueDate,
			History:      make([]models.HistoryEntry, len(it.History)),
		}
		for i, rv := range it.History {
			rec.History[i] = models.HistoryEntry{Date: rv.Date, Quality: int(rv.Quality)}
		}
		st.Reviews[id] = rec
	}
	return st
}

// decode rebuilds the ledgers from a persisted document. Any violated
// invariant is reported as errs.CorruptStore.
func decode(st *models.State, clk clock.Clock, sm *sr.SM2) (*habits.Ledger, *sr.Scheduler, error) {
	if err := st.Validate(); err != nil {
		return nil, nil, errs.Wrap(errs.CorruptStore, "schema_version", strconv.Itoa(st.SchemaVersion), err)
	}
	h := habits.NewLedger(clk, st.MilestoneThresholds)
	for name, rec := range st.Habits {
		if err := h.Restore(name, rec.CheckIns, rec.MilestonesAwarded); err != nil {
			return nil, nil, errs.Wrap(errs.CorruptStore, "habit", name, err)
		}
	}
	r := sr.NewScheduler(clk, sm)
	for id, rec := range st.Reviews {
		it := sr.Item{
			ID:           id,
			IntervalDays: rec.IntervalDays,
			Ease:         rec.Ease,
			LastReviewed: rec.LastReviewed,
			DueDate:      rec.DueDate,
			History:      make([]sr.Review, len(rec.History)),
		}
		for i, e := range rec.History {
			it.History[i] = sr.Review{Date: e.Date, Quality: sr.QualityResponse(e.Quality)}
		}
		if err := r.Restore(it); err != nil {
			return nil, nil, errs.Wrap(errs.CorruptStore, "item", id, err)
		}
	}
	return h, r, nil
}

// rejectFuture reports check-ins and reviews dated after today as corrupt.
// They can only come from a session run with a later clock.
func rejectFuture(st *models.State, today civil.Date) error {
	for name, rec := range st.Habits {
		for _, d := range rec.CheckIns {
			if d.After(today) {
				return errs.Wrap(errs.CorruptStore, "habit", name, fmt.Errorf("check-in %s is after today %s", d, today))
			}
		}
	}
	for id, rec := range st.Reviews {
		for _, e := range rec.History {
			if e.Date.After(today) {
				return errs.Wrap(errs.CorruptStore, "item", id, fmt.Errorf("review %s is after today %s", e.Date, today))
			}
		}
	}
	return nil
}
