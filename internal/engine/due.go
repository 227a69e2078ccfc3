package engine

import (
	"cloud.google.com/go/civil"
)

// Due is what still needs doing on a date.
type Due struct {
	Date    civil.Date `json:"date"`
	Habits  []string   `json:"habits"`
	Reviews []string   `json:"reviews"`
}

// Empty reports whether nothing is due.
func (d Due) Empty() bool {
	return len(d.Habits) == 0 && len(d.Reviews) == 0
}

// ListDue returns the habits not yet checked in on on (today when zero) and
// the review items due on or before it.
func (e *Engine) ListDue(on civil.Date) Due {
	on = e.dateOr(on)
	due := Due{
		Date:    on,
		Habits:  e.habits.PendingOn(on),
		Reviews: e.reviews.Due(on),
	}
	if due.Habits == nil {
		due.Habits = []string{}
	}
	if due.Reviews == nil {
		due.Reviews = []string{}
	}
	return due
}

// Summary is an aggregate view for front-ends.
type Summary struct {
	Date              civil.Date `json:"date"`
	Habits            int        `json:"habits"`
	Reviews           int        `json:"reviews"`
	DoneToday         int        `json:"done_today"`
	HabitsDue         int        `json:"habits_due"`
	ReviewsDue        int        `json:"reviews_due"`
	TotalCheckIns     int        `json:"total_check_ins"`
	BestStreak        int        `json:"best_streak"`
	BestStreakHabit   string     `json:"best_streak_habit,omitempty"`
	MilestonesAwarded int        `json:"milestones_awarded"`
	Mastered          int        `json:"mastered"`
	AverageEase       float64    `json:"average_ease"`
}

// Summary computes counts and top-line metrics as of today.
func (e *Engine) Summary() Summary {
	today := e.clock.Today()
	due := e.ListDue(today)
	s := Summary{
		Date:       today,
		Habits:     e.habits.Len(),
		Reviews:    e.reviews.Len(),
		HabitsDue:  len(due.Habits),
		ReviewsDue: len(due.Reviews),
	}
	s.DoneToday = s.Habits - s.HabitsDue

	for _, name := range e.habits.Names() {
		snap, _ := e.habits.Snapshot(name)
		s.TotalCheckIns += snap.TotalCheckIns
		s.MilestonesAwarded += len(snap.Milestones)
		// Names are ascending, so ties keep the first name.
		if snap.Streak > s.BestStreak {
			s.BestStreak = snap.Streak
			s.BestStreakHabit = name
		}
	}

	var easeSum float64
	for _, id := range e.reviews.IDs() {
		it, _ := e.reviews.Get(id)
		easeSum += it.Ease
		if e.sm.IsMastered(it) {
			s.Mastered++
		}
	}
	if s.Reviews > 0 {
		s.AverageEase = easeSum / float64(s.Reviews)
	}
	return s
}
