// Package habits tracks daily habits, derives streaks and awards milestones.
package habits

import (
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/example/progress/internal/clock"
	"github.com/example/progress/internal/errs"
)

// Status reports the outcome of a successful check-in.
type Status int

const (
	Recorded Status = iota
	AlreadyRecorded
)

func (s Status) String() string {
	if s == AlreadyRecorded {
		return "already recorded"
	}
	return "recorded"
}

// CheckInResult is returned from Ledger.CheckIn.
type CheckInResult struct {
	Status Status

	// NewMilestones lists thresholds first reached by this check-in, ascending.
	NewMilestones []int

	// Streak is the current streak after the check-in.
	Streak int
}

// Snapshot is a read-only view of a habit.
type Snapshot struct {
	Name          string      `json:"name"`
	LastDate      *civil.Date `json:"last_date"`
	Streak        int         `json:"streak"`
	DaysSinceLast *int        `json:"days_since_last"`
	Milestones    []int       `json:"milestones_awarded"`
	TotalCheckIns int         `json:"total_check_ins"`
	LongestStreak int         `json:"longest_streak"`
}

// Ledger owns every habit. It is not safe for concurrent use.
type Ledger struct {
	clock      clock.Clock
	thresholds []int
	habits     map[string]*Habit
}

// NewLedger creates an empty ledger awarding the given thresholds.
func NewLedger(clk clock.Clock, thresholds []int) *Ledger {
	ts := append([]int(nil), thresholds...)
	sort.Ints(ts)
	return &Ledger{
		clock:      clk,
		thresholds: ts,
		habits:     make(map[string]*Habit),
	}
}

// Thresholds returns the configured milestone thresholds, ascending.
func (l *Ledger) Thresholds() []int {
	return append([]int(nil), l.thresholds...)
}

// Add starts tracking a new habit.
func (l *Ledger) Add(name string) error {
	if strings.TrimSpace(name) == "" {
		return errs.New(errs.InvalidName, "habit", name)
	}
	if _, ok := l.habits[name]; ok {
		return errs.New(errs.DuplicateHabit, "habit", name)
	}
	l.habits[name] = newHabit(name)
	return nil
}

// Remove deletes a habit and all of its history.
func (l *Ledger) Remove(name string) error {
	if _, ok := l.habits[name]; !ok {
		return errs.New(errs.UnknownHabit, "habit", name)
	}
	delete(l.habits, name)
	return nil
}

// CheckIn records that the habit was done on date. A repeated date is not an
// error: the result carries AlreadyRecorded and nothing changes.
func (l *Ledger) CheckIn(name string, date civil.Date) (CheckInResult, error) {
	h, err := l.get(name)
	if err != nil {
		return CheckInResult{}, err
	}
	today := l.clock.Today()
	if date.After(today) {
		return CheckInResult{}, errs.New(errs.FutureDate, "date", date.String())
	}
	if !h.insert(date) {
		return CheckInResult{Status: AlreadyRecorded, Streak: h.streakAsOf(today)}, nil
	}
	return CheckInResult{
		Status:        Recorded,
		NewMilestones: l.award(h),
		Streak:        h.streakAsOf(today),
	}, nil
}

// award grants every threshold reached by the longest streak ever achieved
// that has not been granted before. Milestones are never revoked.
func (l *Ledger) award(h *Habit) []int {
	best := h.longestRun()
	var fresh []int
	for _, t := range l.thresholds {
		if t > best {
			break
		}
		if !h.awarded[t] {
			h.awarded[t] = true
			fresh = append(fresh, t)
		}
	}
	return fresh
}

// Streak returns the current streak of a habit as of today.
func (l *Ledger) Streak(name string) (int, error) {
	h, err := l.get(name)
	if err != nil {
		return 0, err
	}
	return h.streakAsOf(l.clock.Today()), nil
}

// Milestones returns the thresholds awarded to a habit.
func (l *Ledger) Milestones(name string) ([]int, error) {
	h, err := l.get(name)
	if err != nil {
		return nil, err
	}
	return h.Awarded(), nil
}

// Snapshot returns a read-only view of a habit.
func (l *Ledger) Snapshot(name string) (Snapshot, error) {
	h, err := l.get(name)
	if err != nil {
		return Snapshot{}, err
	}
	today := l.clock.Today()
	s := Snapshot{
		Name:          h.Name,
		Streak:        h.streakAsOf(today),
		Milestones:    h.Awarded(),
		TotalCheckIns: len(h.checkIns),
		LongestStreak: h.longestRun(),
	}
	if last, ok := h.LastDate(); ok {
		days := today.DaysSince(last)
		s.LastDate = &last
		s.DaysSinceLast = &days
	}
	return s, nil
}

// Get returns a copy of the habit called name.
func (l *Ledger) Get(name string) (*Habit, bool) {
	h, ok := l.habits[name]
	if !ok {
		return nil, false
	}
	return h.clone(), true
}

// Names returns every habit name in ascending order.
func (l *Ledger) Names() []string {
	names := make([]string, 0, len(l.habits))
	for name := range l.habits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of habits.
func (l *Ledger) Len() int {
	return len(l.habits)
}

// PendingOn returns the habits not yet checked in on d, ascending by name.
func (l *Ledger) PendingOn(d civil.Date) []string {
	var out []string
	for _, name := range l.Names() {
		if !l.habits[name].DoneOn(d) {
			out = append(out, name)
		}
	}
	return out
}

// Restore rehydrates a habit from persisted data. Duplicate dates collapse.
// Milestones outside the configured thresholds are rejected.
func (l *Ledger) Restore(name string, checkIns []civil.Date, awarded []int) error {
	if err := l.Add(name); err != nil {
		return err
	}
	h := l.habits[name]
	for _, d := range checkIns {
		if !d.IsValid() {
			delete(l.habits, name)
			return fmt.Errorf("habit %q: invalid check-in date %v", name, d)
		}
		h.insert(d)
	}
	for _, t := range awarded {
		if !l.isThreshold(t) {
			delete(l.habits, name)
			return fmt.Errorf("habit %q: milestone %d is not a configured threshold", name, t)
		}
		h.awarded[t] = true
	}
	return nil
}

func (l *Ledger) isThreshold(t int) bool {
	i := sort.SearchInts(l.thresholds, t)
	return i < len(l.thresholds) && l.thresholds[i] == t
}

func (l *Ledger) get(name string) (*Habit, error) {
	h, ok := l.habits[name]
	if !ok {
		return nil, errs.New(errs.UnknownHabit, "habit", name)
	}
	return h, nil
}
