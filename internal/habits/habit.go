package habits

import (
	"sort"

	"cloud.google.com/go/civil"
)

// Habit is a tracked daily habit: a set of check-in dates plus the
// milestones it has earned. Check-ins are kept sorted and unique.
type Habit struct {
	Name     string
	checkIns []civil.Date
	awarded  map[int]bool
}

func newHabit(name string) *Habit {
	return &Habit{Name: name, awarded: make(map[int]bool)}
}

func (h *Habit) clone() *Habit {
	out := &Habit{
		Name:     h.Name,
		checkIns: append([]civil.Date(nil), h.checkIns...),
		awarded:  make(map[int]bool, len(h.awarded)),
	}
	for t := range h.awarded {
		out.awarded[t] = true
	}
	return out
}

// CheckIns returns a sorted copy of the check-in dates.
func (h *Habit) CheckIns() []civil.Date {
	return append([]civil.Date(nil), h.checkIns...)
}

// Awarded returns the awarded milestones in ascending order.
func (h *Habit) Awarded() []int {
	out := make([]int, 0, len(h.awarded))
	for t := range h.awarded {
		out = append(out, t)
	}
	sort.Ints(out)
	return out
}

// LastDate returns the most recent check-in.
func (h *Habit) LastDate() (civil.Date, bool) {
	if len(h.checkIns) == 0 {
		return civil.Date{}, false
	}
	return h.checkIns[len(h.checkIns)-1], true
}

// DoneOn reports whether the habit was checked in on d.
func (h *Habit) DoneOn(d civil.Date) bool {
	i := h.search(d)
	return i < len(h.checkIns) && h.checkIns[i] == d
}

func (h *Habit) search(d civil.Date) int {
	return sort.Search(len(h.checkIns), func(i int) bool {
		return !h.checkIns[i].Before(d)
	})
}

// insert adds d keeping order. It returns false if d was already present.
func (h *Habit) insert(d civil.Date) bool {
	i := h.search(d)
	if i < len(h.checkIns) && h.checkIns[i] == d {
		return false
	}
	h.checkIns = append(h.checkIns, civil.Date{})
	copy(h.checkIns[i+1:], h.checkIns[i:])
	h.checkIns[i] = d
	return true
}

// runEndingAt counts consecutive check-ins ending at the check-in with index i.
func (h *Habit) runEndingAt(i int) int {
	n := 1
	for ; i > 0; i-- {
		if h.checkIns[i].DaysSince(h.checkIns[i-1]) != 1 {
			break
		}
		n++
	}
	return n
}

// streakAsOf is the current streak relative to today: the run ending at the
// last check-in, or 0 once a full day has been missed.
func (h *Habit) streakAsOf(today civil.Date) int {
	last, ok := h.LastDate()
	if !ok || today.DaysSince(last) > 1 {
		return 0
	}
	return h.runEndingAt(len(h.checkIns) - 1)
}

// longestRun is the longest streak ever achieved.
func (h *Habit) longestRun() int {
	best, run := 0, 0
	for i := range h.checkIns {
		if i > 0 && h.checkIns[i].DaysSince(h.checkIns[i-1]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}
