// Package spaced_repetition schedules review items with the SM-2 rule.
package spaced_repetition

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/example/progress/internal/clock"
	"github.com/example/progress/internal/errs"
)

// LastDate is the latest date a due date may fall on. Later dates do not
// survive the YYYY-MM-DD encoding.
var LastDate = civil.Date{Year: 9999, Month: time.December, Day: 31}

// Review is one graded recall.
type Review struct {
	Date    civil.Date
	Quality QualityResponse
}

// Item is a review item and its schedule.
type Item struct {
	ID           string
	IntervalDays int
	Ease         float64
	LastReviewed *civil.Date
	DueDate      civil.Date
	History      []Review
}

func (it *Item) clone() *Item {
	out := *it
	if it.LastReviewed != nil {
		d := *it.LastReviewed
		out.LastReviewed = &d
	}
	out.History = append([]Review(nil), it.History...)
	return &out
}

// Snapshot is a read-only view of an item.
type Snapshot struct {
	ID           string      `json:"id"`
	IntervalDays int         `json:"interval_days"`
	Ease         float64     `json:"ease"`
	LastReviewed *civil.Date `json:"last_reviewed"`
	DueDate      civil.Date  `json:"due_date"`
	Reviews      int         `json:"reviews"`
}

func (it *Item) snapshot() Snapshot {
	s := Snapshot{
		ID:           it.ID,
		IntervalDays: it.IntervalDays,
		Ease:         it.Ease,
		DueDate:      it.DueDate,
		Reviews:      len(it.History),
	}
	if it.LastReviewed != nil {
		d := *it.LastReviewed
		s.LastReviewed = &d
	}
	return s
}

// Scheduler owns every review item. It is not safe for concurrent use.
type Scheduler struct {
	clock clock.Clock
	sm    *SM2
	items map[string]*Item
}

// NewScheduler creates an empty scheduler using rule sm (NewSM2 when nil).
func NewScheduler(clk clock.Clock, sm *SM2) *Scheduler {
	if sm == nil {
		sm = NewSM2()
	}
	return &Scheduler{clock: clk, sm: sm, items: make(map[string]*Item)}
}

// Rule returns the SM-2 parameters in use.
func (s *Scheduler) Rule() *SM2 {
	return s.sm
}

// Add creates an item first due the day after created.
func (s *Scheduler) Add(id string, created civil.Date) error {
	if strings.TrimSpace(id) == "" {
		return errs.New(errs.InvalidName, "item", id)
	}
	if _, ok := s.items[id]; ok {
		return errs.New(errs.DuplicateItem, "item", id)
	}
	if created.After(s.clock.Today()) {
		return errs.New(errs.FutureDate, "date", created.String())
	}
	s.items[id] = &Item{
		ID:           id,
		IntervalDays: 1,
		Ease:         s.sm.InitialEase,
		DueDate:      created.AddDays(1),
	}
	return nil
}

// Remove deletes an item.
func (s *Scheduler) Remove(id string) error {
	if _, ok := s.items[id]; !ok {
		return errs.New(errs.UnknownItem, "item", id)
	}
	delete(s.items, id)
	return nil
}

// Due returns the ids of items due on or before on, ordered by due date then id.
func (s *Scheduler) Due(on civil.Date) []string {
	var due []*Item
	for _, it := range s.items {
		if !it.DueDate.After(on) {
			due = append(due, it)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].DueDate != due[j].DueDate {
			return due[i].DueDate.Before(due[j].DueDate)
		}
		return due[i].ID < due[j].ID
	})
	ids := make([]string, len(due))
	for i, it := range due {
		ids[i] = it.ID
	}
	return ids
}

// Grade applies a recall quality to an item on date.
func (s *Scheduler) Grade(id string, quality int, date civil.Date) (Snapshot, error) {
	it, ok := s.items[id]
	if !ok {
		return Snapshot{}, errs.New(errs.UnknownItem, "item", id)
	}
	q := QualityResponse(quality)
	if !q.Valid() {
		return Snapshot{}, errs.New(errs.InvalidQuality, "quality", strconv.Itoa(quality))
	}
	if date.After(s.clock.Today()) {
		return Snapshot{}, errs.New(errs.FutureDate, "date", date.String())
	}
	if n := len(it.History); n > 0 && date.Before(it.History[n-1].Date) {
		return Snapshot{}, errs.New(errs.OutOfOrderDate, "date", date.String())
	}

	hadSuccess := false
	for _, r := range it.History {
		if s.sm.Passed(r.Quality) {
			hadSuccess = true
			break
		}
	}

	interval := s.sm.NextInterval(it.IntervalDays, it.Ease, hadSuccess, q)
	if limit := LastDate.DaysSince(date); interval > limit && limit >= 1 {
		interval = limit
	}
	it.IntervalDays = interval
	it.Ease = s.sm.NextEase(it.Ease, q)
	reviewed := date
	it.LastReviewed = &reviewed
	it.DueDate = date.AddDays(it.IntervalDays)
	it.History = append(it.History, Review{Date: date, Quality: q})
	return it.snapshot(), nil
}

// Snapshot returns a read-only view of an item.
func (s *Scheduler) Snapshot(id string) (Snapshot, error) {
	it, ok := s.items[id]
	if !ok {
		return Snapshot{}, errs.New(errs.UnknownItem, "item", id)
	}
	return it.snapshot(), nil
}

// Get returns a copy of the item with the given id.
func (s *Scheduler) Get(id string) (*Item, bool) {
	it, ok := s.items[id]
	if !ok {
		return nil, false
	}
	return it.clone(), true
}

// IDs returns every item id in ascending order.
func (s *Scheduler) IDs() []string {
	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of items.
func (s *Scheduler) Len() int {
	return len(s.items)
}

// Restore rehydrates an item from persisted data after checking its invariants.
func (s *Scheduler) Restore(it Item) error {
	if strings.TrimSpace(it.ID) == "" {
		return errs.New(errs.InvalidName, "item", it.ID)
	}
	if _, ok := s.items[it.ID]; ok {
		return errs.New(errs.DuplicateItem, "item", it.ID)
	}
	if it.IntervalDays < 1 {
		return fmt.Errorf("item %q: interval %d < 1", it.ID, it.IntervalDays)
	}
	if it.Ease < s.sm.MinEase {
		return fmt.Errorf("item %q: ease %v below %v", it.ID, it.Ease, s.sm.MinEase)
	}
	if it.LastReviewed != nil && it.LastReviewed.AddDays(it.IntervalDays) != it.DueDate {
		return fmt.Errorf("item %q: due %s != last reviewed %s + %d", it.ID, it.DueDate, it.LastReviewed, it.IntervalDays)
	}
	if it.DueDate.After(LastDate) {
		return fmt.Errorf("item %q: due %s is past %s", it.ID, it.DueDate, LastDate)
	}
	for i, r := range it.History {
		if !r.Quality.Valid() {
			return fmt.Errorf("item %q: history quality %d out of range", it.ID, r.Quality)
		}
		if i > 0 && r.Date.Before(it.History[i-1].Date) {
			return fmt.Errorf("item %q: history not sorted at %s", it.ID, r.Date)
		}
	}
	cp := it
	s.items[it.ID] = cp.clone()
	return nil
}
