package spaced_repetition

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/progress/internal/clock"
	"github.com/example/progress/internal/errs"
)

func d(s string) civil.Date { return clock.MustParse(s) }

func TestReviewFirstSuccessThenLapse(t *testing.T) {
	clk := clock.NewFixed(d("2025-02-01"))
	s := NewScheduler(clk, nil)
	require.NoError(t, s.Add("card1", clk.Today()))

	snap, err := s.Snapshot("card1")
	require.NoError(t, err)
	assert.Equal(t, d("2025-02-02"), snap.DueDate)
	assert.Nil(t, snap.LastReviewed)
	assert.Equal(t, 1, snap.IntervalDays)
	assert.Equal(t, 2.5, snap.Ease)

	clk.Set(d("2025-02-02"))
	snap, err = s.Grade("card1", 4, clk.Today())
	require.NoError(t, err)
	assert.Equal(t, 6, snap.IntervalDays)
	assert.InDelta(t, 2.5, snap.Ease, 1e-9)
	assert.Equal(t, d("2025-02-08"), snap.DueDate)

	clk.Set(d("2025-02-08"))
	snap, err = s.Grade("card1", 2, clk.Today())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.IntervalDays)
	assert.InDelta(t, 2.18, snap.Ease, 1e-9)
	assert.Equal(t, d("2025-02-09"), snap.DueDate)
}

func TestGrade_QualityThreeIsSuccess(t *testing.T) {
	clk := clock.NewFixed(d("2025-02-01"))
	s := NewScheduler(clk, nil)
	require.NoError(t, s.Add("c", d("2025-02-01")))

	snap, err := s.Grade("c", 3, d("2025-02-01"))
	require.NoError(t, err)
	assert.Equal(t, 6, snap.IntervalDays, "first-success branch")
	assert.InDelta(t, 2.36, snap.Ease, 1e-9)
}

func TestGrade_GrowthAfterFirstSuccess(t *testing.T) {
	clk := clock.NewFixed(d("2025-01-01"))
	s := NewScheduler(clk, nil)
	require.NoError(t, s.Add("c", d("2025-01-01")))

	_, err := s.Grade("c", 5, d("2025-01-01"))
	require.NoError(t, err)
	clk.Set(d("2025-01-07"))
	snap, err := s.Grade("c", 5, d("2025-01-07"))
	require.NoError(t, err)
	// ease 2.6 after first, interval ceil(6 × 2.6) = 16, ease then 2.7
	assert.Equal(t, 16, snap.IntervalDays)
	assert.InDelta(t, 2.7, snap.Ease, 1e-9)
	assert.Equal(t, d("2025-01-23"), snap.DueDate)
}

func TestGrade_LapseThenSuccessUsesGrowth(t *testing.T) {
	clk := clock.NewFixed(d("2025-01-01"))
	s := NewScheduler(clk, nil)
	require.NoError(t, s.Add("c", d("2025-01-01")))

	_, err := s.Grade("c", 4, d("2025-01-01"))
	require.NoError(t, err)
	_, err = s.Grade("c", 1, d("2025-01-01"))
	require.NoError(t, err)
	snap, err := s.Grade("c", 4, d("2025-01-01"))
	require.NoError(t, err)
	// history already holds a success, so the interval is ceil(1 × ease)
	assert.Equal(t, 2, snap.IntervalDays)
}

func TestNextEase_Floor(t *testing.T) {
	sm := NewSM2()
	assert.Equal(t, 1.3, sm.NextEase(1.35, QualityBlackout))
	assert.Equal(t, 1.3, sm.NextEase(1.3, QualityIncorrect))
	assert.InDelta(t, 2.6, sm.NextEase(2.5, QualityPerfect), 1e-9)
}

func TestNextInterval_CeilAndCap(t *testing.T) {
	sm := NewSM2()
	assert.Equal(t, 15, sm.NextInterval(6, 2.5, true, QualityPerfect), "exact product is not rounded up")
	assert.Equal(t, 14, sm.NextInterval(6, 2.18, true, QualityPerfect))
	assert.Equal(t, 1, sm.NextInterval(100, 2.5, true, QualityIncorrectFamiliar))

	sm.MaxInterval = 10
	assert.Equal(t, 10, sm.NextInterval(6, 2.5, true, QualityPerfect))

	sm.MaxInterval = 0
	assert.Equal(t, maxIntervalDays, sm.NextInterval(1<<40, 1e12, true, QualityPerfect), "huge products do not overflow")
}

func TestGrade_DueDateStaysWithinCalendar(t *testing.T) {
	clk := clock.NewFixed(d("2025-02-01"))
	s := NewScheduler(clk, nil)
	require.NoError(t, s.Add("c", d("2025-01-31")))

	var snap Snapshot
	for i := 0; i < 20; i++ {
		var err error
		snap, err = s.Grade("c", 5, clk.Today())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, snap.IntervalDays, 1)
		assert.False(t, snap.DueDate.After(LastDate), "grade %d: due %s", i+1, snap.DueDate)
	}
	assert.Equal(t, LastDate, snap.DueDate)

	parsed, err := civil.ParseDate(snap.DueDate.String())
	require.NoError(t, err)
	assert.Equal(t, snap.DueDate, parsed)

	it, _ := s.Get("c")
	restored := NewScheduler(clk, nil)
	require.NoError(t, restored.Restore(*it))
}

func TestGrade_Validation(t *testing.T) {
	clk := clock.NewFixed(d("2025-02-05"))
	s := NewScheduler(clk, nil)
	require.NoError(t, s.Add("c", d("2025-02-01")))

	_, err := s.Grade("c", 6, clk.Today())
	assert.True(t, errs.Is(err, errs.InvalidQuality))
	_, err = s.Grade("c", -1, clk.Today())
	assert.True(t, errs.Is(err, errs.InvalidQuality))
	_, err = s.Grade("c", 4, d("2025-02-06"))
	assert.True(t, errs.Is(err, errs.FutureDate))
	_, err = s.Grade("x", 4, clk.Today())
	assert.True(t, errs.Is(err, errs.UnknownItem))

	_, err = s.Grade("c", 4, d("2025-02-04"))
	require.NoError(t, err)
	_, err = s.Grade("c", 4, d("2025-02-03"))
	assert.True(t, errs.Is(err, errs.OutOfOrderDate))

	it, _ := s.Get("c")
	assert.Len(t, it.History, 1, "rejected grades leave history untouched")
}

func TestAddRemove(t *testing.T) {
	clk := clock.NewFixed(d("2025-02-01"))
	s := NewScheduler(clk, nil)
	require.NoError(t, s.Add("a", clk.Today()))
	assert.True(t, errs.Is(s.Add("a", clk.Today()), errs.DuplicateItem))
	assert.True(t, errs.Is(s.Add("", clk.Today()), errs.InvalidName))
	assert.True(t, errs.Is(s.Add("b", d("2025-02-02")), errs.FutureDate))

	require.NoError(t, s.Remove("a"))
	assert.True(t, errs.Is(s.Remove("a"), errs.UnknownItem))
	assert.Equal(t, 0, s.Len())
}

func TestDue_OrderedByDateThenID(t *testing.T) {
	clk := clock.NewFixed(d("2025-03-10"))
	s := NewScheduler(clk, nil)
	require.NoError(t, s.Add("zeta", d("2025-03-01")))
	require.NoError(t, s.Add("alpha", d("2025-03-05")))
	require.NoError(t, s.Add("beta", d("2025-03-01")))
	require.NoError(t, s.Add("late", d("2025-03-10")))

	assert.Equal(t, []string{"beta", "zeta", "alpha"}, s.Due(d("2025-03-10")))
	assert.Equal(t, []string{"beta", "zeta"}, s.Due(d("2025-03-02")))
	assert.Empty(t, s.Due(d("2025-03-01")))
	assert.Equal(t, []string{"alpha", "beta", "late", "zeta"}, s.IDs())
}

func TestGrade_Deterministic(t *testing.T) {
	run := func() Snapshot {
		clk := clock.NewFixed(d("2025-04-01"))
		s := NewScheduler(clk, nil)
		require.NoError(t, s.Add("c", d("2025-04-01")))
		var snap Snapshot
		for _, q := range []int{5, 3, 0, 4, 4} {
			var err error
			snap, err = s.Grade("c", q, d("2025-04-01"))
			require.NoError(t, err)
		}
		return snap
	}
	assert.Equal(t, run(), run())
}

func TestGrade_Invariants(t *testing.T) {
	clk := clock.NewFixed(d("2025-01-01"))
	s := NewScheduler(clk, nil)
	require.NoError(t, s.Add("c", d("2025-01-01")))
	for i, q := range []int{0, 5, 5, 1, 0, 0, 0, 3, 5, 2} {
		day := d("2025-01-01").AddDays(i)
		clk.Set(day)
		snap, err := s.Grade("c", q, day)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, snap.IntervalDays, 1)
		assert.GreaterOrEqual(t, snap.Ease, 1.3)
		require.NotNil(t, snap.LastReviewed)
		assert.Equal(t, snap.LastReviewed.AddDays(snap.IntervalDays), snap.DueDate)
	}
}

func TestIsMastered(t *testing.T) {
	sm := NewSM2()
	item := &Item{IntervalDays: 40}
	for i := 0; i < 5; i++ {
		item.History = append(item.History, Review{Date: d("2025-01-01").AddDays(i), Quality: QualityPerfect})
	}
	assert.True(t, sm.IsMastered(item))

	item.IntervalDays = 20
	assert.False(t, sm.IsMastered(item))

	item.IntervalDays = 40
	item.History[4].Quality = QualityCorrectDifficult
	assert.False(t, sm.IsMastered(item))

	assert.False(t, sm.IsMastered(&Item{IntervalDays: 100}))
}

func TestRestore_Validation(t *testing.T) {
	s := NewScheduler(clock.NewFixed(d("2025-01-10")), nil)
	last := d("2025-01-02")

	good := Item{ID: "ok", IntervalDays: 6, Ease: 2.5, LastReviewed: &last, DueDate: d("2025-01-08"),
		History: []Review{{Date: last, Quality: 4}}}
	require.NoError(t, s.Restore(good))

	tests := []struct {
		name string
		item Item
	}{
		{"interval", Item{ID: "a", IntervalDays: 0, Ease: 2.5}},
		{"ease", Item{ID: "b", IntervalDays: 1, Ease: 1.2}},
		{"due", Item{ID: "c", IntervalDays: 6, Ease: 2.5, LastReviewed: &last, DueDate: d("2025-01-09")}},
		{"quality", Item{ID: "d", IntervalDays: 1, Ease: 2.5, History: []Review{{Date: last, Quality: 9}}}},
		{"past calendar", Item{ID: "f", IntervalDays: 1, Ease: 2.5, DueDate: civil.Date{Year: 10000, Month: 1, Day: 1}}},
		{"order", Item{ID: "e", IntervalDays: 1, Ease: 2.5, History: []Review{{Date: last, Quality: 3}, {Date: d("2025-01-01"), Quality: 3}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, s.Restore(tt.item))
		})
	}
	assert.True(t, errs.Is(s.Restore(good), errs.DuplicateItem))
}
