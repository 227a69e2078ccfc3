package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"cloud.google.com/go/civil"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/example/progress/internal/errs"
	"github.com/example/progress/pkg/models"
)

type metaRow struct {
	SchemaVersion       int    `db:"schema_version"`
	MilestoneThresholds string `db:"milestone_thresholds"`
}

type dayRow struct {
	Habit string `db:"habit"`
	Day   string `db:"day"`
}

type milestoneRow struct {
	Habit     string `db:"habit"`
	Threshold int    `db:"threshold"`
}

type reviewRow struct {
	ID           string         `db:"id"`
	IntervalDays int            `db:"interval_days"`
	Ease         float64        `db:"ease"`
	LastReviewed sql.NullString `db:"last_reviewed"`
	DueDate      string         `db:"due_date"`
}

type historyRow struct {
	Item    string `db:"item"`
	Seq     int    `db:"seq"`
	Day     string `db:"day"`
	Quality int    `db:"quality"`
}

// Load implements store.Store.
func (s *Store) Load(ctx context.Context) (*models.State, error) {
	st, err := s.load(ctx)
	var e *errs.Error
	if err != nil && !errors.As(err, &e) {
		return nil, errs.Wrap(errs.StoreIO, "dsn", s.dsn, err)
	}
	return st, err
}

func (s *Store) load(ctx context.Context) (*models.State, error) {
	var meta metaRow
	err := s.db.GetContext(ctx, &meta, "SELECT schema_version, milestone_thresholds FROM meta WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewState(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meta: %w", err)
	}

	st := models.NewState(nil)
	st.SchemaVersion = meta.SchemaVersion
	if err := json.Unmarshal([]byte(meta.MilestoneThresholds), &st.MilestoneThresholds); err != nil {
		return nil, s.corrupt(fmt.Errorf("milestone thresholds: %w", err))
	}
	if err := st.Validate(); err != nil {
		return nil, s.corrupt(err)
	}

	var names []string
	if err := s.db.SelectContext(ctx, &names, "SELECT name FROM habits ORDER BY name"); err != nil {
		return nil, fmt.Errorf("failed to get habits: %w", err)
	}
	for _, name := range names {
		st.Habits[name] = models.HabitRecord{}
	}

	var days []dayRow
	if err := s.db.SelectContext(ctx, &days, "SELECT habit, day FROM check_ins ORDER BY habit, day"); err != nil {
		return nil, fmt.Errorf("failed to get check-ins: %w", err)
	}
	for _, r := range days {
		d, err := civil.ParseDate(r.Day)
		if err != nil {
			return nil, s.corrupt(fmt.Errorf("check-in for %q: %w", r.Habit, err))
		}
		h := st.Habits[r.Habit]
		h.CheckIns = append(h.CheckIns, d)
		st.Habits[r.Habit] = h
	}

	var ms []milestoneRow
	if err := s.db.SelectContext(ctx, &ms, "SELECT habit, threshold FROM milestones ORDER BY habit, threshold"); err != nil {
		return nil, fmt.Errorf("failed to get milestones: %w", err)
	}
	for _, r := range ms {
		h := st.Habits[r.Habit]
		h.MilestonesAwarded = append(h.MilestonesAwarded, r.Threshold)
		st.Habits[r.Habit] = h
	}

	var reviews []reviewRow
	if err := s.db.SelectContext(ctx, &reviews,
		"SELECT id, interval_days, ease, last_reviewed, due_date FROM reviews ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}
	for _, r := range reviews {
		rec := models.ReviewRecord{IntervalDays: r.IntervalDays, Ease: r.Ease}
		if rec.DueDate, err = civil.ParseDate(r.DueDate); err != nil {
			return nil, s.corrupt(fmt.Errorf("due date of %q: %w", r.ID, err))
		}
		if r.LastReviewed.Valid {
			last, err := civil.ParseDate(r.LastReviewed.String)
			if err != nil {
				return nil, s.corrupt(fmt.Errorf("last reviewed of %q: %w", r.ID, err))
			}
			rec.LastReviewed = &last
		}
		st.Reviews[r.ID] = rec
	}

	var history []historyRow
	if err := s.db.SelectContext(ctx, &history,
		"SELECT item, seq, day, quality FROM review_history ORDER BY item, seq"); err != nil {
		return nil, fmt.Errorf("failed to get review history: %w", err)
	}
	for _, r := range history {
		d, err := civil.ParseDate(r.Day)
		if err != nil {
			return nil, s.corrupt(fmt.Errorf("history of %q: %w", r.Item, err))
		}
		rec := st.Reviews[r.Item]
		rec.History = append(rec.History, models.HistoryEntry{Date: d, Quality: r.Quality})
		st.Reviews[r.Item] = rec
	}

	s.logger.Debug("state loaded",
		zap.String("driver", s.driver),
		zap.Int("habits", len(st.Habits)),
		zap.Int("reviews", len(st.Reviews)))
	return st, nil
}

func (s *Store) corrupt(err error) error {
	return errs.Wrap(errs.CorruptStore, "dsn", s.dsn, err)
}

// Commit implements store.Store. The previous state is replaced inside a
// single transaction, so a failed commit leaves it intact.
func (s *Store) Commit(ctx context.Context, st *models.State) error {
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		for _, table := range []string{"review_history", "reviews", "milestones", "check_ins", "habits", "meta"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		thresholds, err := json.Marshal(st.MilestoneThresholds)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(
			"INSERT INTO meta (id, schema_version, milestone_thresholds) VALUES (1, ?, ?)"),
			st.SchemaVersion, string(thresholds)); err != nil {
			return fmt.Errorf("failed to write meta: %w", err)
		}

		for _, name := range sortedKeys(st.Habits) {
			h := st.Habits[name]
			if _, err := tx.ExecContext(ctx, tx.Rebind("INSERT INTO habits (name) VALUES (?)"), name); err != nil {
				return fmt.Errorf("failed to create habit: %w", err)
			}
			for _, d := range h.CheckIns {
				if _, err := tx.ExecContext(ctx, tx.Rebind(
					"INSERT INTO check_ins (habit, day) VALUES (?, ?)"), name, d.String()); err != nil {
					return fmt.Errorf("failed to create check-in: %w", err)
				}
			}
			for _, t := range h.MilestonesAwarded {
				if _, err := tx.ExecContext(ctx, tx.Rebind(
					"INSERT INTO milestones (habit, threshold) VALUES (?, ?)"), name, t); err != nil {
					return fmt.Errorf("failed to create milestone: %w", err)
				}
			}
		}

		for _, id := range sortedKeys(st.Reviews) {
			r := st.Reviews[id]
			var last sql.NullString
			if r.LastReviewed != nil {
				last = sql.NullString{String: r.LastReviewed.String(), Valid: true}
			}
			if _, err := tx.ExecContext(ctx, tx.Rebind(`
				INSERT INTO reviews (id, interval_days, ease, last_reviewed, due_date)
				VALUES (?, ?, ?, ?, ?)`),
				id, r.IntervalDays, r.Ease, last, r.DueDate.String()); err != nil {
				return fmt.Errorf("failed to create review: %w", err)
			}
			for seq, e := range r.History {
				if _, err := tx.ExecContext(ctx, tx.Rebind(
					"INSERT INTO review_history (item, seq, day, quality) VALUES (?, ?, ?, ?)"),
					id, seq, e.Date.String(), e.Quality); err != nil {
					return fmt.Errorf("failed to create review history: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return errs.Wrap(errs.StoreIO, "dsn", s.dsn, err)
	}
	s.logger.Debug("state committed",
		zap.String("driver", s.driver),
		zap.Int("habits", len(st.Habits)),
		zap.Int("reviews", len(st.Reviews)))
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
