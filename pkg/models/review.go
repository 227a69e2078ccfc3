package models

import (
	"encoding/json"
	"fmt"

	"cloud.google.com/go/civil"
)

// ReviewRecord is the persisted form of a spaced-repetition item.
type ReviewRecord struct {
	IntervalDays int            `json:"interval_days"`
	Ease         float64        `json:"ease"`
	LastReviewed *civil.Date    `json:"last_reviewed"`
	DueDate      civil.Date     `json:"due_date"`
	History      []HistoryEntry `json:"history"`
}

func (r ReviewRecord) clone() ReviewRecord {
	out := r
	if r.LastReviewed != nil {
		d := *r.LastReviewed
		out.LastReviewed = &d
	}
	out.History = append([]HistoryEntry(nil), r.History...)
	return out
}

// HistoryEntry is a single graded review. It is encoded as a two element
// JSON array: ["2025-02-02", 4].
type HistoryEntry struct {
	Date    civil.Date
	Quality int
}

// MarshalJSON implements json.Marshaler.
func (e HistoryEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{e.Date.String(), e.Quality})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *HistoryEntry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("history entry: want [date, quality], got %d elements", len(raw))
	}
	if err := json.Unmarshal(raw[0], &e.Date); err != nil {
		return fmt.Errorf("history entry date: %w", err)
	}
	if err := json.Unmarshal(raw[1], &e.Quality); err != nil {
		return fmt.Errorf("history entry quality: %w", err)
	}
	return nil
}
