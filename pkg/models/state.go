package models

import "fmt"

// SchemaVersion is the only persisted layout this build understands.
const SchemaVersion = 1

// DefaultMilestones are the streak thresholds used when a new state is created.
var DefaultMilestones = []int{3, 7, 30}

// State is the persisted document: every habit and review item plus the
// milestone thresholds they are measured against.
type State struct {
	SchemaVersion       int                     `json:"schema_version"`
	Habits              map[string]HabitRecord  `json:"habits"`
	Reviews             map[string]ReviewRecord `json:"reviews"`
	MilestoneThresholds []int                   `json:"milestone_thresholds"`
}

// NewState returns an empty state at the current schema version.
func NewState(thresholds []int) *State {
	if len(thresholds) == 0 {
		thresholds = DefaultMilestones
	}
	return &State{
		SchemaVersion:       SchemaVersion,
		Habits:              make(map[string]HabitRecord),
		Reviews:             make(map[string]ReviewRecord),
		MilestoneThresholds: append([]int(nil), thresholds...),
	}
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := &State{
		SchemaVersion:       s.SchemaVersion,
		Habits:              make(map[string]HabitRecord, len(s.Habits)),
		Reviews:             make(map[string]ReviewRecord, len(s.Reviews)),
		MilestoneThresholds: append([]int(nil), s.MilestoneThresholds...),
	}
	for name, h := range s.Habits {
		out.Habits[name] = h.clone()
	}
	for id, r := range s.Reviews {
		out.Reviews[id] = r.clone()
	}
	return out
}

// IsEmpty reports whether the state tracks nothing.
func (s *State) IsEmpty() bool {
	return s == nil || (len(s.Habits) == 0 && len(s.Reviews) == 0)
}

// Validate checks the document-level constraints: a known schema version and
// positive, strictly ascending milestone thresholds. Record-level invariants
// are checked when the ledgers are rehydrated.
func (s *State) Validate() error {
	if s.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported schema version %d (want %d)", s.SchemaVersion, SchemaVersion)
	}
	for i, t := range s.MilestoneThresholds {
		if t <= 0 {
			return fmt.Errorf("milestone threshold %d is not positive", t)
		}
		if i > 0 && t <= s.MilestoneThresholds[i-1] {
			return fmt.Errorf("milestone thresholds not ascending at %d", t)
		}
	}
	return nil
}
