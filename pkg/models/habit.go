package models

import "cloud.google.com/go/civil"

// HabitRecord is the persisted form of a habit.
type HabitRecord struct {
	CheckIns          []civil.Date `json:"check_ins"`
	MilestonesAwarded []int        `json:"milestones_awarded"`
}

func (h HabitRecord) clone() HabitRecord {
	return HabitRecord{
		CheckIns:          append([]civil.Date(nil), h.CheckIns...),
		MilestonesAwarded: append([]int(nil), h.MilestonesAwarded...),
	}
}
