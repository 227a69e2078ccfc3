package excel

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/xuri/excelize/v2"

	"github.com/example/progress/internal/engine"
)

// Sheet names written by Export.
const (
	HabitsSheet  = "Habits"
	ReviewsSheet = "Reviews"
)

var (
	habitsHeader  = []interface{}{"Name", "Streak", "Longest streak", "Check-ins", "Last check-in", "Milestones"}
	reviewsHeader = []interface{}{"ID", "Interval (days)", "Ease", "Last reviewed", "Due", "Reviews"}
)

// ExportResult counts what was written.
type ExportResult struct {
	Habits  int `json:"habits"`
	Reviews int `json:"reviews"`
}

// Export writes a snapshot of every habit and review item to an .xlsx file.
func Export(eng *engine.Engine, path string) (*ExportResult, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", HabitsSheet)
	f.NewSheet(ReviewsSheet)

	result := &ExportResult{}
	if err := f.SetSheetRow(HabitsSheet, "A1", &habitsHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for i, name := range eng.HabitNames() {
		snap, err := eng.Habit(name)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			snap.Name,
			snap.Streak,
			snap.LongestStreak,
			snap.TotalCheckIns,
			dateCell(snap.LastDate),
			joinInts(snap.Milestones),
		}
		if err := writeRow(f, HabitsSheet, i+2, row); err != nil {
			return nil, err
		}
		result.Habits++
	}

	if err := f.SetSheetRow(ReviewsSheet, "A1", &reviewsHeader); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	for i, id := range eng.ItemIDs() {
		snap, err := eng.Item(id)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			snap.ID,
			snap.IntervalDays,
			snap.Ease,
			dateCell(snap.LastReviewed),
			snap.DueDate.String(),
			snap.Reviews,
		}
		if err := writeRow(f, ReviewsSheet, i+2, row); err != nil {
			return nil, err
		}
		result.Reviews++
	}

	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("failed to save workbook: %w", err)
	}
	return result, nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, row []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, rowNum, err)
	}
	return nil
}

func dateCell(d *civil.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}
