// Package excel imports habits, review items and check-ins from .xlsx or
// .csv files and exports snapshots to .xlsx.
package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/xuri/excelize/v2"

	"github.com/example/progress/internal/engine"
	"github.com/example/progress/internal/errs"
	"github.com/example/progress/internal/habits"
)

// Row kinds.
const (
	KindHabit = "habit"
	KindItem  = "item"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath   string // Path to the Excel or CSV file
	KindColumn string // Column with the row kind (habit or item)
	IDColumn   string // Column with the habit name or item id
	DateColumn string // Column with the optional date
	SheetName  string // Sheet to import; the first sheet when empty
	StartRow   int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		KindColumn: "A",
		IDColumn:   "B",
		DateColumn: "C",
		StartRow:   2, // skip header
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int      `json:"total_processed"`
	HabitsCreated  int      `json:"habits_created"`
	ItemsCreated   int      `json:"items_created"`
	CheckIns       int      `json:"check_ins"`
	Skipped        int      `json:"skipped"`
	Errors         []string `json:"errors"`
}

type record struct {
	num  int
	kind string
	id   string
	date string
}

// Import reads the file and applies every valid row to eng in a single
// commit. Invalid rows are reported in the result and do not stop the import.
func Import(ctx context.Context, eng *engine.Engine, config ImportConfig) (*ImportResult, error) {
	records, err := readRecords(config)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	err = eng.Batch(ctx, func(b *engine.Batch) error {
		for _, rec := range records {
			result.TotalProcessed++
			if err := applyRecord(b, rec, result); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rec.num, err))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func readRecords(config ImportConfig) ([]record, error) {
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		return readCSV(config)
	}
	return readExcel(config)
}

func readExcel(config ImportConfig) ([]record, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := config.SheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	var out []record
	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		if rec, ok := toRecord(row, config, i+1); ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func readCSV(config ImportConfig) ([]record, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var out []record
	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rowNum++
		if rowNum < config.StartRow {
			continue
		}
		if rec, ok := toRecord(row, config, rowNum); ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// toRecord extracts the configured columns; blank rows are dropped.
func toRecord(row []string, config ImportConfig, num int) (record, bool) {
	rec := record{
		num:  num,
		kind: strings.ToLower(cell(row, config.KindColumn)),
		id:   cell(row, config.IDColumn),
		date: cell(row, config.DateColumn),
	}
	if rec.kind == "" && rec.id == "" && rec.date == "" {
		return rec, false
	}
	return rec, true
}

func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func applyRecord(b *engine.Batch, rec record, result *ImportResult) error {
	var date civil.Date
	if rec.date != "" {
		d, err := civil.ParseDate(rec.date)
		if err != nil {
			return fmt.Errorf("invalid date %q", rec.date)
		}
		date = d
	}

	switch rec.kind {
	case KindHabit:
		// A row is applied whole or not at all.
		if rec.date != "" && date.After(b.Today()) {
			return errs.New(errs.FutureDate, "date", rec.date)
		}
		created := false
		if !b.HasHabit(rec.id) {
			if err := b.AddHabit(rec.id); err != nil {
				return err
			}
			result.HabitsCreated++
			created = true
		}
		if rec.date == "" {
			if !created {
				result.Skipped++
			}
			return nil
		}
		res, err := b.CheckIn(rec.id, date)
		if err != nil {
			return err
		}
		if res.Status == habits.AlreadyRecorded {
			result.Skipped++
			return nil
		}
		result.CheckIns++
		return nil

	case KindItem:
		if b.HasItem(rec.id) {
			result.Skipped++
			return nil
		}
		if err := b.AddItem(rec.id, date); err != nil {
			return err
		}
		result.ItemsCreated++
		return nil

	default:
		return fmt.Errorf("unknown kind %q (want %s or %s)", rec.kind, KindHabit, KindItem)
	}
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
