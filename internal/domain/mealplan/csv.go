package mealplan

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVHeader is the first row of an exported plan.
var CSVHeader = []string{"Day", "Breakfast", "Lunch", "Dinner"}

// WriteCSV writes the header and one row per day.
func WriteCSV(w io.Writer, plan MealPlan) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CSVHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, day := range plan.Days {
		if err := writer.Write([]string{day.Day, day.Breakfast, day.Lunch, day.Dinner}); err != nil {
			return fmt.Errorf("write %s: %w", day.Day, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadCSV parses a plan written by WriteCSV.
func ReadCSV(r io.Reader) (MealPlan, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(CSVHeader)
	records, err := reader.ReadAll()
	if err != nil {
		return MealPlan{}, fmt.Errorf("parse meal plan: %w", err)
	}
	if len(records) == 0 {
		return MealPlan{}, fmt.Errorf("meal plan is empty")
	}
	for i, col := range CSVHeader {
		if !strings.EqualFold(strings.TrimSpace(records[0][i]), col) {
			return MealPlan{}, fmt.Errorf("unexpected column %q, want %q", records[0][i], col)
		}
	}
	rows := records[1:]
	if len(rows) != len(Days) {
		return MealPlan{}, fmt.Errorf("meal plan has %d days, want %d", len(rows), len(Days))
	}
	plan := MealPlan{Days: make([]DayPlan, 0, len(rows))}
	for _, row := range rows {
		plan.Days = append(plan.Days, DayPlan{Day: row[0], Breakfast: row[1], Lunch: row[2], Dinner: row[3]})
	}
	return plan, nil
}
