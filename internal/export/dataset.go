package export

import (
	"fmt"
	"strconv"

	"github.com/samber/lo"

	"github.com/limaJavier/school-timetabling/pkg/timetable"
)

// Dataset defines tabular export content.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
}

type View string

const (
	ViewClass   View = "class"
	ViewTeacher View = "teacher"
)

func ParseView(raw string) (View, error) {
	switch View(raw) {
	case ViewClass, ViewTeacher:
		return View(raw), nil
	}
	return "", fmt.Errorf("unknown view %q, expected %q or %q", raw, ViewClass, ViewTeacher)
}

var flatHeaders = []string{"Class", "Day", "Period", "Subject", "Teacher"}

// Flat lists every row of the timetable
func Flat(table *timetable.Timetable) Dataset {
	return Dataset{
		Title:   "Timetable",
		Headers: flatHeaders,
		Rows: lo.Map(table.Rows(), func(row timetable.Row, _ int) map[string]string {
			return map[string]string{
				"Class":   row.Class,
				"Day":     row.Day,
				"Period":  strconv.Itoa(row.Period),
				"Subject": row.Subject,
				"Teacher": row.Teacher,
			}
		}),
	}
}

// Grids builds one period-by-day grid per class or per teacher, in name order. Free slots are left blank
func Grids(table *timetable.Timetable, view View, days []string, periodsPerDay int) []Dataset {
	owners, rowsOf, cell := table.Classes(), table.ByClass, func(row timetable.Row) string {
		return fmt.Sprintf("%v (%v)", row.Subject, row.Teacher)
	}
	if view == ViewTeacher {
		owners, rowsOf, cell = table.Teachers(), table.ByTeacher, func(row timetable.Row) string {
			return fmt.Sprintf("%v / %v", row.Subject, row.Class)
		}
	}

	headers := append([]string{"Period"}, days...)
	return lo.Map(owners, func(owner string, _ int) Dataset {
		grid := make([]map[string]string, periodsPerDay)
		for period := range grid {
			grid[period] = map[string]string{"Period": strconv.Itoa(period + 1)}
		}
		for row := range rowsOf(owner) {
			if row.Period >= 1 && row.Period <= periodsPerDay {
				grid[row.Period-1][row.Day] = cell(row)
			}
		}
		return Dataset{Title: fmt.Sprintf("%v %v", view, owner), Headers: headers, Rows: grid}
	})
}
