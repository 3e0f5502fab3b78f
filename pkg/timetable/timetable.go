// Package timetable turns search results into timetables and drives the compile, solve and extract pipeline
package timetable

import (
	"cmp"
	"encoding/json"
	"iter"
	"slices"
	"strings"

	"github.com/limaJavier/school-timetabling/pkg/model"
	"github.com/limaJavier/school-timetabling/pkg/search"
	"github.com/samber/lo"
)

// Row is one scheduled lesson
type Row struct {
	Class    string `json:"class"`
	Day      string `json:"day"`
	DayIndex int    `json:"dayIndex"`
	Period   int    `json:"period"`
	Subject  string `json:"subject"`
	Teacher  string `json:"teacher"`
}

func compareRows(a, b Row) int {
	return cmp.Or(
		strings.Compare(a.Class, b.Class),
		cmp.Compare(a.DayIndex, b.DayIndex),
		cmp.Compare(a.Period, b.Period),
	)
}

// Timetable is the read-only outcome of a solve. Unless the status is Solved it holds no rows
type Timetable struct {
	status search.Status
	stats  search.Stats
	reason string
	rows   []Row // Sorted by (Class, DayIndex, Period)
}

// Extract decodes the true variables of a solved result into rows
func Extract(compilation *model.Compilation, result search.Result) *Timetable {
	timetable := &Timetable{
		status: result.Status,
		stats:  result.Stats,
		reason: result.Reason,
		rows:   make([]Row, 0),
	}
	if result.Status != search.Solved {
		return timetable
	}

	timetable.rows = lo.Map(result.Assignment, func(variable int, _ int) Row {
		meaning := compilation.Variable(variable)
		return Row{
			Class:    meaning.Class,
			Day:      meaning.Slot.Day,
			DayIndex: meaning.Slot.DayIndex,
			Period:   meaning.Slot.Period,
			Subject:  meaning.Subject,
			Teacher:  meaning.Teacher,
		}
	})
	slices.SortFunc(timetable.rows, compareRows)
	return timetable
}

func (timetable *Timetable) Status() search.Status {
	return timetable.status
}

func (timetable *Timetable) Stats() search.Stats {
	return timetable.stats
}

// Reason explains a non-solved status, it is empty otherwise
func (timetable *Timetable) Reason() string {
	return timetable.reason
}

func (timetable *Timetable) Solved() bool {
	return timetable.status == search.Solved
}

// Rows returns a copy of every row
func (timetable *Timetable) Rows() []Row {
	return slices.Clone(timetable.rows)
}

func (timetable *Timetable) Len() int {
	return len(timetable.rows)
}

// ByClass lazily yields the rows of one class, in chronological order
func (timetable *Timetable) ByClass(class string) iter.Seq[Row] {
	return timetable.filter(func(row Row) bool { return row.Class == class })
}

// ByTeacher lazily yields the lessons given by one teacher, ordered by class and then chronologically
func (timetable *Timetable) ByTeacher(teacher string) iter.Seq[Row] {
	return timetable.filter(func(row Row) bool { return row.Teacher == teacher })
}

func (timetable *Timetable) filter(predicate func(row Row) bool) iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for _, row := range timetable.rows {
			if predicate(row) && !yield(row) {
				return
			}
		}
	}
}

// Classes lists the classes present in the timetable, sorted
func (timetable *Timetable) Classes() []string {
	return sortedUniq(lo.Map(timetable.rows, func(row Row, _ int) string { return row.Class }))
}

// Teachers lists the teachers present in the timetable, sorted
func (timetable *Timetable) Teachers() []string {
	return sortedUniq(lo.Map(timetable.rows, func(row Row, _ int) string { return row.Teacher }))
}

func sortedUniq(values []string) []string {
	values = lo.Uniq(values)
	slices.Sort(values)
	return values
}

type statsJson struct {
	Nodes        int     `json:"nodes"`
	Backtracks   int     `json:"backtracks"`
	Propagations int     `json:"propagations"`
	MaxDepth     int     `json:"maxDepth"`
	Seconds      float64 `json:"seconds"`
}

type timetableJson struct {
	Status string    `json:"status"`
	Reason string    `json:"reason,omitempty"`
	Stats  statsJson `json:"stats"`
	Rows   []Row     `json:"rows"`
}

func (timetable *Timetable) MarshalJSON() ([]byte, error) {
	return json.Marshal(timetableJson{
		Status: timetable.status.String(),
		Reason: timetable.reason,
		Stats: statsJson{
			Nodes:        timetable.stats.Nodes,
			Backtracks:   timetable.stats.Backtracks,
			Propagations: timetable.stats.Propagations,
			MaxDepth:     timetable.stats.MaxDepth,
			Seconds:      timetable.stats.Duration.Seconds(),
		},
		Rows: timetable.rows,
	})
}
