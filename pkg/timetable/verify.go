package timetable

import (
	"errors"
	"fmt"
	"slices"

	"github.com/limaJavier/school-timetabling/pkg/model"
)

var ErrInvalidTimetable = errors.New("invalid timetable")

// Verify checks a solved timetable against the domain it was built from: competency, curriculum membership,
// one lesson per class and per teacher in every slot, and exact weekly coverage. Non-solved timetables trivially pass
func Verify(timetable *Timetable, domain *model.Domain) error {
	if !timetable.Solved() {
		if timetable.Len() > 0 {
			return fmt.Errorf("%w: %v timetable exposes %v rows", ErrInvalidTimetable, timetable.Status(), timetable.Len())
		}
		return nil
	}

	type slotKey struct {
		name     string
		dayIndex int
		period   int
	}

	classAssistance := make(map[slotKey]bool)   // Class busy in slot
	teacherAssistance := make(map[slotKey]bool) // Teacher busy in slot
	derivedPeriods := make(map[[2]string]int)   // Periods taught per (class, subject)

	for _, row := range timetable.rows {
		teacherIndex, teacherFound := domain.TeacherIndex(row.Teacher)
		classIndex, classFound := domain.ClassIndex(row.Class)
		_, subjectFound := domain.SubjectIndex(row.Subject)
		classKey := slotKey{row.Class, row.DayIndex, row.Period}
		teacherKey := slotKey{row.Teacher, row.DayIndex, row.Period}

		// Check that:
		// - Class, subject and teacher exist
		// - The slot exists in the calendar
		// - Teacher is competent in the subject
		// - Subject belongs to the class's curriculum
		// - Neither the class nor the teacher are already busy in the slot
		switch {
		case !teacherFound || !classFound || !subjectFound:
			return fmt.Errorf("%w: row %+v references unknown entities", ErrInvalidTimetable, row)
		case row.DayIndex < 0 || row.DayIndex >= len(domain.Days) || domain.Days[row.DayIndex] != row.Day || row.Period < 1 || row.Period > domain.PeriodsPerDay:
			return fmt.Errorf("%w: row %+v is outside the calendar", ErrInvalidTimetable, row)
		case !domain.Teachers[teacherIndex].Teaches(row.Subject):
			return fmt.Errorf("%w: teacher \"%v\" is not competent in \"%v\"", ErrInvalidTimetable, row.Teacher, row.Subject)
		case !slices.Contains(domain.Classes[classIndex].Subjects, row.Subject):
			return fmt.Errorf("%w: class \"%v\" does not take \"%v\"", ErrInvalidTimetable, row.Class, row.Subject)
		case classAssistance[classKey]:
			return fmt.Errorf("%w: class \"%v\" has two lessons on %v#%v", ErrInvalidTimetable, row.Class, row.Day, row.Period)
		case teacherAssistance[teacherKey]:
			return fmt.Errorf("%w: teacher \"%v\" has two lessons on %v#%v", ErrInvalidTimetable, row.Teacher, row.Day, row.Period)
		}

		classAssistance[classKey] = true
		teacherAssistance[teacherKey] = true
		derivedPeriods[[2]string{row.Class, row.Subject}]++
	}

	// Check whether every subject is taught exactly as many periods as required
	for _, class := range domain.Classes {
		for _, subjectName := range class.Subjects {
			subject, _ := domain.SubjectIndex(subjectName)
			required := domain.Subjects[subject].Periods
			if taught := derivedPeriods[[2]string{class.Name, subjectName}]; taught != required {
				return fmt.Errorf("%w: class \"%v\" receives %v periods of \"%v\" instead of %v", ErrInvalidTimetable, class.Name, taught, subjectName, required)
			}
		}
	}
	return nil
}
