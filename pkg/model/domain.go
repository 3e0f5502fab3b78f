package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

type Teacher struct {
	Name     string
	Subjects []string // Sorted and free of duplicates
}

// Teaches reports whether the teacher is competent in subject
func (teacher Teacher) Teaches(subject string) bool {
	_, found := slices.BinarySearch(teacher.Subjects, subject)
	return found
}

type Subject struct {
	Name    string
	Periods int // Required periods per week
}

type Class struct {
	Name     string
	Subjects []string // Curriculum, sorted and free of duplicates
}

type TimeSlot struct {
	Day      string
	DayIndex int
	Period   int // 1-based
}

func (slot TimeSlot) String() string {
	return fmt.Sprintf("%v#%v", slot.Day, slot.Period)
}

// Settings carries the configuration-defined parts of the model: the default calendar and the accepted period range
type Settings struct {
	DefaultDays          []string
	DefaultPeriodsPerDay int
	MaxWeeklyPeriods     int
}

func DefaultSettings() Settings {
	return Settings{
		DefaultDays:          []string{"Mon", "Tue", "Wed", "Thu", "Fri"},
		DefaultPeriodsPerDay: 6,
		MaxWeeklyPeriods:     10,
	}
}

// Domain is the validated, read-only scheduling model. Teachers, subjects and classes are sorted by name and slots are chronological
type Domain struct {
	Teachers      []Teacher
	Subjects      []Subject
	Classes       []Class
	Slots         []TimeSlot
	Days          []string
	PeriodsPerDay int

	teacherIndex      map[string]int
	subjectIndex      map[string]int
	classIndex        map[string]int
	competentTeachers [][]int // Teachers (by index) competent in each subject (by index), sorted
}

var inputValidator = validator.New()

// NewDomain validates rawInput and builds the immutable model. The first violated rule is reported as a *ConfigurationError
func NewDomain(rawInput RawInput, settings Settings) (*Domain, error) {
	rawInput = rawInput.normalize()

	//** Struct-level validation
	if err := inputValidator.Struct(rawInput); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			field := validationErrors[0]
			return nil, newConfigurationError(KindInvalidIdentifier, "field \"%v\" failed on \"%v\" rule", field.Namespace(), field.Tag())
		}
		return nil, &ConfigurationError{Kind: KindInvalidIdentifier, Message: "input validation failed", Err: err}
	}

	//** Zero settings fall back to the defaults
	defaults := DefaultSettings()
	if len(settings.DefaultDays) == 0 {
		settings.DefaultDays = defaults.DefaultDays
	}
	if settings.DefaultPeriodsPerDay <= 0 {
		settings.DefaultPeriodsPerDay = defaults.DefaultPeriodsPerDay
	}
	if settings.MaxWeeklyPeriods <= 0 {
		settings.MaxWeeklyPeriods = defaults.MaxWeeklyPeriods
	}

	//** Calendar
	days := rawInput.Days
	if len(days) == 0 {
		days = settings.DefaultDays
	}
	periodsPerDay := rawInput.PeriodsPerDay
	if periodsPerDay == 0 {
		periodsPerDay = settings.DefaultPeriodsPerDay
	}
	if len(days) == 0 {
		return nil, newConfigurationError(KindInvalidCalendar, "calendar must contain at least one day")
	} else if periodsPerDay < 1 {
		return nil, newConfigurationError(KindInvalidCalendar, "periods per day must be positive: %v", periodsPerDay)
	} else if lo.Contains(days, "") {
		return nil, newConfigurationError(KindInvalidCalendar, "day names must not be empty")
	} else if duplicates := lo.FindDuplicates(days); len(duplicates) > 0 {
		return nil, newConfigurationError(KindInvalidCalendar, "day \"%v\" appears more than once", duplicates[0])
	}

	//** Identifiers
	teacherNames := lo.Map(rawInput.Teachers, func(teacher RawTeacher, _ int) string { return teacher.Name })
	subjectNames := lo.Map(rawInput.Subjects, func(subject RawSubject, _ int) string { return subject.Name })
	classNames := lo.Map(rawInput.Classes, func(class RawClass, _ int) string { return class.Name })
	for _, tuple := range lo.Zip2([]string{"teacher", "subject", "class"}, [][]string{teacherNames, subjectNames, classNames}) {
		kind, names := tuple.A, tuple.B
		if duplicates := lo.FindDuplicates(names); len(duplicates) > 0 {
			return nil, newConfigurationError(KindDuplicateIdentifier, "%v \"%v\" is defined more than once", kind, duplicates[0])
		}
	}

	//** Period counts
	for _, subject := range rawInput.Subjects {
		if subject.Periods < 1 || subject.Periods > settings.MaxWeeklyPeriods {
			err := newConfigurationError(KindInvalidPeriodCount, "subject \"%v\" requires %v periods per week, expected a value between 1 and %v", subject.Name, subject.Periods, settings.MaxWeeklyPeriods)
			err.Subject = subject.Name
			return nil, err
		}
	}

	//** Subject references
	for _, teacher := range rawInput.Teachers {
		if unknown, ok := lo.Find(teacher.Subjects, func(subject string) bool { return !lo.Contains(subjectNames, subject) }); ok {
			err := newConfigurationError(KindUnknownSubject, "teacher \"%v\" lists unknown subject \"%v\"", teacher.Name, unknown)
			err.Subject = unknown
			return nil, err
		}
	}
	for _, class := range rawInput.Classes {
		if unknown, ok := lo.Find(class.Subjects, func(subject string) bool { return !lo.Contains(subjectNames, subject) }); ok {
			err := newConfigurationError(KindUnknownSubject, "class \"%v\" requires unknown subject \"%v\"", class.Name, unknown)
			err.Class, err.Subject = class.Name, unknown
			return nil, err
		}
	}

	//** Build sorted entities
	domain := &Domain{
		Days:          slices.Clone(days),
		PeriodsPerDay: periodsPerDay,
	}

	domain.Subjects = lo.Map(rawInput.Subjects, func(subject RawSubject, _ int) Subject {
		return Subject{Name: subject.Name, Periods: subject.Periods}
	})
	slices.SortFunc(domain.Subjects, func(a, b Subject) int { return strings.Compare(a.Name, b.Name) })

	domain.Teachers = lo.Map(rawInput.Teachers, func(teacher RawTeacher, _ int) Teacher {
		return Teacher{Name: teacher.Name, Subjects: sortedSet(teacher.Subjects)}
	})
	slices.SortFunc(domain.Teachers, func(a, b Teacher) int { return strings.Compare(a.Name, b.Name) })

	allSubjects := sortedSet(subjectNames)
	domain.Classes = lo.Map(rawInput.Classes, func(class RawClass, _ int) Class {
		curriculum := sortedSet(class.Subjects)
		if len(curriculum) == 0 {
			curriculum = slices.Clone(allSubjects) // Every class takes every subject unless told otherwise
		}
		return Class{Name: class.Name, Subjects: curriculum}
	})
	slices.SortFunc(domain.Classes, func(a, b Class) int { return strings.Compare(a.Name, b.Name) })

	for dayIndex, day := range domain.Days {
		for period := 1; period <= periodsPerDay; period++ {
			domain.Slots = append(domain.Slots, TimeSlot{Day: day, DayIndex: dayIndex, Period: period})
		}
	}

	domain.buildIndices()

	//** Curriculum and competency
	for _, class := range domain.Classes {
		if len(class.Subjects) == 0 {
			err := newConfigurationError(KindEmptyCurriculum, "class \"%v\" does not require any subject", class.Name)
			err.Class = class.Name
			return nil, err
		}
	}
	if err := domain.checkCompetency(); err != nil {
		return nil, err
	}

	return domain, nil
}

func (domain *Domain) buildIndices() {
	domain.teacherIndex = make(map[string]int, len(domain.Teachers))
	for i, teacher := range domain.Teachers {
		domain.teacherIndex[teacher.Name] = i
	}
	domain.subjectIndex = make(map[string]int, len(domain.Subjects))
	for i, subject := range domain.Subjects {
		domain.subjectIndex[subject.Name] = i
	}
	domain.classIndex = make(map[string]int, len(domain.Classes))
	for i, class := range domain.Classes {
		domain.classIndex[class.Name] = i
	}

	domain.competentTeachers = make([][]int, len(domain.Subjects))
	for i, subject := range domain.Subjects {
		domain.competentTeachers[i] = make([]int, 0)
		for j, teacher := range domain.Teachers {
			if teacher.Teaches(subject.Name) {
				domain.competentTeachers[i] = append(domain.competentTeachers[i], j)
			}
		}
	}
}

// checkCompetency reports the first (Class, Subject) pair, in lexicographic order, nobody can teach
func (domain *Domain) checkCompetency() error {
	for _, class := range domain.Classes {
		for _, subject := range class.Subjects {
			if len(domain.CompetentTeachers(domain.subjectIndex[subject])) == 0 {
				return unteachableSubjectError(class.Name, subject)
			}
		}
	}
	return nil
}

func (domain *Domain) TeacherIndex(name string) (int, bool) {
	index, ok := domain.teacherIndex[name]
	return index, ok
}

func (domain *Domain) SubjectIndex(name string) (int, bool) {
	index, ok := domain.subjectIndex[name]
	return index, ok
}

func (domain *Domain) ClassIndex(name string) (int, bool) {
	index, ok := domain.classIndex[name]
	return index, ok
}

// CompetentTeachers returns the indices of the teachers able to teach the subject, in name order. The slice must not be modified
func (domain *Domain) CompetentTeachers(subject int) []int {
	if subject < 0 || subject >= len(domain.competentTeachers) {
		return nil
	}
	return domain.competentTeachers[subject]
}

// Curriculum returns the subject indices class must be taught, in name order
func (domain *Domain) Curriculum(class int) []int {
	return lo.Map(domain.Classes[class].Subjects, func(subject string, _ int) int { return domain.subjectIndex[subject] })
}

func sortedSet(values []string) []string {
	set := lo.Uniq(values)
	slices.Sort(set)
	return set
}
