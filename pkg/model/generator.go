package model

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/samber/lo"
)

type GeneratorParams struct {
	Classes            int
	Subjects           int
	Teachers           int
	Days               int
	PeriodsPerDay      int
	MaxPeriods         int     // Upper bound of a subject's weekly periods
	SubjectsPerTeacher int     // Competencies per teacher, on top of the one that keeps every subject teachable
	CurriculumRatio    float64 // Probability of a class taking each subject
}

func DefaultGeneratorParams() GeneratorParams {
	return GeneratorParams{
		Classes:            4,
		Subjects:           6,
		Teachers:           6,
		Days:               5,
		PeriodsPerDay:      6,
		MaxPeriods:         4,
		SubjectsPerTeacher: 1,
		CurriculumRatio:    0.7,
	}
}

// GenerateInput builds a random raw input that passes NewDomain. Whether it can be scheduled is left to chance
func GenerateInput(rng *rand.Rand, params GeneratorParams) RawInput {
	params.Classes, params.Subjects, params.Teachers = max(params.Classes, 1), max(params.Subjects, 1), max(params.Teachers, 1)
	params.Days, params.PeriodsPerDay, params.MaxPeriods = max(params.Days, 1), max(params.PeriodsPerDay, 1), max(params.MaxPeriods, 1)

	input := RawInput{
		Days:          lo.Map(lo.Range(params.Days), func(day int, _ int) string { return fmt.Sprintf("D%v", day+1) }),
		PeriodsPerDay: params.PeriodsPerDay,
	}

	subjectNames := lo.Map(lo.Range(params.Subjects), func(subject int, _ int) string { return fmt.Sprintf("S%02d", subject) })
	input.Subjects = lo.Map(subjectNames, func(name string, _ int) RawSubject {
		return RawSubject{Name: name, Periods: rng.IntN(params.MaxPeriods) + 1}
	})

	input.Teachers = make([]RawTeacher, params.Teachers)
	for teacher := range params.Teachers {
		input.Teachers[teacher] = RawTeacher{Name: fmt.Sprintf("T%02d", teacher), Subjects: make([]string, 0)}
	}
	// Round robin first, so every subject has at least one competent teacher
	for subject, name := range subjectNames {
		teacher := &input.Teachers[subject%params.Teachers]
		teacher.Subjects = append(teacher.Subjects, name)
	}
	for teacher := range input.Teachers {
		for range params.SubjectsPerTeacher {
			subject := subjectNames[rng.IntN(len(subjectNames))]
			if !slices.Contains(input.Teachers[teacher].Subjects, subject) {
				input.Teachers[teacher].Subjects = append(input.Teachers[teacher].Subjects, subject)
			}
		}
	}

	input.Classes = make([]RawClass, params.Classes)
	for class := range params.Classes {
		curriculum := lo.Filter(subjectNames, func(string, int) bool { return rng.Float64() < params.CurriculumRatio })
		if len(curriculum) == 0 {
			curriculum = []string{subjectNames[rng.IntN(len(subjectNames))]}
		}
		input.Classes[class] = RawClass{Name: fmt.Sprintf("C%02d", class), Subjects: curriculum}
	}

	return input
}
