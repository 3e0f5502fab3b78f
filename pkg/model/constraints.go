package model

import (
	"fmt"

	"github.com/limaJavier/school-timetabling/pkg/search"
)

const (
	FamilyCoverage search.Family = "coverage" // Exactly(periods) per (class, subject)
	FamilyClass    search.Family = "class"    // AtMost(1) per (class, slot)
	FamilyTeacher  search.Family = "teacher"  // AtMost(1) per (teacher, slot)
)

type constraintState struct {
	domain    *Domain
	evaluator predicateEvaluator
	indexer   Space
}

// Every required subject is taught exactly as many periods as the curriculum demands.
// Variables are listed chronologically, then by teacher name
func coverageConstraints(state constraintState) []search.Constraint {
	constraints := make([]search.Constraint, 0)

	for class := range state.domain.Classes {
		for _, subject := range state.domain.Curriculum(class) {
			variables := make([]int, 0)
			for slot := range state.domain.Slots {
				for _, teacher := range state.domain.CompetentTeachers(subject) {
					index, _ := state.indexer.Index(class, subject, slot, teacher)
					variables = append(variables, index)
				}
			}

			constraints = append(constraints, search.Constraint{
				Family:    FamilyCoverage,
				Label:     fmt.Sprintf("%v/%v", state.domain.Classes[class].Name, state.domain.Subjects[subject].Name),
				Kind:      search.Exactly,
				Bound:     state.evaluator.Required(class, subject),
				Variables: variables,
			})
		}
	}
	return constraints
}

// A class attends at most one lesson per slot
func classConstraints(state constraintState) []search.Constraint {
	constraints := make([]search.Constraint, 0)

	for class := range state.domain.Classes {
		for slot := range state.domain.Slots {
			variables := make([]int, 0)
			for _, subject := range state.domain.Curriculum(class) {
				for _, teacher := range state.domain.CompetentTeachers(subject) {
					index, _ := state.indexer.Index(class, subject, slot, teacher)
					variables = append(variables, index)
				}
			}
			if len(variables) == 0 {
				continue
			}

			constraints = append(constraints, search.Constraint{
				Family:    FamilyClass,
				Label:     fmt.Sprintf("%v@%v", state.domain.Classes[class].Name, state.domain.Slots[slot]),
				Kind:      search.AtMost,
				Bound:     1,
				Variables: variables,
			})
		}
	}
	return constraints
}

// A teacher gives at most one lesson per slot
func teacherConstraints(state constraintState) []search.Constraint {
	constraints := make([]search.Constraint, 0)

	for teacher := range state.domain.Teachers {
		for slot := range state.domain.Slots {
			variables := make([]int, 0)
			for class := range state.domain.Classes {
				for _, subject := range state.domain.Curriculum(class) {
					if !state.evaluator.Allowed(class, subject, teacher) {
						continue
					}
					index, _ := state.indexer.Index(class, subject, slot, teacher)
					variables = append(variables, index)
				}
			}
			if len(variables) == 0 {
				continue // Teacher is competent in nothing anybody takes
			}

			constraints = append(constraints, search.Constraint{
				Family:    FamilyTeacher,
				Label:     fmt.Sprintf("%v@%v", state.domain.Teachers[teacher].Name, state.domain.Slots[slot]),
				Kind:      search.AtMost,
				Bound:     1,
				Variables: variables,
			})
		}
	}
	return constraints
}
