package search

import (
	"fmt"
	"math/rand/v2"

	"github.com/samber/lo"
)

// generateProblem builds a random problem over at most maxVariables variables and at most maxConstraints constraints
func generateProblem(rng *rand.Rand, maxVariables, maxConstraints int) *Problem {
	problem := &Problem{
		Variables:   rng.IntN(maxVariables) + 1,
		Constraints: make([]Constraint, rng.IntN(maxConstraints)+1),
	}

	for i := range problem.Constraints {
		variables := make([]int, 0, problem.Variables)
		for variable := range problem.Variables {
			if rng.Float32() < 0.4 {
				variables = append(variables, variable)
			}
		}
		if len(variables) == 0 {
			variables = append(variables, rng.IntN(problem.Variables))
		}

		kind := Exactly
		if rng.Float32() < 0.5 {
			kind = AtMost
		}
		problem.Constraints[i] = Constraint{
			Family:    Family(kind.String()),
			Label:     fmt.Sprintf("c%v", i),
			Kind:      kind,
			Bound:     rng.IntN(len(variables) + 1),
			Variables: variables,
		}
	}
	return problem
}

// generateDisjointProblem builds a random problem whose Exactly constraints never share a variable, while two families
// of AtMost constraints partition every variable into groups
func generateDisjointProblem(rng *rand.Rand, maxVariables int) *Problem {
	problem := &Problem{Variables: rng.IntN(maxVariables) + 1}

	demands := make([][]int, rng.IntN(3)+1)
	for variable := range problem.Variables {
		if demand := rng.IntN(len(demands) + 1); demand < len(demands) {
			demands[demand] = append(demands[demand], variable)
		}
	}
	for i, variables := range demands {
		if len(variables) == 0 {
			continue
		}
		problem.Constraints = append(problem.Constraints, Constraint{
			Family:    "coverage",
			Label:     fmt.Sprintf("demand%v", i),
			Kind:      Exactly,
			Bound:     rng.IntN(len(variables)) + 1,
			Variables: variables,
		})
	}

	for _, family := range []Family{"class", "teacher"} {
		groups := make([][]int, rng.IntN(3)+1)
		for variable := range problem.Variables {
			group := rng.IntN(len(groups))
			groups[group] = append(groups[group], variable)
		}
		for i, variables := range groups {
			if len(variables) == 0 {
				continue
			}
			problem.Constraints = append(problem.Constraints, Constraint{
				Family:    family,
				Label:     fmt.Sprintf("%v%v", family, i),
				Kind:      AtMost,
				Bound:     rng.IntN(2) + 1,
				Variables: variables,
			})
		}
	}
	return problem
}

// bruteForce enumerates every assignment; only meant for a handful of variables
func bruteForce(problem *Problem) bool {
	for mask := range 1 << problem.Variables {
		assignment := make([]int, 0)
		for variable := range problem.Variables {
			if mask&(1<<variable) != 0 {
				assignment = append(assignment, variable)
			}
		}
		if problem.Satisfied(assignment) {
			return true
		}
	}
	return false
}

func never() bool {
	return false
}

// splitPigeonhole places holes+1 classes into holes slots; the slot constraints are split between two families
func splitPigeonhole(holes int) *Problem {
	classes := holes + 1
	problem := &Problem{Variables: classes * holes}
	for class := range classes {
		problem.Constraints = append(problem.Constraints, Constraint{
			Family:    "coverage",
			Label:     fmt.Sprintf("class%v", class),
			Kind:      Exactly,
			Bound:     1,
			Variables: lo.Map(lo.Range(holes), func(slot int, _ int) int { return class*holes + slot }),
		})
	}
	for slot := range holes {
		family := Family("morning")
		if slot >= holes/2 {
			family = "afternoon"
		}
		problem.Constraints = append(problem.Constraints, Constraint{
			Family:    family,
			Label:     fmt.Sprintf("slot%v", slot),
			Kind:      AtMost,
			Bound:     1,
			Variables: lo.Map(lo.Range(classes), func(class int, _ int) int { return class*holes + slot }),
		})
	}
	return problem
}

// pigeonhole is a small timetable-like problem: classes each need periods slots out of slots, while a single teacher serves all of them
func pigeonhole(classes, slots, periods int) *Problem {
	problem := &Problem{Variables: classes * slots}
	for class := range classes {
		variables := make([]int, slots)
		for slot := range slots {
			variables[slot] = class*slots + slot
		}
		problem.Constraints = append(problem.Constraints, Constraint{
			Family:    "coverage",
			Label:     fmt.Sprintf("class%v", class),
			Kind:      Exactly,
			Bound:     periods,
			Variables: variables,
		})
	}
	for slot := range slots {
		variables := make([]int, classes)
		for class := range classes {
			variables[class] = class*slots + slot
		}
		problem.Constraints = append(problem.Constraints, Constraint{
			Family:    "teacher",
			Label:     fmt.Sprintf("slot%v", slot),
			Kind:      AtMost,
			Bound:     1,
			Variables: variables,
		})
	}
	return problem
}
