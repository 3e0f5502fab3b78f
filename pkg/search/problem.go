// Package search finds assignments of boolean variables that satisfy a set of unit-coefficient cardinality constraints.
//
// Every constraint states that the number of true variables among its members is exactly, or at most, a bound.
// The Engine combines counter-based propagation with depth-first backtracking and honours a wall-clock budget.
package search

import (
	"fmt"
	"slices"
)

type Kind int

const (
	Exactly Kind = iota // sum(variables) == bound
	AtMost              // sum(variables) <= bound
)

func (kind Kind) String() string {
	switch kind {
	case Exactly:
		return "exactly"
	case AtMost:
		return "at-most"
	}
	return fmt.Sprintf("kind(%d)", int(kind))
}

// Family groups constraints that play the same role, e.g. every teacher-exclusivity constraint
type Family string

type Constraint struct {
	Family    Family
	Label     string // Human-readable identity, used in logs only
	Kind      Kind
	Bound     int
	Variables []int // Variable ids in [0, Problem.Variables), in branching order
}

// Problem is an immutable set of cardinality constraints over variables numbered 0..Variables-1
type Problem struct {
	Variables   int
	Constraints []Constraint
}

func (problem *Problem) Validate() error {
	if problem == nil {
		return fmt.Errorf("problem is nil")
	} else if problem.Variables < 0 {
		return fmt.Errorf("negative number of variables: %v", problem.Variables)
	}

	for i, constraint := range problem.Constraints {
		if constraint.Kind != Exactly && constraint.Kind != AtMost {
			return fmt.Errorf("constraint %v (%v) has unknown kind %v", i, constraint.Label, constraint.Kind)
		} else if constraint.Bound < 0 {
			return fmt.Errorf("constraint %v (%v) has negative bound %v", i, constraint.Label, constraint.Bound)
		}

		seen := make(map[int]bool, len(constraint.Variables))
		for _, variable := range constraint.Variables {
			if variable < 0 || variable >= problem.Variables {
				return fmt.Errorf("constraint %v (%v) references variable %v out of range [0, %v)", i, constraint.Label, variable, problem.Variables)
			} else if seen[variable] {
				return fmt.Errorf("constraint %v (%v) references variable %v more than once", i, constraint.Label, variable)
			}
			seen[variable] = true
		}
	}
	return nil
}

// Satisfied checks that assigning true to exactly the given variables satisfies every constraint
func (problem *Problem) Satisfied(assignment []int) bool {
	values := make([]bool, problem.Variables)
	for _, variable := range assignment {
		// Make sure there are no duplicates nor unknown variables
		if variable < 0 || variable >= problem.Variables || values[variable] {
			return false
		}
		values[variable] = true
	}

	for _, constraint := range problem.Constraints {
		count := 0
		for _, variable := range constraint.Variables {
			if values[variable] {
				count++
			}
		}
		if (constraint.Kind == Exactly && count != constraint.Bound) || (constraint.Kind == AtMost && count > constraint.Bound) {
			return false
		}
	}
	return true
}

// Families lists the distinct constraint families in order of first appearance
func (problem *Problem) Families() []Family {
	families := make([]Family, 0)
	for _, constraint := range problem.Constraints {
		if !slices.Contains(families, constraint.Family) {
			families = append(families, constraint.Family)
		}
	}
	return families
}
