package model

import (
	"fmt"
	"slices"

	"github.com/limaJavier/school-timetabling/pkg/search"
)

// AssignmentVariable is the meaning of one boolean variable: Teacher teaches Subject to Class during Slot
type AssignmentVariable struct {
	Class   string
	Subject string
	Teacher string
	Slot    TimeSlot
}

// Compilation is the immutable product of Compile: the domain it was built from, its variable numbering and its constraints
type Compilation struct {
	Domain  *Domain
	Space   Space
	Problem *search.Problem
}

// Variable decodes a variable index into its (class, subject, teacher, slot) meaning
func (compilation *Compilation) Variable(index int) AssignmentVariable {
	domain := compilation.Domain
	class, subject, slot, teacher := compilation.Space.Attributes(index)
	return AssignmentVariable{
		Class:   domain.Classes[class].Name,
		Subject: domain.Subjects[subject].Name,
		Teacher: domain.Teachers[teacher].Name,
		Slot:    domain.Slots[slot],
	}
}

// Compile turns a domain into a search.Problem. Only competent (class, subject, teacher) triples become variables,
// which is why a subject nobody can teach is rejected before anything is built
func Compile(domain *Domain) (*Compilation, error) {
	if domain == nil {
		return nil, fmt.Errorf("cannot compile a nil domain")
	}
	if err := domain.checkCompetency(); err != nil {
		return nil, err
	}

	//** Initialize dependencies
	evaluator := newPredicateEvaluator(domain)
	indexer := newIndexer(domain)

	// Constraints functions, in the order their constraints appear in the problem
	constraints := []func(state constraintState) []search.Constraint{
		coverageConstraints,
		classConstraints,
		teacherConstraints,
	}

	state := constraintState{
		domain:    domain,
		evaluator: evaluator,
		indexer:   indexer,
	}

	problem := buildProblem(indexer.Variables(), constraints, state)
	if err := problem.Validate(); err != nil {
		return nil, fmt.Errorf("compiled an invalid problem: %w", err)
	}

	return &Compilation{
		Domain:  domain,
		Space:   indexer,
		Problem: problem,
	}, nil
}

func buildProblem(variables int, constraints []func(state constraintState) []search.Constraint, state constraintState) *search.Problem {
	type generated struct {
		position    int
		constraints []search.Constraint
	}

	constraintsChannel := make(chan generated) // Channel to collect constraints

	// Execute constraints functions on different goroutines to improve performance
	for position, constraint := range constraints {
		go func() {
			constraintsChannel <- generated{position: position, constraints: constraint(state)}
		}()
	}

	// Collect generated constraints; each family keeps its slot so the final order does not depend on scheduling
	families := make([][]search.Constraint, len(constraints))
	for range constraints {
		family := <-constraintsChannel
		families[family.position] = family.constraints
	}

	return &search.Problem{
		Variables:   variables,
		Constraints: slices.Concat(families...),
	}
}
