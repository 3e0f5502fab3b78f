package search

import (
	"bufio"
	"fmt"
	"io"
)

// WriteOPB writes the problem in the pseudo-boolean OPB format so it can be cross-checked with external solvers.
// Variable v is written as x(v+1); AtMost constraints are negated into ">=" form
func (problem *Problem) WriteOPB(writer io.Writer) error {
	buffered := bufio.NewWriter(writer)
	fmt.Fprintf(buffered, "* #variable= %d #constraint= %d\n", problem.Variables, len(problem.Constraints))

	for _, constraint := range problem.Constraints {
		if constraint.Label != "" {
			fmt.Fprintf(buffered, "* %v\n", constraint.Label)
		}

		coefficient, operator, bound := "+1", "=", constraint.Bound
		if constraint.Kind == AtMost {
			coefficient, operator, bound = "-1", ">=", -constraint.Bound
		}
		for _, variable := range constraint.Variables {
			fmt.Fprintf(buffered, "%v x%d ", coefficient, variable+1)
		}
		fmt.Fprintf(buffered, "%v %d ;\n", operator, bound)
	}
	return buffered.Flush()
}
