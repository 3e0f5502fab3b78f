package search

import (
	"errors"

	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
)

// maxMatchingPairs bounds the demand × capacity unit pairs of a component handed to the matching; larger components only get the totals check
const maxMatchingPairs = 256

// Adjacency tests between two budget checks while a matching graph is built
const expiryInterval = 64

var errCapacityExpired = errors.New("search: budget exhausted during the capacity check")

type demandUnit struct {
	constraint int
}

type capacityUnit struct {
	constraint int
}

// component is a connected set of covered demands and capacity groups of a single family
type component struct {
	demands  []int
	groups   []int
	demand   int // Sum of the demand bounds
	capacity int // Sum of the group bounds
}

// capacityShortfall is a relaxation of the problem that can prove infeasibility before any decision is taken.
// Every Exactly constraint asks for Bound true variables, every AtMost constraint of a family offers at most Bound of them.
// When the Exactly constraints are pairwise disjoint, each demanded unit must be served by a distinct unit of capacity of
// every family covering its variables. Within a connected component of demands and groups, a demand larger than the
// capacity proves the problem infeasible; small components are also matched unit by unit.
// expired is polled before each family, before each matching and while matching graphs are built; errCapacityExpired is returned once it reports true
func capacityShortfall(problem *Problem, expired func() bool) (Family, bool, error) {
	demands, ok := disjointDemands(problem)
	if !ok {
		return "", false, nil
	}

	for _, family := range problem.Families() {
		if expired() {
			return "", false, errCapacityExpired
		}

		components, adjacent := familyComponents(problem, family, demands)
		for _, current := range components {
			if current.demand > current.capacity {
				return family, true, nil
			}
		}

		for _, current := range components {
			if current.demand*current.capacity > maxMatchingPairs {
				continue
			} else if expired() {
				return "", false, errCapacityExpired
			}
			short, err := matchingShortfall(problem, current, adjacent, expired)
			if err != nil {
				return "", false, err
			} else if short {
				return family, true, nil
			}
		}
	}
	return "", false, nil
}

// disjointDemands lists the Exactly constraints, or reports false when two of them share a variable
func disjointDemands(problem *Problem) ([]int, bool) {
	demands := make([]int, 0)
	owner := make([]int, problem.Variables)
	for i := range owner {
		owner[i] = -1
	}
	for i, constraint := range problem.Constraints {
		if constraint.Kind != Exactly {
			continue
		}
		for _, variable := range constraint.Variables {
			if owner[variable] != -1 {
				return nil, false // Overlapping demands may share true variables
			}
			owner[variable] = i
		}
		demands = append(demands, i)
	}
	return demands, true
}

// familyComponents groups the demands covered by family with the AtMost constraints of family they touch.
// Components follow the order of their first demand; adjacent holds every (demand, group) pair sharing a variable
func familyComponents(problem *Problem, family Family, demands []int) ([]component, map[[2]int]bool) {
	groups := lo.Filter(lo.Range(len(problem.Constraints)), func(i int, _ int) bool {
		return problem.Constraints[i].Family == family && problem.Constraints[i].Kind == AtMost
	})
	if len(groups) == 0 {
		return nil, nil
	}

	// Variable -> groups of the family it belongs to
	membership := make(map[int][]int)
	for _, group := range groups {
		for _, variable := range problem.Constraints[group].Variables {
			membership[variable] = append(membership[variable], group)
		}
	}

	parent := lo.Range(len(problem.Constraints))
	find := func(node int) int {
		for parent[node] != node {
			parent[node] = parent[parent[node]]
			node = parent[node]
		}
		return node
	}

	// Only demands entirely covered by the family are bound by its capacity
	adjacent := make(map[[2]int]bool)
	covered := lo.Filter(demands, func(demand int, _ int) bool {
		return lo.EveryBy(problem.Constraints[demand].Variables, func(variable int) bool { return len(membership[variable]) > 0 })
	})
	for _, demand := range covered {
		for _, variable := range problem.Constraints[demand].Variables {
			for _, group := range membership[variable] {
				adjacent[[2]int{demand, group}] = true
				parent[find(demand)] = find(group)
			}
		}
	}

	components := make([]component, 0)
	position := make(map[int]int)
	for _, demand := range covered {
		root := find(demand)
		if _, ok := position[root]; !ok {
			position[root] = len(components)
			components = append(components, component{})
		}
		current := &components[position[root]]
		current.demands = append(current.demands, demand)
		current.demand += problem.Constraints[demand].Bound
	}
	for _, group := range groups {
		index, ok := position[find(group)]
		if !ok {
			continue // No covered demand reaches the group
		}
		components[index].groups = append(components[index].groups, group)
		components[index].capacity += problem.Constraints[group].Bound
	}
	return components, adjacent
}

// matchingShortfall reports whether some demanded unit of current cannot be served by a distinct unit of capacity
func matchingShortfall(problem *Problem, current component, adjacent map[[2]int]bool, expired func() bool) (bool, error) {
	left := make([]any, 0, current.demand)
	for _, demand := range current.demands {
		for range problem.Constraints[demand].Bound {
			left = append(left, demandUnit{constraint: demand})
		}
	}
	if len(left) == 0 {
		return false, nil
	}
	right := make([]any, 0, current.capacity)
	for _, group := range current.groups {
		for range problem.Constraints[group].Bound {
			right = append(right, capacityUnit{constraint: group})
		}
	}

	tests := 0
	neighbours := func(demand, capacity any) (bool, error) {
		tests++
		if tests%expiryInterval == 0 && expired() {
			return false, errCapacityExpired
		}
		return adjacent[[2]int{demand.(demandUnit).constraint, capacity.(capacityUnit).constraint}], nil
	}
	graph, err := bipartitegraph.NewBipartiteGraph(left, right, neighbours)
	if err != nil {
		return false, errCapacityExpired
	}
	return len(graph.LargestMatching()) < len(left), nil
}
