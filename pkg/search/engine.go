package search

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// DefaultBudget is used whenever a non-positive budget is handed to Solve
const DefaultBudget = 30 * time.Second

var ErrEngineUsed = errors.New("search: engine has already been run; compile and create a new engine to solve again")

type Status int32

const (
	NotStarted Status = iota
	Searching
	Solved
	Infeasible
	TimedOut
	Failed // The search broke down; Solve returned an error
)

func (status Status) String() string {
	switch status {
	case NotStarted:
		return "not-started"
	case Searching:
		return "searching"
	case Solved:
		return "solved"
	case Infeasible:
		return "infeasible"
	case TimedOut:
		return "timed-out"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int32(status))
}

// Terminal reports whether no further transition is possible from status
func (status Status) Terminal() bool {
	return status == Solved || status == Infeasible || status == TimedOut || status == Failed
}

type Stats struct {
	Nodes        int // Branching decisions taken
	Backtracks   int // Decisions undone
	Propagations int // Constraint revisions
	MaxDepth     int // Deepest decision stack
	Duration     time.Duration
}

// Result is the outcome of a search. Assignment lists the true variables in ascending order and is only set when Status is Solved
type Result struct {
	Status     Status
	Assignment []int
	Stats      Stats
	Reason     string // Short description of why the search stopped without a solution
}

type Config struct {
	Logger *zap.Logger
	// DisableCapacityCheck skips the matching-based capacity relaxation at the root; propagation and search stay complete without it
	DisableCapacityCheck bool
}

type value int8

const (
	unassigned value = iota
	assignedTrue
	assignedFalse
)

// frame is one branching decision: variable was tried as true, and as false once refuted
type frame struct {
	trailLength int
	variable    int
	refuted     bool
}

// Engine solves a single Problem once. It is not safe for concurrent use, except for Status
type Engine struct {
	problem *Problem
	config  Config
	logger  *zap.Logger
	status  atomic.Int32

	//** Search state
	values      []value
	trueCount   []int   // Per constraint: variables assigned true
	open        []int   // Per constraint: variables still unassigned
	occurrences [][]int // Per variable: constraints it belongs to
	branching   []int   // Exactly constraints, in problem order
	trail       []int   // Assigned variables, in assignment order
	queue       []int   // Constraints pending revision
	queued      []bool

	ctx      context.Context
	deadline time.Time
	stats    Stats
}

func NewEngine(problem *Problem, config Config) (*Engine, error) {
	if err := problem.Validate(); err != nil {
		return nil, fmt.Errorf("invalid problem: %w", err)
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return &Engine{
		problem: problem,
		config:  config,
		logger:  config.Logger,
	}, nil
}

func (engine *Engine) Status() Status {
	return Status(engine.status.Load())
}

// Solve runs the search within budget (DefaultBudget when budget <= 0). Cancelling ctx stops the search like an elapsed budget does;
// a nil ctx means context.Background(). Infeasibility and timeouts are reported through Result.Status. The returned error is
// non-nil when the engine was already used or when the found assignment fails the final check, which leaves the engine Failed
func (engine *Engine) Solve(ctx context.Context, budget time.Duration) (Result, error) {
	if !engine.status.CompareAndSwap(int32(NotStarted), int32(Searching)) {
		return Result{}, ErrEngineUsed
	}

	if budget <= 0 {
		budget = DefaultBudget
	}
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	engine.ctx = ctx
	engine.deadline = start.Add(budget)
	engine.initialize()

	engine.logger.Debug("search started",
		zap.Int("variables", engine.problem.Variables),
		zap.Int("constraints", len(engine.problem.Constraints)),
		zap.Duration("budget", budget),
	)

	status, reason := engine.run()
	engine.stats.Duration = time.Since(start)

	result := Result{Status: status, Stats: engine.stats, Reason: reason}
	if status == Solved {
		result.Assignment = engine.assignment()
		if !engine.problem.Satisfied(result.Assignment) {
			engine.status.Store(int32(Failed))
			return Result{}, fmt.Errorf("search: produced an assignment that violates the problem")
		}
	}
	engine.status.Store(int32(status))

	engine.logger.Debug("search finished",
		zap.Stringer("status", status),
		zap.String("reason", reason),
		zap.Int("nodes", engine.stats.Nodes),
		zap.Int("backtracks", engine.stats.Backtracks),
		zap.Duration("duration", engine.stats.Duration),
	)
	return result, nil
}

// Solve runs a fresh Engine with the default Config on problem
func Solve(ctx context.Context, problem *Problem, budget time.Duration) (Result, error) {
	engine, err := NewEngine(problem, Config{})
	if err != nil {
		return Result{}, err
	}
	return engine.Solve(ctx, budget)
}

func (engine *Engine) initialize() {
	problem := engine.problem
	engine.values = make([]value, problem.Variables)
	engine.trueCount = make([]int, len(problem.Constraints))
	engine.open = make([]int, len(problem.Constraints))
	engine.occurrences = make([][]int, problem.Variables)
	engine.queued = make([]bool, len(problem.Constraints))
	engine.queue = make([]int, 0, len(problem.Constraints))
	engine.trail = make([]int, 0, problem.Variables)
	engine.branching = make([]int, 0)

	for i, constraint := range problem.Constraints {
		engine.open[i] = len(constraint.Variables)
		for _, variable := range constraint.Variables {
			engine.occurrences[variable] = append(engine.occurrences[variable], i)
		}
		if constraint.Kind == Exactly {
			engine.branching = append(engine.branching, i)
		}
	}
}

func (engine *Engine) run() (Status, string) {
	if engine.expired() {
		return TimedOut, "budget exhausted before the search started"
	}

	//** Root propagation
	for i := range engine.problem.Constraints {
		engine.enqueue(i)
	}
	if !engine.propagate() {
		return Infeasible, "constraints are contradictory before any decision"
	}

	if !engine.config.DisableCapacityCheck {
		family, short, err := capacityShortfall(engine.problem, engine.expired)
		if err != nil {
			return TimedOut, "budget exhausted during the capacity check"
		} else if short {
			return Infeasible, fmt.Sprintf("required periods exceed the capacity of the %v constraints", family)
		}
	}

	//** Depth-first search
	stack := make([]frame, 0, 64)
	for {
		if engine.expired() {
			return TimedOut, "budget exhausted"
		}

		constraint := engine.selectConstraint()
		if constraint == -1 {
			// Every Exactly constraint is met and propagation keeps every AtMost within bounds. Variables left open are false
			return Solved, ""
		}

		variable := engine.firstOpen(constraint)
		stack = append(stack, frame{trailLength: len(engine.trail), variable: variable})
		engine.stats.Nodes++
		engine.stats.MaxDepth = max(engine.stats.MaxDepth, len(stack))

		engine.assign(variable, assignedTrue)
		if engine.propagate() {
			continue
		}

		//** Backtrack until some refutation propagates cleanly
		for {
			if len(stack) == 0 {
				return Infeasible, "search space exhausted"
			} else if engine.expired() {
				return TimedOut, "budget exhausted"
			}

			top := &stack[len(stack)-1]
			engine.undo(top.trailLength)
			engine.stats.Backtracks++
			if top.refuted {
				stack = stack[:len(stack)-1]
				continue
			}

			top.refuted = true
			engine.assign(top.variable, assignedFalse)
			if engine.propagate() {
				break
			}
		}
	}
}

// expired is the cooperative cancellation point; it is checked at every decision, every backtrack and throughout the capacity check
func (engine *Engine) expired() bool {
	select {
	case <-engine.ctx.Done():
		return true
	default:
	}
	return time.Now().After(engine.deadline)
}

func (engine *Engine) assign(variable int, assigned value) {
	engine.values[variable] = assigned
	engine.trail = append(engine.trail, variable)
	for _, constraint := range engine.occurrences[variable] {
		engine.open[constraint]--
		if assigned == assignedTrue {
			engine.trueCount[constraint]++
		}
		engine.enqueue(constraint)
	}
}

// undo unassigns variables until the trail is back to length
func (engine *Engine) undo(length int) {
	for len(engine.trail) > length {
		variable := engine.trail[len(engine.trail)-1]
		engine.trail = engine.trail[:len(engine.trail)-1]

		for _, constraint := range engine.occurrences[variable] {
			engine.open[constraint]++
			if engine.values[variable] == assignedTrue {
				engine.trueCount[constraint]--
			}
		}
		engine.values[variable] = unassigned
	}
}

func (engine *Engine) enqueue(constraint int) {
	if !engine.queued[constraint] {
		engine.queued[constraint] = true
		engine.queue = append(engine.queue, constraint)
	}
}

// propagate revises queued constraints until a fixed point. It returns false, with an empty queue, on the first violated constraint
func (engine *Engine) propagate() bool {
	for len(engine.queue) > 0 {
		index := engine.queue[len(engine.queue)-1]
		engine.queue = engine.queue[:len(engine.queue)-1]
		engine.queued[index] = false
		engine.stats.Propagations++

		constraint := &engine.problem.Constraints[index]
		trueCount, open, bound := engine.trueCount[index], engine.open[index], constraint.Bound

		if trueCount > bound || (constraint.Kind == Exactly && trueCount+open < bound) {
			engine.clearQueue()
			return false
		} else if open == 0 {
			continue
		}

		if trueCount == bound {
			// Saturated: every other member is excluded
			engine.force(constraint, assignedFalse)
		} else if constraint.Kind == Exactly && trueCount+open == bound {
			// No slack: every open member is required
			engine.force(constraint, assignedTrue)
		}
	}
	return true
}

func (engine *Engine) force(constraint *Constraint, assigned value) {
	for _, variable := range constraint.Variables {
		if engine.values[variable] == unassigned {
			engine.assign(variable, assigned)
		}
	}
}

func (engine *Engine) clearQueue() {
	for _, constraint := range engine.queue {
		engine.queued[constraint] = false
	}
	engine.queue = engine.queue[:0]
}

// selectConstraint returns the unmet Exactly constraint with the fewest open variables; ties go to the earliest constraint
func (engine *Engine) selectConstraint() int {
	best := -1
	for _, index := range engine.branching {
		if engine.trueCount[index] >= engine.problem.Constraints[index].Bound || engine.open[index] == 0 {
			continue
		}
		if best == -1 || engine.open[index] < engine.open[best] {
			best = index
		}
	}
	return best
}

func (engine *Engine) firstOpen(constraint int) int {
	for _, variable := range engine.problem.Constraints[constraint].Variables {
		if engine.values[variable] == unassigned {
			return variable
		}
	}
	return -1
}

func (engine *Engine) assignment() []int {
	assignment := make([]int, 0)
	for variable, assigned := range engine.values {
		if assigned == assignedTrue {
			assignment = append(assignment, variable)
		}
	}
	return assignment
}
