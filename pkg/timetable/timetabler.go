package timetable

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/limaJavier/school-timetabling/pkg/model"
	"github.com/limaJavier/school-timetabling/pkg/search"
	"go.uber.org/zap"
)

type Timetabler interface {
	// Compiles, solves and extracts a timetable. Infeasible and timed-out solves are returned as timetables, not errors
	Build(ctx context.Context, domain *model.Domain) (*Timetable, error)

	Verify(timetable *Timetable, domain *model.Domain) error
}

// Observer is notified of every finished solve
type Observer interface {
	ObserveSolve(status search.Status, stats search.Stats)
}

type Config struct {
	Budget               time.Duration // Per solve; search.DefaultBudget when non-positive
	Logger               *zap.Logger
	Observer             Observer
	DisableCapacityCheck bool
}

type engineTimetabler struct {
	config Config
	logger *zap.Logger
}

func NewTimetabler(config Config) Timetabler {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Budget <= 0 {
		config.Budget = search.DefaultBudget
	}
	return &engineTimetabler{
		config: config,
		logger: config.Logger,
	}
}

func (timetabler *engineTimetabler) Build(ctx context.Context, domain *model.Domain) (*Timetable, error) {
	logger := timetabler.logger.With(zap.String("run_id", uuid.NewString()))

	//** Compile
	compilation, err := model.Compile(domain)
	if err != nil {
		logger.Warn("compilation failed", zap.Error(err))
		return nil, err
	}
	logger.Info("problem compiled",
		zap.Int("classes", len(domain.Classes)),
		zap.Int("teachers", len(domain.Teachers)),
		zap.Int("slots", len(domain.Slots)),
		zap.Int("variables", compilation.Problem.Variables),
		zap.Int("constraints", len(compilation.Problem.Constraints)),
	)

	//** Solve
	engine, err := search.NewEngine(compilation.Problem, search.Config{
		Logger:               logger,
		DisableCapacityCheck: timetabler.config.DisableCapacityCheck,
	})
	if err != nil {
		return nil, err
	}
	result, err := engine.Solve(ctx, timetabler.config.Budget)
	if err != nil {
		return nil, err
	}
	if timetabler.config.Observer != nil {
		timetabler.config.Observer.ObserveSolve(result.Status, result.Stats)
	}

	//** Extract
	timetable := Extract(compilation, result)
	logger.Info("solve finished",
		zap.Stringer("status", result.Status),
		zap.String("reason", result.Reason),
		zap.Int("rows", timetable.Len()),
		zap.Int("nodes", result.Stats.Nodes),
		zap.Int("backtracks", result.Stats.Backtracks),
		zap.Duration("duration", result.Stats.Duration),
	)
	return timetable, nil
}

func (timetabler *engineTimetabler) Verify(timetable *Timetable, domain *model.Domain) error {
	return Verify(timetable, domain)
}
