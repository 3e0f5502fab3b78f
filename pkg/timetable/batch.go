package timetable

import (
	"context"
	"fmt"

	"github.com/limaJavier/school-timetabling/pkg/model"
	"golang.org/x/sync/errgroup"
)

// BuildAll solves independent domains in parallel, at most workers at a time (unbounded when workers <= 0).
// Each solve owns its compilation and engine; timetables are returned in the order of domains
func BuildAll(ctx context.Context, timetabler Timetabler, domains []*model.Domain, workers int) ([]*Timetable, error) {
	timetables := make([]*Timetable, len(domains))

	group, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		group.SetLimit(workers)
	}
	for i, domain := range domains {
		group.Go(func() error {
			timetable, err := timetabler.Build(ctx, domain)
			if err != nil {
				return fmt.Errorf("domain %v: %w", i, err)
			}
			timetables[i] = timetable
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return timetables, nil
}
