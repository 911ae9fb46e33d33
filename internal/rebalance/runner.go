// Package rebalance orchestrates one scheduler tick: every group is evaluated
// and executed concurrently, results are merged into the shared report state,
// and the pass ends with a single flush to the configured sinks.
package rebalance

import (
	"context"
	"sync"

	"skew/internal/engine"
	"skew/internal/executor"
	"skew/internal/gateway/notifier"
	"skew/internal/logger"
	"skew/internal/report"
)

type Runner struct {
	groups      []*engine.Group
	coordinator *executor.Coordinator
	collector   *report.Collector
	sinks       []report.Sink
	notify      notifier.TextNotifier
}

func NewRunner(groups []*engine.Group, coord *executor.Coordinator, collector *report.Collector, sinks []report.Sink, notify notifier.TextNotifier) *Runner {
	return &Runner{
		groups:      groups,
		coordinator: coord,
		collector:   collector,
		sinks:       sinks,
		notify:      notify,
	}
}

// RunPass evaluates and executes every group once. Groups are isolated: a
// failing or panicking group is logged and skipped, its siblings still run to
// completion, so no errgroup-style shared cancellation here.
func (r *Runner) RunPass(ctx context.Context) {
	var wg sync.WaitGroup
	for _, g := range r.groups {
		wg.Add(1)
		go func(g *engine.Group) {
			defer wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					logger.Errorf("[%s] pass panic: %v", g.Name(), rec)
				}
			}()
			r.runGroup(ctx, g)
		}(g)
	}
	wg.Wait()

	r.collector.Flush(ctx, r.sinks...)
}

func (r *Runner) runGroup(ctx context.Context, g *engine.Group) {
	res, err := g.Evaluate(ctx)
	if err != nil {
		logger.Errorf("[%s] evaluate failed: %v", g.Name(), err)
		return
	}
	outcomes := r.coordinator.Execute(ctx, res)
	r.collector.Merge(res, outcomes)

	if err := notifier.Notify(r.notify, res, outcomes); err != nil {
		logger.Warnf("[%s] notify failed: %v", g.Name(), err)
	}
}
