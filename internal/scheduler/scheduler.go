package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"skew/internal/logger"
)

// CycleScheduler fires a task on a fixed wall-clock interval. A tick that
// arrives while the previous pass is still running is skipped, not queued:
// overlapping rebalance passes would double-submit intent.
type CycleScheduler struct {
	Interval       time.Duration
	RunImmediately bool

	ctx      context.Context
	nowFn    func() time.Time
	running  atomic.Bool
	inflight sync.WaitGroup
}

func NewCycleScheduler(ctx context.Context, interval time.Duration) *CycleScheduler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &CycleScheduler{
		Interval: interval,
		ctx:      ctx,
		nowFn:    time.Now,
	}
}

// Start blocks until the context is done, invoking task per tick.
func (s *CycleScheduler) Start(task func(ctx context.Context)) {
	if s == nil || task == nil {
		return
	}
	if s.Interval <= 0 {
		logger.Warnf("CycleScheduler: invalid interval=%s, exit", s.Interval)
		return
	}
	if s.nowFn == nil {
		s.nowFn = time.Now
	}

	startAt := s.nowFn().UTC()
	logger.Infof("CycleScheduler: started interval=%s run_immediately=%v at=%s",
		s.Interval, s.RunImmediately, startAt.Format(time.RFC3339))

	if s.RunImmediately {
		s.fire(task)
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			// let the in-flight pass finish flushing before Start returns;
			// callers close the report store right after
			s.inflight.Wait()
			logger.Infof("CycleScheduler: ctx done, exit (uptime=%s)",
				s.nowFn().UTC().Sub(startAt).Truncate(time.Second))
			return
		case <-ticker.C:
			s.fire(task)
		}
	}
}

// fire runs one pass asynchronously under the skip guard.
func (s *CycleScheduler) fire(task func(ctx context.Context)) {
	if !s.running.CompareAndSwap(false, true) {
		logger.Warnf("CycleScheduler: previous pass still running, skip tick")
		return
	}
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer s.running.Store(false)
		task(s.ctx)
	}()
}
