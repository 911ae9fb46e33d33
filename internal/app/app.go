package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	skcfg "skew/internal/config"
	"skew/internal/logger"
	"skew/internal/rebalance"
	"skew/internal/report"
	"skew/internal/scheduler"
	livehttp "skew/internal/transport/http/live"
)

// App 负责应用级编排：加载配置→初始化依赖→启动调仓循环与 HTTP 服务。
type App struct {
	cfg      *skcfg.Config
	runner   *rebalance.Runner
	liveHTTP *livehttp.Server
	store    *report.Store
	Summary  *StartupSummary
}

// NewApp 根据配置构建应用对象（不启动）
func NewApp(cfg *skcfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run 启动调仓循环与 HTTP 服务，直到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}

	if a.Summary != nil {
		a.Summary.Print()
	}
	if a.runner == nil {
		return fmt.Errorf("rebalance runner not initialized")
	}

	interval, ok := scheduler.ParseIntervalDuration(a.cfg.Engine.Interval)
	if !ok {
		return fmt.Errorf("invalid engine interval: %q", a.cfg.Engine.Interval)
	}

	group, ctx := errgroup.WithContext(ctx)

	if a.liveHTTP != nil {
		group.Go(func() error {
			if err := a.liveHTTP.Start(ctx); err != nil {
				return fmt.Errorf("live http server error: %w", err)
			}
			return nil
		})
	}

	group.Go(func() error {
		sched := scheduler.NewCycleScheduler(ctx, interval)
		sched.RunImmediately = a.cfg.Engine.RunImmediately
		sched.Start(a.runner.RunPass)
		return nil
	})

	err := group.Wait()
	if a.store != nil {
		if cerr := a.store.Close(); cerr != nil {
			logger.Warnf("closing report store: %v", cerr)
		}
	}
	return err
}
