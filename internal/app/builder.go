package app

import (
	"context"
	"fmt"
	"time"

	skcfg "skew/internal/config"
	"skew/internal/engine"
	"skew/internal/executor"
	"skew/internal/gateway/binance"
	"skew/internal/gateway/gate"
	"skew/internal/gateway/notifier"
	"skew/internal/gateway/venue"
	"skew/internal/groups"
	"skew/internal/logger"
	"skew/internal/pkg/circuit"
	"skew/internal/rebalance"
	"skew/internal/report"
	livehttp "skew/internal/transport/http/live"
)

type AppBuilder struct {
	cfg *skcfg.Config

	venuesFn   func(skcfg.VenuesConfig) (map[venue.ID]venue.Venue, error)
	groupsFn   func(string) ([]engine.GroupConfig, error)
	storeFn    func(skcfg.ReportConfig) (*report.Store, error)
	liveHTTPFn func(skcfg.AppConfig, *report.Collector, *report.Store) (*livehttp.Server, error)
	notifierFn func(skcfg.NotifyConfig) notifier.TextNotifier
}

type AppBuilderOption func(*AppBuilder)

func NewAppBuilder(cfg *skcfg.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:        cfg,
		venuesFn:   buildVenues,
		groupsFn:   groups.Load,
		storeFn:    buildReportStore,
		liveHTTPFn: buildLiveHTTPServer,
		notifierFn: buildNotifier,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	cfg := b.cfg
	logger.SetLevel(cfg.App.LogLevel)

	venues, err := b.venuesFn(cfg.Venues)
	if err != nil {
		return nil, err
	}

	groupCfgs, err := b.groupsFn(cfg.App.GroupsPath)
	if err != nil {
		return nil, err
	}
	engineGroups := make([]*engine.Group, 0, len(groupCfgs))
	for _, gc := range groupCfgs {
		g, err := engine.NewGroup(gc, venues)
		if err != nil {
			return nil, err
		}
		engineGroups = append(engineGroups, g)
	}

	breakers := make(map[venue.ID]*circuit.Breaker, len(venues))
	for id := range venues {
		breakers[id] = circuit.NewBreaker(id.String(), cfg.Engine.BreakerThreshold, 0)
	}

	coord := executor.NewCoordinator(executor.Config{
		MaxAttempts:  cfg.Engine.MaxAttempts,
		RetryBackoff: time.Duration(cfg.Engine.RetryBackoffSeconds) * time.Second,
	}, venues, breakers)

	collector := report.NewCollector(cfg.Report.MaxOutcomes)

	store, err := b.storeFn(cfg.Report)
	if err != nil {
		return nil, err
	}
	var sinks []report.Sink
	if store != nil {
		sinks = append(sinks, store)
	}
	if cfg.Report.SheetEndpoint != "" {
		sinks = append(sinks, report.NewSheet(cfg.Report.SheetEndpoint, cfg.Report.SheetToken))
	}

	runner := rebalance.NewRunner(engineGroups, coord, collector, sinks, b.notifierFn(cfg.Notify))

	liveHTTP, err := b.liveHTTPFn(cfg.App, collector, store)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:      cfg,
		runner:   runner,
		liveHTTP: liveHTTP,
		store:    store,
		Summary:  buildSummary(cfg, venues, groupCfgs),
	}, nil
}

func buildVenues(cfg skcfg.VenuesConfig) (map[venue.ID]venue.Venue, error) {
	out := make(map[venue.ID]venue.Venue, 2)
	if cfg.Binance.Enabled {
		v, err := binance.New(binance.Config{
			APIKey:       cfg.Binance.APIKey,
			APISecret:    cfg.Binance.APISecret,
			RESTBaseURL:  cfg.Binance.RESTBaseURL,
			ProxyEnabled: cfg.Binance.Proxy.Enabled,
			RESTProxyURL: cfg.Binance.Proxy.RESTURL,
		})
		if err != nil {
			return nil, fmt.Errorf("binance venue: %w", err)
		}
		out[venue.IDBinance] = v
	}
	if cfg.Gate.Enabled {
		v, err := gate.New(gate.Config{
			APIKey:       cfg.Gate.APIKey,
			APISecret:    cfg.Gate.APISecret,
			RESTBaseURL:  cfg.Gate.RESTBaseURL,
			Settle:       cfg.Gate.Settle,
			ProxyEnabled: cfg.Gate.Proxy.Enabled,
			RESTProxyURL: cfg.Gate.Proxy.RESTURL,
		})
		if err != nil {
			return nil, fmt.Errorf("gate venue: %w", err)
		}
		out[venue.IDGate] = v
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no venues enabled")
	}
	return out, nil
}

func buildReportStore(cfg skcfg.ReportConfig) (*report.Store, error) {
	if cfg.StorePath == "" {
		return nil, nil
	}
	return report.NewStore(cfg.StorePath)
}

func buildLiveHTTPServer(cfg skcfg.AppConfig, collector *report.Collector, store *report.Store) (*livehttp.Server, error) {
	if cfg.HTTPAddr == "" {
		return nil, nil
	}
	return livehttp.NewServer(livehttp.ServerConfig{
		Addr:      cfg.HTTPAddr,
		Collector: collector,
		Store:     store,
	})
}

func buildNotifier(cfg skcfg.NotifyConfig) notifier.TextNotifier {
	if !cfg.Telegram.Enabled {
		return nil
	}
	return notifier.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
}
