package app

import (
	"fmt"
	"sort"
	"strings"

	skcfg "skew/internal/config"
	"skew/internal/engine"
	"skew/internal/gateway/venue"
)

type StartupSummary struct {
	Venues []string
	Groups []GroupSummary
	Engine EngineSummary
}

type GroupSummary struct {
	Name     string
	Markets  []string
	Baseline float64
	MaxPer   float64
}

type EngineSummary struct {
	Interval       string
	RunImmediately bool
	MaxAttempts    int
	HTTPAddr       string
}

func buildSummary(cfg *skcfg.Config, venues map[venue.ID]venue.Venue, groupCfgs []engine.GroupConfig) *StartupSummary {
	s := &StartupSummary{
		Engine: EngineSummary{
			Interval:       cfg.Engine.Interval,
			RunImmediately: cfg.Engine.RunImmediately,
			MaxAttempts:    cfg.Engine.MaxAttempts,
			HTTPAddr:       cfg.App.HTTPAddr,
		},
	}
	for id := range venues {
		s.Venues = append(s.Venues, id.String())
	}
	sort.Strings(s.Venues)
	for _, gc := range groupCfgs {
		gs := GroupSummary{
			Name:     gc.Name,
			Baseline: gc.BaselineNotional,
			MaxPer:   gc.MaxTradeAmountPerCycle,
		}
		for _, m := range gc.Markets {
			label := fmt.Sprintf("%s@%s", m.Symbol, m.Venue)
			if m.Primary {
				label += " (primary)"
			}
			gs.Markets = append(gs.Markets, label)
		}
		s.Groups = append(s.Groups, gs)
	}
	return s
}

func (s *StartupSummary) Print() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("%*s\n", 40+len("启动配置摘要 (STARTUP SUMMARY)")/2, "启动配置摘要 (STARTUP SUMMARY)")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Println("[交易所 (VENUES)]")
	fmt.Printf("  已启用: %s\n", formatList(s.Venues))
	fmt.Println()

	fmt.Println("[调仓引擎 (ENGINE)]")
	fmt.Printf("  周期: %s (立即执行: %v)\n", s.Engine.Interval, s.Engine.RunImmediately)
	fmt.Printf("  下单重试: %d 次\n", s.Engine.MaxAttempts)
	fmt.Printf("  HTTP 监听: %s\n", s.Engine.HTTPAddr)
	fmt.Println()

	fmt.Println("[市场组 (GROUPS)]")
	if len(s.Groups) == 0 {
		fmt.Println("  (无配置)")
	} else {
		for _, g := range s.Groups {
			fmt.Printf("  > %s  baseline=%.2f  max/cycle=%.2f\n", g.Name, g.Baseline, g.MaxPer)
			for _, m := range g.Markets {
				fmt.Printf("      - %s\n", m)
			}
		}
	}
	fmt.Println(strings.Repeat("=", 80))
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
