package livehttp

import (
	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"skew/internal/report"
)

// 中文说明：
// spread 走势页：按 group 分组画出每轮评估的 spread 与 baseline，肉眼即可
// 看出偏移是否在被逐步修正。

func (r *Router) handleSpreadChart(c *gin.Context) {
	points := r.collector.SpreadHistory()
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)

	for _, group := range groupNames(points) {
		page.AddCharts(buildSpreadLine(group, points))
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(c.Writer); err != nil {
		c.String(500, "render failed: %v", err)
	}
}

func groupNames(points []report.SpreadPoint) []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range points {
		if !seen[p.Group] {
			seen[p.Group] = true
			out = append(out, p.Group)
		}
	}
	return out
}

func buildSpreadLine(group string, points []report.SpreadPoint) *charts.Line {
	var xAxis []string
	var spread, baseline []opts.LineData
	for _, p := range points {
		if p.Group != group {
			continue
		}
		xAxis = append(xAxis, p.At.Format("15:04:05"))
		spread = append(spread, opts.LineData{Value: p.Spread})
		baseline = append(baseline, opts.LineData{Value: p.Baseline})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Spread " + group}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	line.SetXAxis(xAxis)
	line.AddSeries("spread", spread, charts.WithLineStyleOpts(opts.LineStyle{Width: 2}))
	line.AddSeries("baseline", baseline, charts.WithLineStyleOpts(opts.LineStyle{Width: 1, Type: "dashed"}))
	return line
}
