// Package report renders training diagnostics from recorded flight
// telemetry: an HTML chart of per-episode returns and top-down trajectory
// plots.
package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ascent-robotics/dronegym/internal/telemetry"
)

// RenderReturns writes an HTML line chart of total reward per episode.
func RenderReturns(w io.Writer, episodes []*telemetry.Episode) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Episode returns",
			Subtitle: fmt.Sprintf("%d recorded episodes", len(episodes)),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "episode"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "return"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)

	xs := make([]string, len(episodes))
	returns := make([]opts.LineData, len(episodes))
	steps := make([]opts.LineData, len(episodes))
	for i, ep := range episodes {
		xs[i] = fmt.Sprintf("%d", i+1)
		returns[i] = opts.LineData{Value: ep.TotalReward, Name: ep.Outcome}
		steps[i] = opts.LineData{Value: ep.Steps}
	}

	line.SetXAxis(xs).
		AddSeries("return", returns).
		AddSeries("steps", steps)

	return line.Render(w)
}
