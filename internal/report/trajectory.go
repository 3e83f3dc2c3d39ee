package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ascent-robotics/dronegym/internal/telemetry"
)

// SaveTrajectory renders a top-down (x, y) plot of one episode's flight path
// as a PNG at path. The target position is drawn as a single marker.
func SaveTrajectory(path string, track []*telemetry.Transition, target [3]float64) error {
	if len(track) == 0 {
		return fmt.Errorf("no transitions to plot")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Flight path (%d steps)", len(track))
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(track))
	for i, tr := range track {
		pts[i].X = tr.Position[0]
		pts[i].Y = tr.Position[1]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("trajectory line: %w", err)
	}
	line.Width = vg.Points(1)
	line.Color = color.RGBA{B: 200, A: 255}
	p.Add(line)
	p.Legend.Add("path", line)

	goal, err := plotter.NewScatter(plotter.XYs{{X: target[0], Y: target[1]}})
	if err != nil {
		return fmt.Errorf("target marker: %w", err)
	}
	goal.GlyphStyle.Radius = vg.Points(4)
	goal.GlyphStyle.Color = color.RGBA{R: 200, A: 255}
	p.Add(goal)
	p.Legend.Add("target", goal)

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("save trajectory plot: %w", err)
	}
	return nil
}
