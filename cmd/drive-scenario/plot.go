package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/lixenwraith/wheelsim/telemetry"
)

const (
	plotWidth  = 10 * vg.Inch
	plotHeight = 8 * vg.Inch
	plotDPI    = 150
)

// series extracts one value per frame against simulated time
func series(frames []telemetry.Frame, value func(f *telemetry.Frame) float64) plotter.XYs {
	pts := make(plotter.XYs, len(frames))
	for i := range frames {
		pts[i].X = frames[i].Time
		pts[i].Y = value(&frames[i])
	}
	return pts
}

func addLine(p *plot.Plot, label string, idx int, pts plotter.XYs) error {
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = plotutil.Color(idx)
	p.Add(line)
	p.Legend.Add(label, line)
	return nil
}

// motionPlot shows chassis speed and engine RPM in hundreds
func motionPlot(title string, frames []telemetry.Frame) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "speed (m/s), rpm/100"
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	if err := addLine(p, "speed", 0, series(frames, func(f *telemetry.Frame) float64 {
		return f.Snapshot.Speed
	})); err != nil {
		return nil, err
	}
	if err := addLine(p, "rpm/100", 1, series(frames, func(f *telemetry.Frame) float64 {
		return f.Snapshot.RPM / 100
	})); err != nil {
		return nil, err
	}
	return p, nil
}

// slipPlot shows the slip ratio of every wheel
func slipPlot(frames []telemetry.Frame) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = "slip ratio"
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	for w := range 4 {
		name := fmt.Sprintf("wheel %d", w)
		if len(frames) > 0 && frames[0].Snapshot.Wheels[w].Name != "" {
			name = frames[0].Snapshot.Wheels[w].Name
		}
		if err := addLine(p, name, w, series(frames, func(f *telemetry.Frame) float64 {
			return f.Snapshot.Wheels[w].SlipRatio
		})); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// savePlots renders motion over slip into a single PNG
func savePlots(path, title string, frames []telemetry.Frame) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to plot")
	}
	top, err := motionPlot(title, frames)
	if err != nil {
		return err
	}
	bottom, err := slipPlot(frames)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create directory: %w", err)
		}
	}

	img := vgimg.NewWith(vgimg.UseWH(plotWidth, plotHeight), vgimg.UseDPI(plotDPI))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      2,
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      4 * vg.Millimeter,
		PadTop:    2 * vg.Millimeter,
		PadBottom: 2 * vg.Millimeter,
		PadLeft:   2 * vg.Millimeter,
		PadRight:  2 * vg.Millimeter,
	}
	canvases := plot.Align([][]*plot.Plot{{top}, {bottom}}, tiles, dc)
	top.Draw(canvases[0][0])
	bottom.Draw(canvases[1][0])

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}
