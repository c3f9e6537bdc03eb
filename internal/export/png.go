package export

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/pidtune/internal/analysis"
	"github.com/san-kum/pidtune/internal/pipeline"
	"github.com/san-kum/pidtune/internal/process"
)

const (
	plotWidth  = 10 * vg.Inch
	plotHeight = 6 * vg.Inch
	plotDPI    = 96
)

var (
	black = color.RGBA{A: 255}
	grey  = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	rgb   = []color.RGBA{
		{R: 31, G: 119, B: 180, A: 255},
		{R: 214, G: 39, B: 40, A: 255},
		{R: 44, G: 160, B: 44, A: 255},
		{R: 255, G: 127, B: 14, A: 255},
		{R: 148, G: 103, B: 189, A: 255},
	}
)

func newPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	return p
}

func xys(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}
	return pts
}

func addLine(p *plot.Plot, name string, x, y []float64, c color.Color, dashed bool) error {
	line, err := plotter.NewLine(xys(x, y))
	if err != nil {
		return err
	}
	line.LineStyle.Color = c
	line.LineStyle.Width = vg.Points(1.5)
	if dashed {
		line.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(3)}
	}
	p.Add(line)
	if name != "" {
		p.Legend.Add(name, line)
	}
	return nil
}

func addHLine(p *plot.Plot, name string, y, x0, x1 float64, c color.Color) error {
	return addLine(p, name, []float64{x0, x1}, []float64{y, y}, c, true)
}

// RawPlot shows the measured output and input of an experiment.
func RawPlot(exp process.Experiment) (*plot.Plot, error) {
	p := newPlot("Step test", "time", "value")
	if err := addLine(p, "output", exp.Time, exp.Output, rgb[0], false); err != nil {
		return nil, err
	}
	if err := addLine(p, "input", exp.Time, exp.Input, rgb[1], false); err != nil {
		return nil, err
	}
	return p, nil
}

// IdentificationPlot overlays the smoothed output, the two crossing levels
// and the crossing points on the raw data.
func IdentificationPlot(exp process.Experiment, id pipeline.Identification) (*plot.Plot, error) {
	title := fmt.Sprintf("%s identification: K=%.4g tau=%.4g theta=%.4g",
		id.Method, id.Model.Gain, id.Model.TimeConstant, id.Model.DeadTime)
	p := newPlot(title, "time", "output")

	if err := addLine(p, "raw", exp.Time, exp.Output, grey, false); err != nil {
		return nil, err
	}
	if len(id.Smoothed) == exp.Len() {
		if err := addLine(p, "smoothed", exp.Time, id.Smoothed, rgb[0], false); err != nil {
			return nil, err
		}
	}
	t0, t1 := exp.Time[0], exp.Time[exp.Len()-1]
	if err := addHLine(p, "y1", id.Y1, t0, t1, rgb[2]); err != nil {
		return nil, err
	}
	if err := addHLine(p, "y2", id.Y2, t0, t1, rgb[3]); err != nil {
		return nil, err
	}

	pts, err := plotter.NewScatter(plotter.XYs{{X: id.T1, Y: id.Y1}, {X: id.T2, Y: id.Y2}})
	if err != nil {
		return nil, err
	}
	pts.GlyphStyle.Color = rgb[1]
	pts.GlyphStyle.Radius = vg.Points(4)
	p.Add(pts)
	p.Legend.Add("t1, t2", pts)
	return p, nil
}

// ResponsePlot compares closed-loop responses against the unit setpoint.
func ResponsePlot(outcomes []pipeline.Outcome) (*plot.Plot, error) {
	p := newPlot("Closed-loop step response", "time", "output")
	end := 0.0
	for i, o := range outcomes {
		name := fmt.Sprintf("%s (Kp=%.3g Ti=%.3g Td=%.3g)", o.PID.Rule, o.PID.Kp, o.PID.Ti, o.PID.Td)
		if err := addLine(p, name, o.Response.Time, o.Response.Output, rgb[i%len(rgb)], false); err != nil {
			return nil, err
		}
		if n := len(o.Response.Time); n > 0 {
			end = max(end, o.Response.Time[n-1])
		}
	}
	if err := addHLine(p, "setpoint", 1, 0, end, black); err != nil {
		return nil, err
	}
	return p, nil
}

// ErrorPlot shows the tracking error e = 1 − y of each response.
func ErrorPlot(outcomes []pipeline.Outcome) (*plot.Plot, error) {
	p := newPlot("Tracking error", "time", "e")
	for i, o := range outcomes {
		if err := addLine(p, string(o.PID.Rule), o.Response.Time, o.Response.TrackingError(), rgb[i%len(rgb)], false); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// FilterPlot overlays each analyzed smoothing on the raw series.
func FilterPlot(t, y []float64, results []analysis.FilterResult) (*plot.Plot, error) {
	p := newPlot("Filter comparison", "time", "output")
	if err := addLine(p, "raw", t, y, grey, false); err != nil {
		return nil, err
	}
	for i, r := range results {
		name := fmt.Sprintf("window=%d order=%d", r.WindowLength, r.PolynomialOrder)
		if err := addLine(p, name, t, r.Smoothed, rgb[i%len(rgb)], false); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// WritePNG renders p into w.
func WritePNG(p *plot.Plot, w io.Writer) error {
	c := vgimg.NewWith(
		vgimg.UseWH(plotWidth, plotHeight),
		vgimg.UseDPI(plotDPI),
	)
	p.Draw(draw.New(c))

	bw := bufio.NewWriter(w)
	pngc := vgimg.PngCanvas{Canvas: c}
	if _, err := pngc.WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}

func SavePNG(p *plot.Plot, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()
	return WritePNG(p, f)
}
