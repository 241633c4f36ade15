package sim

import (
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// NewTrajectoryPlot creates new plot of platform trajectories from the three data sources:
// truth:     true positions
// reckoning: positions integrated from raw sensor data
// filter:    filter estimates
// Each source stores x and y coordinates in the first two columns of its rows.
// It returns error if the plot fails to be created. This can be due to either of the following conditions:
// * either of the supplied data matrices is nil
// * either of the supplied data matrices does not have at least 2 columns
// * gonum plot fails to be created
func NewTrajectoryPlot(truth, reckoning, filter *mat.Dense) (*plot.Plot, error) {
	if truth == nil || reckoning == nil || filter == nil {
		return nil, fmt.Errorf("invalid data supplied")
	}

	_, ct := truth.Dims()
	_, cr := reckoning.Dims()
	_, cf := filter.Dims()

	if ct < 2 || cr < 2 || cf < 2 {
		return nil, fmt.Errorf("invalid data dimensions")
	}

	p := plot.New()

	p.Title.Text = "Odometry"
	p.X.Label.Text = "X [m]"
	p.Y.Label.Text = "Y [m]"
	p.Add(plotter.NewGrid())

	legend := plot.NewLegend()
	legend.Top = true
	p.Legend = legend

	// true trajectory
	truthLine, err := plotter.NewLine(makePoints(truth))
	if err != nil {
		return nil, fmt.Errorf("failed to create line: %v", err)
	}
	truthLine.LineStyle.Color = color.RGBA{R: 255, B: 128, A: 255}
	truthLine.LineStyle.Width = vg.Points(2)

	p.Add(truthLine)
	p.Legend.Add("truth", truthLine)

	// dead reckoning
	deadScatter, err := plotter.NewScatter(makePoints(reckoning))
	if err != nil {
		return nil, fmt.Errorf("failed to create scatter: %v", err)
	}
	deadScatter.GlyphStyle.Color = color.RGBA{G: 255, A: 128}
	deadScatter.GlyphStyle.Radius = vg.Points(1)

	p.Add(deadScatter)
	p.Legend.Add("dead reckoning", deadScatter)

	// filter estimates
	filterScatter, err := plotter.NewScatter(makePoints(filter))
	if err != nil {
		return nil, fmt.Errorf("failed to create scatter: %v", err)
	}
	filterScatter.GlyphStyle.Color = color.RGBA{R: 169, G: 169, B: 169, A: 255}
	filterScatter.Shape = draw.CrossGlyph{}
	filterScatter.GlyphStyle.Radius = vg.Points(2)

	p.Add(filterScatter)
	p.Legend.Add("filtered", filterScatter)

	return p, nil
}

func makePoints(m *mat.Dense) plotter.XYs {
	r, _ := m.Dims()
	pts := make(plotter.XYs, r)
	for i := 0; i < r; i++ {
		pts[i].X = m.At(i, 0)
		pts[i].Y = m.At(i, 1)
	}

	return pts
}
