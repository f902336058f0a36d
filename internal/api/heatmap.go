package api

import (
	"fmt"
	"net/http"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/heatsense/occupancy.report/internal/httputil"
	"github.com/heatsense/occupancy.report/internal/thermal"
	"github.com/heatsense/occupancy.report/internal/units"
)

// frameGrid adapts a thermal frame to plotter.GridXYZ. Rows are flipped so
// the sensor's top row plots at the top of the image.
type frameGrid struct {
	frame *thermal.Frame
	unit  string
}

func (g frameGrid) Dims() (c, r int) { return g.frame.Width, g.frame.Height }
func (g frameGrid) X(c int) float64  { return float64(c) }
func (g frameGrid) Y(r int) float64  { return float64(r) }

func (g frameGrid) Z(c, r int) float64 {
	return units.FromCelsius(g.frame.At(g.frame.Height-1-r, c), g.unit)
}

// handleHeatmapPNG renders the latest frame as a PNG heatmap.
func (s *Server) handleHeatmapPNG(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	frame := s.cache.Latest(r.URL.Query().Get("sensor_id"))
	if frame == nil {
		httputil.NotFound(w, "no frame available")
		return
	}

	pal := palette.Heat(16, 1)
	hm := plotter.NewHeatMap(frameGrid{frame: frame, unit: s.units}, pal)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (%s)", frame.SensorID, units.Symbol(s.units))
	p.X.Label.Text = "column"
	p.Y.Label.Text = "row"
	p.Add(hm)

	wt, err := p.WriterTo(8*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render heatmap: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := wt.WriteTo(w); err != nil {
		// Client likely went away mid-write; nothing useful to report.
		return
	}
}
