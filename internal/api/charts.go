package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/heatsense/occupancy.report/internal/httputil"
	"github.com/heatsense/occupancy.report/internal/units"
)

// handleOccupancyChart renders a line chart of stored occupant counts.
// Debugging-only endpoint (no auth); the canvas viewer is the real UI.
// Query params:
//   - hours (optional; default 24) lookback window
func (s *Server) handleOccupancyChart(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		httputil.NotFound(w, "no readings store configured")
		return
	}

	hours := 24
	if h := r.URL.Query().Get("hours"); h != "" {
		if _, err := fmt.Sscanf(h, "%d", &hours); err != nil || hours <= 0 || hours > 24*30 {
			httputil.BadRequest(w, "hours must be in 1..720")
			return
		}
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	points, err := s.db.OccupancySeries(r.Context(), since)
	if err != nil {
		httputil.InternalServerError(w, "failed to query occupancy series: "+err.Error())
		return
	}
	if len(points) == 0 {
		httputil.NotFound(w, "no readings in window")
		return
	}

	x := make([]string, 0, len(points))
	counts := make([]opts.LineData, 0, len(points))
	ambients := make([]opts.LineData, 0, len(points))
	for _, p := range points {
		x = append(x, p.CapturedAt.Format("15:04:05"))
		counts = append(counts, opts.LineData{Value: p.OccupantCount})
		ambients = append(ambients, opts.LineData{Value: units.FromCelsius(p.Ambient, s.units)})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Occupancy History", Theme: "dark", Width: "1200px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Occupancy", Subtitle: fmt.Sprintf("last %dh, %d readings", hours, len(points))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "occupants"}),
	)
	line.SetXAxis(x).
		AddSeries("occupants", counts).
		AddSeries(fmt.Sprintf("ambient (%s)", units.Symbol(s.units)), ambients).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleThermalChart renders the latest frame as an ECharts heatmap. This is a
// quick visual check of the pixel grid; the PNG endpoint is better for
// embedding elsewhere.
func (s *Server) handleThermalChart(w http.ResponseWriter, r *http.Request) {
	frame := s.cache.Latest(r.URL.Query().Get("sensor_id"))
	if frame == nil {
		httputil.NotFound(w, "no frame available")
		return
	}

	data := make([]opts.HeatMapData, 0, len(frame.Temps))
	minT, maxT := frame.Temps[0], frame.Temps[0]
	for row := 0; row < frame.Height; row++ {
		for col := 0; col < frame.Width; col++ {
			t := frame.At(row, col)
			if t < minT {
				minT = t
			}
			if t > maxT {
				maxT = t
			}
			// Flip rows so the sensor's top row renders at the top.
			data = append(data, opts.HeatMapData{
				Value: [3]interface{}{col, frame.Height - 1 - row, units.FromCelsius(t, s.units)},
			})
		}
	}

	cols := make([]string, frame.Width)
	for i := range cols {
		cols[i] = fmt.Sprintf("%d", i)
	}
	rows := make([]string, frame.Height)
	for i := range rows {
		rows[i] = fmt.Sprintf("%d", i)
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Thermal Frame", Theme: "dark", Width: "900px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Thermal Frame",
			Subtitle: fmt.Sprintf("sensor=%s %dx%d captured=%s", frame.SensorID, frame.Width, frame.Height, frame.CapturedAt.Format(time.RFC3339)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: rows}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(units.FromCelsius(minT, s.units)),
			Max:        float32(units.FromCelsius(maxT, s.units)),
			InRange:    &opts.VisualMapInRange{Color: []string{"#313695", "#4575b4", "#74add1", "#abd9e9", "#fee090", "#fdae61", "#f46d43", "#d73027", "#a50026"}},
		}),
	)
	hm.SetXAxis(cols).AddSeries("temperature", data)

	var buf bytes.Buffer
	if err := hm.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
