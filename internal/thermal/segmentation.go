package thermal

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mask marks which cells of a frame passed segmentation. It shares the
// frame's dimensions and is owned exclusively by the analysis pass that
// produced it.
type Mask struct {
	Width  int
	Height int
	Cells  []bool // row-major, true = candidate
}

// At reports whether (row, col) is a candidate cell.
func (m *Mask) At(row, col int) bool {
	return m.Cells[row*m.Width+col]
}

// Count returns the number of candidate cells.
func (m *Mask) Count() int {
	n := 0
	for _, c := range m.Cells {
		if c {
			n++
		}
	}
	return n
}

// AmbientEstimate returns the median temperature of the frame. The median
// keeps the baseline stable when a warm body occupies part of the grid; a
// plain mean would be dragged upward by the very clusters segmentation is
// trying to find.
func AmbientEstimate(f *Frame) float64 {
	if len(f.Temps) == 0 {
		return 0
	}
	temps := make([]float64, len(f.Temps))
	copy(temps, f.Temps)
	sort.Float64s(temps)
	return stat.Quantile(0.5, stat.Empirical, temps, nil)
}

// Segment classifies each cell of the frame as candidate or background.
// A cell is a candidate iff its temperature lies within the absolute band
// [MinHumanTemp, MaxHumanTemp] AND exceeds ambient by at least
// RoomTempThreshold. Pure function of (frame, ambient, params).
func Segment(f *Frame, ambient float64, p AnalysisParams) *Mask {
	m := &Mask{
		Width:  f.Width,
		Height: f.Height,
		Cells:  make([]bool, len(f.Temps)),
	}
	for i, t := range f.Temps {
		m.Cells[i] = t >= p.MinHumanTemp && t <= p.MaxHumanTemp && t-ambient >= p.RoomTempThreshold
	}
	return m
}
