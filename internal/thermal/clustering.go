package thermal

// Connectivity selects the adjacency rule used when growing clusters. The
// two modes are never mixed within a single pass: the rule is read once from
// the immutable params at pass start.
type Connectivity int

const (
	// Connectivity4 uses up/down/left/right adjacency (the default).
	Connectivity4 Connectivity = 4
	// Connectivity8 additionally treats diagonal neighbors as adjacent.
	Connectivity8 Connectivity = 8
)

var (
	offsets4 = [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	offsets8 = [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}, {-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
)

func (c Connectivity) offsets() [][2]int {
	if c == Connectivity8 {
		return offsets8
	}
	return offsets4
}

// Cell is a (row, col) grid coordinate.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Cluster is a maximal set of connected candidate cells with its summary
// statistics. Ids are assigned sequentially in row-major discovery order and
// are not stable across frames.
type Cluster struct {
	ID          int     `json:"id"`
	Cells       []Cell  `json:"-"`
	Size        int     `json:"size"`
	CentroidRow float64 `json:"centroid_row"`
	CentroidCol float64 `json:"centroid_col"`
	PeakTemp    float64 `json:"peak_temperature"`
	MeanTemp    float64 `json:"mean_temperature"`
}

// FindClusters discovers all connected components over the candidate cells
// of the mask. Candidate cells are scanned in row-major order; each
// unvisited candidate seeds a work-list flood fill that visits only adjacent
// candidate cells. Every cell is labelled at most once, so the whole pass is
// O(width x height).
//
// An explicit queue is used instead of recursion so the visited invariant is
// auditable and stack depth is never a concern.
func FindClusters(f *Frame, m *Mask, conn Connectivity) []Cluster {
	w, h := m.Width, m.Height
	labels := make([]int, w*h) // 0=unlabelled, >0=cluster id
	neighborhood := conn.offsets()

	var clusters []Cluster
	nextID := 0

	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			idx := row*w + col
			if !m.Cells[idx] || labels[idx] != 0 {
				continue
			}

			nextID++
			labels[idx] = nextID
			queue := []Cell{{Row: row, Col: col}}
			cells := make([]Cell, 0, 8)

			for len(queue) > 0 {
				c := queue[0]
				queue = queue[1:]
				cells = append(cells, c)

				for _, d := range neighborhood {
					nr, nc := c.Row+d[0], c.Col+d[1]
					if nr < 0 || nr >= h || nc < 0 || nc >= w {
						continue
					}
					nidx := nr*w + nc
					if !m.Cells[nidx] || labels[nidx] != 0 {
						continue
					}
					labels[nidx] = nextID
					queue = append(queue, Cell{Row: nr, Col: nc})
				}
			}

			clusters = append(clusters, clusterMetrics(f, cells, nextID))
		}
	}

	return clusters
}

// clusterMetrics computes the summary statistics for one cluster.
func clusterMetrics(f *Frame, cells []Cell, id int) Cluster {
	n := float64(len(cells))

	var sumRow, sumCol, sumTemp float64
	peak := f.At(cells[0].Row, cells[0].Col)
	for _, c := range cells {
		t := f.At(c.Row, c.Col)
		sumRow += float64(c.Row)
		sumCol += float64(c.Col)
		sumTemp += t
		if t > peak {
			peak = t
		}
	}

	return Cluster{
		ID:          id,
		Cells:       cells,
		Size:        len(cells),
		CentroidRow: sumRow / n,
		CentroidCol: sumCol / n,
		PeakTemp:    peak,
		MeanTemp:    sumTemp / n,
	}
}

// verifyPartition audits the core clustering invariant: the union of all
// cluster cell sets equals exactly the candidate-cell set, and no cell
// appears in two clusters. A violation is an algorithm defect, not bad
// input, and must abort the pass loudly.
func verifyPartition(m *Mask, clusters []Cluster) error {
	seen := make([]bool, len(m.Cells))
	total := 0
	for _, cl := range clusters {
		for _, c := range cl.Cells {
			idx := c.Row*m.Width + c.Col
			if !m.Cells[idx] {
				return &AnalysisError{Reason: "cluster contains a non-candidate cell"}
			}
			if seen[idx] {
				return &AnalysisError{Reason: "cell assigned to two clusters"}
			}
			seen[idx] = true
			total++
		}
	}
	if total != m.Count() {
		return &AnalysisError{Reason: "clusters do not cover the candidate set"}
	}
	return nil
}
