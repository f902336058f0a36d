package thermal

import "time"

// Reading is the terminal artifact of one analysis pass: the occupant count
// plus the metadata of each qualifying cluster. Immutable once produced.
type Reading struct {
	Timestamp       time.Time `json:"timestamp"`
	SensorID        string    `json:"sensor_id,omitempty"`
	OccupantCount   int       `json:"occupant_count"`
	Clusters        []Cluster `json:"clusters"`
	AmbientEstimate float64   `json:"ambient_estimate"`
}

// Analyze runs the full pipeline on one frame: segmentation, clustering,
// classification. The ambient baseline is the frame's own median; use
// AnalyzeWithAmbient to supply a smoothed baseline instead.
func Analyze(f *Frame, p AnalysisParams) (*Reading, error) {
	return AnalyzeWithAmbient(f, AmbientEstimate(f), p)
}

// AnalyzeWithAmbient runs the pipeline with an explicit ambient baseline.
// The reading reports the baseline segmentation actually used.
func AnalyzeWithAmbient(f *Frame, ambient float64, p AnalysisParams) (*Reading, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	mask := Segment(f, ambient, p)
	clusters := FindClusters(f, mask, p.Connectivity)
	if err := verifyPartition(mask, clusters); err != nil {
		return nil, err
	}
	occupants := FilterOccupants(clusters, p)

	return &Reading{
		Timestamp:       f.CapturedAt,
		SensorID:        f.SensorID,
		OccupantCount:   len(occupants),
		Clusters:        occupants,
		AmbientEstimate: ambient,
	}, nil
}
