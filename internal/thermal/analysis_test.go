package thermal

import (
	"errors"
	"testing"
	"time"
)

func TestAnalyzeCountsTwoPeople(t *testing.T) {
	f := gridFrame(16, 12, 22.0, map[Cell]float64{
		{2, 2}: 31.0, {2, 3}: 31.5, {3, 2}: 30.5, {3, 3}: 31.0,
		{8, 10}: 32.0, {8, 11}: 32.5, {9, 10}: 31.5,
	})
	f.CapturedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	reading, err := Analyze(f, DefaultAnalysisParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reading.OccupantCount != 2 {
		t.Errorf("expected 2 occupants, got %d", reading.OccupantCount)
	}
	if len(reading.Clusters) != reading.OccupantCount {
		t.Errorf("occupant count %d disagrees with %d clusters", reading.OccupantCount, len(reading.Clusters))
	}
	if reading.AmbientEstimate != 22.0 {
		t.Errorf("expected ambient 22.0, got %g", reading.AmbientEstimate)
	}
	if !reading.Timestamp.Equal(f.CapturedAt) {
		t.Errorf("reading timestamp %v should match capture time %v", reading.Timestamp, f.CapturedAt)
	}
	if reading.SensorID != "test" {
		t.Errorf("expected sensor id %q, got %q", "test", reading.SensorID)
	}
}

func TestAnalyzeEmptyRoom(t *testing.T) {
	f := gridFrame(8, 8, 21.5, nil)
	reading, err := Analyze(f, DefaultAnalysisParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reading.OccupantCount != 0 {
		t.Errorf("expected 0 occupants in empty room, got %d", reading.OccupantCount)
	}
}

func TestAnalyzeRejectsBadParams(t *testing.T) {
	f := gridFrame(4, 4, 22.0, nil)
	p := DefaultAnalysisParams()
	p.MinHumanTemp = 45.0 // above MaxHumanTemp

	_, err := Analyze(f, p)
	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestAnalyzeRejectsBadFrame(t *testing.T) {
	f := &Frame{Width: 4, Height: 4, Temps: make([]float64, 10)}
	_, err := Analyze(f, DefaultAnalysisParams())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestAnalyzeWithAmbientOverride(t *testing.T) {
	// The supplied baseline, not the frame median, drives segmentation: at
	// 28 ambient the 30.5 blob no longer clears the 3 degree delta.
	f := gridFrame(8, 8, 22.0, map[Cell]float64{
		{2, 2}: 30.5, {2, 3}: 30.5,
	})

	reading, err := AnalyzeWithAmbient(f, 28.0, DefaultAnalysisParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reading.OccupantCount != 0 {
		t.Errorf("expected 0 occupants with raised baseline, got %d", reading.OccupantCount)
	}
	if reading.AmbientEstimate != 28.0 {
		t.Errorf("reading should report the baseline used, got %g", reading.AmbientEstimate)
	}
}

func TestParamsValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*AnalysisParams)
		ok     bool
	}{
		{"defaults", func(p *AnalysisParams) {}, true},
		{"empty band", func(p *AnalysisParams) { p.MinHumanTemp = 41 }, false},
		{"negative size", func(p *AnalysisParams) { p.MinClusterSize = -1 }, false},
		{"inverted sizes", func(p *AnalysisParams) { p.MinClusterSize = 10; p.MaxClusterSize = 5 }, false},
		{"bad connectivity", func(p *AnalysisParams) { p.Connectivity = 6 }, false},
		{"8-connectivity", func(p *AnalysisParams) { p.Connectivity = Connectivity8 }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultAnalysisParams()
			tc.mutate(&p)
			err := p.Validate()
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
