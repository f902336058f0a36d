package sink

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/heatsense/occupancy.report/internal/httputil"
	"github.com/heatsense/occupancy.report/internal/thermal"
	"github.com/heatsense/occupancy.report/internal/units"
)

func testReading() *thermal.Reading {
	return &thermal.Reading{
		Timestamp:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		SensorID:        "esp32-1",
		OccupantCount:   1,
		AmbientEstimate: 22.0,
		Clusters: []thermal.Cluster{
			{ID: 1, Size: 4, CentroidRow: 2.5, CentroidCol: 2.5, PeakTemp: 31.0, MeanTemp: 30.5},
		},
	}
}

func TestFormatReading(t *testing.T) {
	got := FormatReading(testReading(), units.Celsius)
	if !strings.Contains(got, "occupants=1") {
		t.Errorf("expected occupant count in %q", got)
	}
	if !strings.Contains(got, "ambient=22.0°C") {
		t.Errorf("expected ambient in %q", got)
	}
	if !strings.Contains(got, "size=4") {
		t.Errorf("expected cluster detail in %q", got)
	}

	fahrenheit := FormatReading(testReading(), units.Fahrenheit)
	if !strings.Contains(fahrenheit, "ambient=71.6°F") {
		t.Errorf("expected converted ambient in %q", fahrenheit)
	}
}

func TestConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	s := &ConsoleSink{Out: &buf, Units: units.Celsius}

	if err := s.Report(context.Background(), testReading()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "occupants=1") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestFileSinkAppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.jsonl")
	s, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := s.Report(context.Background(), testReading()); err != nil {
			t.Fatalf("report %d failed: %v", i, err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var r thermal.Reading
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines, err)
		}
		if r.OccupantCount != 1 {
			t.Errorf("line %d: expected 1 occupant, got %d", lines, r.OccupantCount)
		}
		lines++
	}
	if lines != 3 {
		t.Errorf("expected 3 lines, got %d", lines)
	}
}

func TestHTTPSinkPostsReading(t *testing.T) {
	client := httputil.NewMockHTTPClient().AddResponse(http.StatusOK, `{}`)
	s := NewHTTPSink("http://upstream/readings", client)

	if err := s.Report(context.Background(), testReading()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := client.Request(0)
	if req == nil {
		t.Fatal("expected a recorded request")
	}
	if req.Method != http.MethodPost {
		t.Errorf("expected POST, got %s", req.Method)
	}
	if ct := req.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}
}

func TestHTTPSinkReportsFailure(t *testing.T) {
	client := httputil.NewMockHTTPClient().AddResponse(http.StatusBadGateway, "upstream down")
	s := NewHTTPSink("http://upstream/readings", client)

	if err := s.Report(context.Background(), testReading()); err == nil {
		t.Error("expected error for non-200 response")
	}
}

type failingSink struct{ err error }

func (s *failingSink) Report(ctx context.Context, r *thermal.Reading) error { return s.err }

type countingSink struct{ n int }

func (s *countingSink) Report(ctx context.Context, r *thermal.Reading) error {
	s.n++
	return nil
}

func TestMultiSinkContinuesPastFailure(t *testing.T) {
	boom := errors.New("boom")
	counter := &countingSink{}
	ms := MultiSink{&failingSink{err: boom}, counter}

	err := ms.Report(context.Background(), testReading())
	if !errors.Is(err, boom) {
		t.Errorf("expected first failure returned, got %v", err)
	}
	if counter.n != 1 {
		t.Errorf("later sinks must still run, got %d deliveries", counter.n)
	}
}
