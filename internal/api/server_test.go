package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/heatsense/occupancy.report/internal/config"
	"github.com/heatsense/occupancy.report/internal/testutil"
	"github.com/heatsense/occupancy.report/internal/thermal"
	"github.com/heatsense/occupancy.report/internal/units"
)

const framePayload = `{"sensor_id":"esp32-1","w":2,"h":2,"min":21.0,"max":30.5,"t":[21.0,22.0,29.5,30.5]}`

func newTestServer() *Server {
	return NewServer(NewFrameCache(), nil, config.EmptyTuningConfig(), units.Celsius)
}

func TestIngestRoundTrip(t *testing.T) {
	srv := newTestServer()
	mux := srv.ServeMux()

	// Upload a frame the way the firmware does.
	req := httptest.NewRequest(http.MethodPost, "/thermal", strings.NewReader(framePayload))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var ack struct {
		Status   string `json:"status"`
		Received int    `json:"received"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if ack.Status != "success" || ack.Received != 4 {
		t.Errorf("unexpected ack %+v", ack)
	}

	// Fetch it back.
	req = httptest.NewRequest(http.MethodGet, "/thermal", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var wf thermal.WireFrame
	if err := json.Unmarshal(rec.Body.Bytes(), &wf); err != nil {
		t.Fatalf("failed to parse frame: %v", err)
	}
	if wf.SensorID != "esp32-1" {
		t.Errorf("expected sensor id esp32-1, got %q", wf.SensorID)
	}
	if wf.MinTemp != 21.0 || wf.MaxTemp != 30.5 {
		t.Errorf("expected min/max 21.0/30.5, got %g/%g", wf.MinTemp, wf.MaxTemp)
	}
	if wf.LastUpdate == "" {
		t.Error("expected last_update to be set on the way back out")
	}
}

func TestIngestRejectsBadFrames(t *testing.T) {
	srv := newTestServer()
	mux := srv.ServeMux()

	cases := []struct {
		name    string
		payload string
	}{
		{"malformed json", `{"w":2,`},
		{"wrong length", `{"w":2,"h":2,"t":[1.0]}`},
		{"missing temps", `{"w":2,"h":2}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/thermal", strings.NewReader(tc.payload))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)
		})
	}

	// A rejected frame must not pollute the cache.
	req := httptest.NewRequest(http.MethodGet, "/thermal", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)
}

func TestLatestFrameBeforeFirstUpload(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/thermal", nil)
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, req)
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)
}

func TestOccupancyEndpoint(t *testing.T) {
	srv := newTestServer()
	mux := srv.ServeMux()

	req := httptest.NewRequest(http.MethodGet, "/occupancy", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)

	srv.SetLatestReading(&thermal.Reading{
		Timestamp:       time.Now(),
		SensorID:        "esp32-1",
		OccupantCount:   2,
		AmbientEstimate: 22.0,
	})

	req = httptest.NewRequest(http.MethodGet, "/occupancy", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var reading thermal.Reading
	if err := json.Unmarshal(rec.Body.Bytes(), &reading); err != nil {
		t.Fatalf("failed to parse reading: %v", err)
	}
	if reading.OccupantCount != 2 {
		t.Errorf("expected 2 occupants, got %d", reading.OccupantCount)
	}
}

func TestConfigEndpoint(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/config", nil)
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, req)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var cfg map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("failed to parse config: %v", err)
	}
	if cfg["min_human_temp"] != 25.0 {
		t.Errorf("expected min_human_temp 25.0, got %v", cfg["min_human_temp"])
	}
	if cfg["connectivity"] != 4.0 {
		t.Errorf("expected connectivity 4, got %v", cfg["connectivity"])
	}
	if cfg["poll_interval"] != "3s" {
		t.Errorf("expected poll_interval 3s, got %v", cfg["poll_interval"])
	}
}

func TestTestEndpoint(t *testing.T) {
	srv := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, req)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["status"] != "server is running" {
		t.Errorf("unexpected status %q", body["status"])
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer()
	mux := srv.ServeMux()

	for _, path := range []string{"/occupancy", "/config"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		testutil.AssertStatusCode(t, rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestFrameCache(t *testing.T) {
	cache := NewFrameCache()

	if cache.Latest("") != nil {
		t.Error("empty cache should return nil")
	}

	f1 := &thermal.Frame{SensorID: "a", Width: 1, Height: 1, Temps: []float64{20}, CapturedAt: time.Now()}
	cache.Put(f1)

	// Single-sensor fallback: any id finds the only sensor.
	if got := cache.Latest(""); got != f1 {
		t.Error("expected single-sensor fallback for empty id")
	}
	if got := cache.Latest("a"); got != f1 {
		t.Error("expected frame by its own id")
	}

	f2 := &thermal.Frame{SensorID: "b", Width: 1, Height: 1, Temps: []float64{21}}
	cache.Put(f2)

	// With two sensors the id must match exactly.
	if got := cache.Latest("a"); got != f1 {
		t.Error("expected sensor a's frame")
	}
	if got := cache.Latest("c"); got != nil {
		t.Error("expected nil for unknown sensor with multiple sensors cached")
	}

	// Uploads replace, never accumulate.
	f3 := &thermal.Frame{SensorID: "a", Width: 1, Height: 1, Temps: []float64{22}}
	cache.Put(f3)
	if got := cache.Latest("a"); got != f3 {
		t.Error("expected newest frame for sensor a")
	}
}
