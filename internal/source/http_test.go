package source

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/heatsense/occupancy.report/internal/httputil"
	"github.com/heatsense/occupancy.report/internal/thermal"
)

const framePayload = `{"sensor_id":"esp32-1","w":2,"h":2,"min":21.0,"max":30.5,"t":[21.0,22.0,29.5,30.5]}`

func TestHTTPSourceFetch(t *testing.T) {
	client := httputil.NewMockHTTPClient().AddResponse(http.StatusOK, framePayload)
	src := NewHTTPSource("http://sensor:8080/api/thermal", client, 10*time.Second)

	frame, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frame.SensorID != "esp32-1" {
		t.Errorf("expected sensor id esp32-1, got %q", frame.SensorID)
	}
	if frame.Width != 2 || frame.Height != 2 {
		t.Errorf("expected 2x2 frame, got %dx%d", frame.Width, frame.Height)
	}

	req := client.Request(0)
	if req == nil {
		t.Fatal("expected a recorded request")
	}
	if req.Method != http.MethodGet {
		t.Errorf("expected GET, got %s", req.Method)
	}
	if req.URL.String() != "http://sensor:8080/api/thermal" {
		t.Errorf("unexpected URL %s", req.URL)
	}
}

func TestHTTPSourceNoFrameYet(t *testing.T) {
	client := httputil.NewMockHTTPClient().AddResponse(http.StatusNotFound, `{"error":"no frame available"}`)
	src := NewHTTPSource("http://sensor:8080/api/thermal", client, 0)

	_, err := src.Fetch(context.Background())
	var ferr *FetchError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

func TestHTTPSourceServerError(t *testing.T) {
	client := httputil.NewMockHTTPClient().AddResponse(http.StatusInternalServerError, "boom")
	src := NewHTTPSource("http://sensor:8080/api/thermal", client, 0)

	_, err := src.Fetch(context.Background())
	var ferr *FetchError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

func TestHTTPSourceTransportError(t *testing.T) {
	client := httputil.NewMockHTTPClient().AddErrorResponse(errors.New("connection refused"))
	src := NewHTTPSource("http://sensor:8080/api/thermal", client, 0)

	_, err := src.Fetch(context.Background())
	var ferr *FetchError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if ferr.Err == nil {
		t.Error("FetchError should wrap the transport error")
	}
}

func TestHTTPSourceMalformedPayload(t *testing.T) {
	client := httputil.NewMockHTTPClient().AddResponse(http.StatusOK, `{"w":2,"h":2,"t":[1.0]}`)
	src := NewHTTPSource("http://sensor:8080/api/thermal", client, 0)

	_, err := src.Fetch(context.Background())
	var verr *thermal.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for bad payload, got %v", err)
	}
}

func TestSerialSourceFetch(t *testing.T) {
	src := NewSerialSource(nil)

	// Nothing received yet.
	_, err := src.Fetch(context.Background())
	var ferr *FetchError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected FetchError before first line, got %v", err)
	}

	src.mu.Lock()
	src.latest = framePayload
	src.receivedAt = time.Now()
	src.mu.Unlock()

	frame, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if frame.SensorID != "esp32-1" {
		t.Errorf("expected sensor id esp32-1, got %q", frame.SensorID)
	}
}
