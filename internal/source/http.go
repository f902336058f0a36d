package source

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/heatsense/occupancy.report/internal/httputil"
	"github.com/heatsense/occupancy.report/internal/thermal"
)

// maxFramePayload bounds how much of a response body is read. A 32x24 frame
// is ~5KB of JSON; anything near the limit is garbage.
const maxFramePayload = 1 * 1024 * 1024

// HTTPSource fetches the latest frame from an ingest server's GET endpoint
// (the sensor POSTs frames there; we pull them back out).
type HTTPSource struct {
	URL     string
	Client  httputil.HTTPClient
	Timeout time.Duration
}

// NewHTTPSource creates an HTTP frame source. A nil client falls back to the
// default client; a zero timeout disables the per-fetch deadline.
func NewHTTPSource(url string, client httputil.HTTPClient, timeout time.Duration) *HTTPSource {
	if client == nil {
		client = httputil.NewStandardClient(nil)
	}
	return &HTTPSource{URL: url, Client: client, Timeout: timeout}
}

// Fetch GETs the latest frame. The request is bounded by the configured
// timeout so a stalled server cannot hang the monitor loop.
func (s *HTTPSource) Fetch(ctx context.Context) (*thermal.Frame, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, &FetchError{Source: s.URL, Reason: "building request", Err: err}
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, &FetchError{Source: s.URL, Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// The ingest cache is empty until the sensor's first upload.
		return nil, &FetchError{Source: s.URL, Reason: "no frame available yet"}
	case resp.StatusCode != http.StatusOK:
		return nil, &FetchError{Source: s.URL, Reason: "unexpected status " + resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFramePayload))
	if err != nil {
		return nil, &FetchError{Source: s.URL, Reason: "reading response", Err: err}
	}

	return thermal.DecodeWireFrame(body, time.Now())
}
