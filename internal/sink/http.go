package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/heatsense/occupancy.report/internal/httputil"
	"github.com/heatsense/occupancy.report/internal/thermal"
)

// HTTPSink forwards each reading to another service as a JSON POST.
type HTTPSink struct {
	URL    string
	Client httputil.HTTPClient
}

// NewHTTPSink creates a forwarding sink. A nil client falls back to the
// default client.
func NewHTTPSink(url string, client httputil.HTTPClient) *HTTPSink {
	if client == nil {
		client = httputil.NewStandardClient(nil)
	}
	return &HTTPSink{URL: url, Client: client}
}

// Report POSTs the reading.
func (s *HTTPSink) Report(ctx context.Context, r *thermal.Reading) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build forward request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to forward reading: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("forward endpoint returned %s", resp.Status)
	}
	return nil
}
