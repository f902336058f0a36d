// Command frame-sim generates synthetic thermal frames and uploads them to a
// running server, standing in for an MLX90640 camera board during development.
//
// Each frame is a flat ambient field plus a configurable number of warm
// blobs that wander around the grid, so the analysis pipeline has something
// to cluster.
//
// Usage:
//
//	go run ./cmd/tools/frame-sim [flags]
//
// Flags:
//
//	-url       Ingest endpoint (default: http://localhost:8080/api/thermal)
//	-sensor    Sensor ID to report (default: sim)
//	-people    Number of warm blobs per frame (default: 2)
//	-ambient   Base temperature in Celsius (default: 22.0)
//	-interval  Upload interval (default: 3s)
//	-count     Number of frames to send, 0 for unlimited (default: 0)
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/heatsense/occupancy.report/internal/thermal"
)

type blob struct {
	row, col float64
	dr, dc   float64
	peak     float64
}

func newBlob(rng *rand.Rand, w, h int) *blob {
	return &blob{
		row:  rng.Float64() * float64(h),
		col:  rng.Float64() * float64(w),
		dr:   rng.Float64()*0.6 - 0.3,
		dc:   rng.Float64()*0.6 - 0.3,
		peak: 30.0 + rng.Float64()*4.0,
	}
}

// step moves the blob and bounces it off the frame edges.
func (b *blob) step(w, h int) {
	b.row += b.dr
	b.col += b.dc
	if b.row < 0 || b.row >= float64(h) {
		b.dr = -b.dr
		b.row += 2 * b.dr
	}
	if b.col < 0 || b.col >= float64(w) {
		b.dc = -b.dc
		b.col += 2 * b.dc
	}
}

// render adds the blob's gaussian footprint to the temperature grid.
func (b *blob) render(temps []float64, w, h int) {
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			dr := float64(row) - b.row
			dc := float64(col) - b.col
			d2 := dr*dr + dc*dc
			if d2 > 9 {
				continue
			}
			bump := (b.peak - temps[row*w+col]) * (1 - d2/9)
			if bump > 0 {
				temps[row*w+col] += bump
			}
		}
	}
}

func main() {
	url := flag.String("url", "http://localhost:8080/api/thermal", "Ingest endpoint")
	sensor := flag.String("sensor", "sim", "Sensor ID to report")
	people := flag.Int("people", 2, "Number of warm blobs per frame")
	ambient := flag.Float64("ambient", 22.0, "Base temperature in Celsius")
	interval := flag.Duration("interval", 3*time.Second, "Upload interval")
	count := flag.Int("count", 0, "Number of frames to send, 0 for unlimited")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	w, h := thermal.DefaultFrameWidth, thermal.DefaultFrameHeight

	blobs := make([]*blob, *people)
	for i := range blobs {
		blobs[i] = newBlob(rng, w, h)
	}

	log.Printf("uploading %dx%d frames to %s every %s", w, h, *url, *interval)

	client := &http.Client{Timeout: 10 * time.Second}
	sent := 0
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		temps := make([]float64, w*h)
		for i := range temps {
			temps[i] = *ambient + rng.Float64()*0.4 - 0.2
		}
		for _, b := range blobs {
			b.step(w, h)
			b.render(temps, w, h)
		}

		frame := thermal.Frame{
			SensorID: *sensor,
			Width:    w,
			Height:   h,
			Temps:    temps,
		}
		if err := upload(ctx, client, *url, &frame); err != nil {
			log.Printf("upload failed: %v", err)
		} else {
			sent++
			log.Printf("sent frame %d", sent)
		}

		if *count > 0 && sent >= *count {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func upload(ctx context.Context, client *http.Client, url string, frame *thermal.Frame) error {
	body, err := json.Marshal(frame.Wire())
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server rejected frame: %s", resp.Status)
	}
	return nil
}
