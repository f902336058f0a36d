package api

import (
	"sync"

	"github.com/heatsense/occupancy.report/internal/thermal"
)

// DefaultSensorID is used when an uploading sensor does not identify itself.
const DefaultSensorID = "default"

// FrameCache holds the most recent frame per sensor. It is strictly an
// at-most-one-value cache: each upload overwrites the previous frame and no
// history is kept.
type FrameCache struct {
	mu     sync.RWMutex
	frames map[string]*thermal.Frame
}

// NewFrameCache creates an empty cache.
func NewFrameCache() *FrameCache {
	return &FrameCache{frames: make(map[string]*thermal.Frame)}
}

// Put stores the frame, replacing any previous frame for its sensor.
func (c *FrameCache) Put(f *thermal.Frame) {
	id := f.SensorID
	if id == "" {
		id = DefaultSensorID
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames[id] = f
}

// Latest returns the most recent frame for the sensor, or nil if none has
// arrived. An empty id selects the default sensor; if exactly one sensor has
// uploaded, that one is returned regardless of id.
func (c *FrameCache) Latest(sensorID string) *thermal.Frame {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if sensorID == "" {
		sensorID = DefaultSensorID
	}
	if f, ok := c.frames[sensorID]; ok {
		return f
	}
	if len(c.frames) == 1 {
		for _, f := range c.frames {
			return f
		}
	}
	return nil
}
