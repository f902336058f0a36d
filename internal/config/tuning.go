// Package config loads the occupancy tuning configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/heatsense/occupancy.report/internal/thermal"
)

// TuningConfig represents the tunable analysis and monitoring parameters.
// All fields are optional; omitted fields keep their defaults, so partial
// configs are safe. The schema matches the /api/config endpoint so the same
// JSON serves startup configuration and runtime inspection.
type TuningConfig struct {
	// Segmentation params (degrees Celsius)
	MinHumanTemp      *float64 `json:"min_human_temp,omitempty"`
	MaxHumanTemp      *float64 `json:"max_human_temp,omitempty"`
	RoomTempThreshold *float64 `json:"room_temp_threshold,omitempty"`

	// Classification params (pixel counts)
	MinClusterSize *int `json:"min_cluster_size,omitempty"`
	MaxClusterSize *int `json:"max_cluster_size,omitempty"`

	// Clustering adjacency: 4 (edges only) or 8 (edges + diagonals)
	Connectivity *int `json:"connectivity,omitempty"`

	// Monitor loop params
	PollInterval *string `json:"poll_interval,omitempty"` // duration string like "3s"
	FetchTimeout *string `json:"fetch_timeout,omitempty"` // duration string like "10s"

	// Ambient baseline EWMA factor in [0,1); 0 disables smoothing
	AmbientSmoothing *float64 `json:"ambient_smoothing,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields unset.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must have
// a .json extension and be under 1MB.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that configured values are usable. Threshold combination
// checks live with the analysis params; this covers what can be rejected
// before the engine ever runs.
func (c *TuningConfig) Validate() error {
	if c.MinHumanTemp != nil && c.MaxHumanTemp != nil && *c.MinHumanTemp > *c.MaxHumanTemp {
		return fmt.Errorf("empty temperature band: min_human_temp %.1f > max_human_temp %.1f", *c.MinHumanTemp, *c.MaxHumanTemp)
	}
	if c.MinClusterSize != nil && *c.MinClusterSize < 0 {
		return fmt.Errorf("min_cluster_size must be non-negative, got %d", *c.MinClusterSize)
	}
	if c.MaxClusterSize != nil && *c.MaxClusterSize < 0 {
		return fmt.Errorf("max_cluster_size must be non-negative, got %d", *c.MaxClusterSize)
	}
	if c.Connectivity != nil && *c.Connectivity != 4 && *c.Connectivity != 8 {
		return fmt.Errorf("connectivity must be 4 or 8, got %d", *c.Connectivity)
	}
	if c.PollInterval != nil && *c.PollInterval != "" {
		if _, err := time.ParseDuration(*c.PollInterval); err != nil {
			return fmt.Errorf("invalid poll_interval '%s': %w", *c.PollInterval, err)
		}
	}
	if c.FetchTimeout != nil && *c.FetchTimeout != "" {
		if _, err := time.ParseDuration(*c.FetchTimeout); err != nil {
			return fmt.Errorf("invalid fetch_timeout '%s': %w", *c.FetchTimeout, err)
		}
	}
	if c.AmbientSmoothing != nil && (*c.AmbientSmoothing < 0 || *c.AmbientSmoothing >= 1) {
		return fmt.Errorf("ambient_smoothing must be in [0, 1), got %f", *c.AmbientSmoothing)
	}
	return nil
}

// GetMinHumanTemp returns the min_human_temp value or the default.
func (c *TuningConfig) GetMinHumanTemp() float64 {
	if c.MinHumanTemp == nil {
		return thermal.DefaultMinHumanTemp
	}
	return *c.MinHumanTemp
}

// GetMaxHumanTemp returns the max_human_temp value or the default.
func (c *TuningConfig) GetMaxHumanTemp() float64 {
	if c.MaxHumanTemp == nil {
		return thermal.DefaultMaxHumanTemp
	}
	return *c.MaxHumanTemp
}

// GetRoomTempThreshold returns the room_temp_threshold value or the default.
func (c *TuningConfig) GetRoomTempThreshold() float64 {
	if c.RoomTempThreshold == nil {
		return thermal.DefaultRoomTempThreshold
	}
	return *c.RoomTempThreshold
}

// GetMinClusterSize returns the min_cluster_size value or the default.
func (c *TuningConfig) GetMinClusterSize() int {
	if c.MinClusterSize == nil {
		return thermal.DefaultMinClusterSize
	}
	return *c.MinClusterSize
}

// GetMaxClusterSize returns the max_cluster_size value or the default.
func (c *TuningConfig) GetMaxClusterSize() int {
	if c.MaxClusterSize == nil {
		return thermal.DefaultMaxClusterSize
	}
	return *c.MaxClusterSize
}

// GetConnectivity returns the connectivity mode or the default (4).
func (c *TuningConfig) GetConnectivity() thermal.Connectivity {
	if c.Connectivity == nil {
		return thermal.Connectivity4
	}
	return thermal.Connectivity(*c.Connectivity)
}

// GetPollInterval parses and returns the poll interval as a time.Duration.
func (c *TuningConfig) GetPollInterval() time.Duration {
	if c.PollInterval == nil || *c.PollInterval == "" {
		return 3 * time.Second // matches the firmware upload interval
	}
	d, err := time.ParseDuration(*c.PollInterval)
	if err != nil {
		return 3 * time.Second
	}
	return d
}

// GetFetchTimeout parses and returns the fetch timeout as a time.Duration.
func (c *TuningConfig) GetFetchTimeout() time.Duration {
	if c.FetchTimeout == nil || *c.FetchTimeout == "" {
		return 10 * time.Second
	}
	d, err := time.ParseDuration(*c.FetchTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// GetAmbientSmoothing returns the ambient EWMA factor or 0 (disabled).
func (c *TuningConfig) GetAmbientSmoothing() float64 {
	if c.AmbientSmoothing == nil {
		return 0
	}
	return *c.AmbientSmoothing
}

// AnalysisParams assembles the immutable per-pass parameters from the
// configured values and defaults.
func (c *TuningConfig) AnalysisParams() thermal.AnalysisParams {
	return thermal.AnalysisParams{
		MinHumanTemp:      c.GetMinHumanTemp(),
		MaxHumanTemp:      c.GetMaxHumanTemp(),
		RoomTempThreshold: c.GetRoomTempThreshold(),
		MinClusterSize:    c.GetMinClusterSize(),
		MaxClusterSize:    c.GetMaxClusterSize(),
		Connectivity:      c.GetConnectivity(),
	}
}
