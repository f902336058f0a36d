package thermal

import "fmt"

// Default analysis tunables. The absolute band brackets human skin/clothing
// temperatures as seen by a low-resolution sensor; the delta threshold is
// relative to the ambient estimate of each frame.
const (
	DefaultMinHumanTemp      = 25.0 // Celsius
	DefaultMaxHumanTemp      = 40.0 // Celsius
	DefaultRoomTempThreshold = 3.0  // Celsius above ambient
	DefaultMinClusterSize    = 2    // pixels
	DefaultMaxClusterSize    = 60   // pixels
)

// AnalysisParams holds the immutable tuning for one analysis pass. The
// pipeline is a pure function of (frame, params); nothing here is mutated
// after construction.
type AnalysisParams struct {
	MinHumanTemp      float64
	MaxHumanTemp      float64
	RoomTempThreshold float64
	MinClusterSize    int
	MaxClusterSize    int
	Connectivity      Connectivity
}

// DefaultAnalysisParams returns params with the stock tunables and
// 4-neighbor connectivity.
func DefaultAnalysisParams() AnalysisParams {
	return AnalysisParams{
		MinHumanTemp:      DefaultMinHumanTemp,
		MaxHumanTemp:      DefaultMaxHumanTemp,
		RoomTempThreshold: DefaultRoomTempThreshold,
		MinClusterSize:    DefaultMinClusterSize,
		MaxClusterSize:    DefaultMaxClusterSize,
		Connectivity:      Connectivity4,
	}
}

// ConfigError indicates an invalid threshold combination. Fatal at startup;
// no analysis runs with a broken configuration.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + e.Reason
}

// Validate rejects threshold combinations that can never segment correctly.
func (p AnalysisParams) Validate() error {
	if p.MinHumanTemp > p.MaxHumanTemp {
		return &ConfigError{Reason: fmt.Sprintf("empty temperature band [%.1f, %.1f]", p.MinHumanTemp, p.MaxHumanTemp)}
	}
	if p.MinClusterSize < 0 || p.MaxClusterSize < 0 {
		return &ConfigError{Reason: fmt.Sprintf("negative cluster bounds [%d, %d]", p.MinClusterSize, p.MaxClusterSize)}
	}
	if p.MinClusterSize > p.MaxClusterSize {
		return &ConfigError{Reason: fmt.Sprintf("inverted cluster bounds [%d, %d]", p.MinClusterSize, p.MaxClusterSize)}
	}
	if p.Connectivity != Connectivity4 && p.Connectivity != Connectivity8 {
		return &ConfigError{Reason: fmt.Sprintf("connectivity must be 4 or 8, got %d", p.Connectivity)}
	}
	return nil
}
