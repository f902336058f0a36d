package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/heatsense/occupancy.report/internal/thermal"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestEmptyConfigUsesDefaults(t *testing.T) {
	cfg := EmptyTuningConfig()

	if got := cfg.GetMinHumanTemp(); got != thermal.DefaultMinHumanTemp {
		t.Errorf("GetMinHumanTemp() = %g, want %g", got, thermal.DefaultMinHumanTemp)
	}
	if got := cfg.GetMaxHumanTemp(); got != thermal.DefaultMaxHumanTemp {
		t.Errorf("GetMaxHumanTemp() = %g, want %g", got, thermal.DefaultMaxHumanTemp)
	}
	if got := cfg.GetRoomTempThreshold(); got != thermal.DefaultRoomTempThreshold {
		t.Errorf("GetRoomTempThreshold() = %g, want %g", got, thermal.DefaultRoomTempThreshold)
	}
	if got := cfg.GetMinClusterSize(); got != thermal.DefaultMinClusterSize {
		t.Errorf("GetMinClusterSize() = %d, want %d", got, thermal.DefaultMinClusterSize)
	}
	if got := cfg.GetMaxClusterSize(); got != thermal.DefaultMaxClusterSize {
		t.Errorf("GetMaxClusterSize() = %d, want %d", got, thermal.DefaultMaxClusterSize)
	}
	if got := cfg.GetConnectivity(); got != thermal.Connectivity4 {
		t.Errorf("GetConnectivity() = %d, want 4", got)
	}
	if got := cfg.GetPollInterval(); got != 3*time.Second {
		t.Errorf("GetPollInterval() = %v, want 3s", got)
	}
	if got := cfg.GetFetchTimeout(); got != 10*time.Second {
		t.Errorf("GetFetchTimeout() = %v, want 10s", got)
	}
	if got := cfg.GetAmbientSmoothing(); got != 0 {
		t.Errorf("GetAmbientSmoothing() = %g, want 0", got)
	}

	if err := cfg.AnalysisParams().Validate(); err != nil {
		t.Errorf("default params should validate: %v", err)
	}
}

func TestLoadTuningConfigPartial(t *testing.T) {
	path := writeConfig(t, "tuning.json", `{
		"room_temp_threshold": 2.5,
		"connectivity": 8,
		"poll_interval": "5s"
	}`)

	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := cfg.GetRoomTempThreshold(); got != 2.5 {
		t.Errorf("GetRoomTempThreshold() = %g, want 2.5", got)
	}
	if got := cfg.GetConnectivity(); got != thermal.Connectivity8 {
		t.Errorf("GetConnectivity() = %d, want 8", got)
	}
	if got := cfg.GetPollInterval(); got != 5*time.Second {
		t.Errorf("GetPollInterval() = %v, want 5s", got)
	}
	// Unset fields keep their defaults.
	if got := cfg.GetMinHumanTemp(); got != thermal.DefaultMinHumanTemp {
		t.Errorf("GetMinHumanTemp() = %g, want default %g", got, thermal.DefaultMinHumanTemp)
	}
}

func TestLoadTuningConfigErrors(t *testing.T) {
	cases := []struct {
		name    string
		file    string
		content string
	}{
		{"wrong extension", "tuning.yaml", `{}`},
		{"malformed json", "tuning.json", `{"connectivity": `},
		{"bad connectivity", "tuning.json", `{"connectivity": 6}`},
		{"inverted band", "tuning.json", `{"min_human_temp": 40, "max_human_temp": 25}`},
		{"bad interval", "tuning.json", `{"poll_interval": "fast"}`},
		{"smoothing out of range", "tuning.json", `{"ambient_smoothing": 1.0}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.file, tc.content)
			if _, err := LoadTuningConfig(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadTuningConfigMissingFile(t *testing.T) {
	if _, err := LoadTuningConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
