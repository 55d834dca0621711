// ABOUTME: Tests for bodycomp configuration management.
// ABOUTME: Covers defaults, load/save, environment overlay, paths, and validation.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/bodycomp/internal/models"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Goal.Metric != "fat_pct" {
		t.Errorf("Goal.Metric = %q, want fat_pct", cfg.Goal.Metric)
	}
	if cfg.Goal.Target != 12.0 {
		t.Errorf("Goal.Target = %v, want 12", cfg.Goal.Target)
	}
	if got := cfg.GetWindows(); len(got) != 3 || got[0] != 7 || got[2] != 28 {
		t.Errorf("GetWindows() = %v, want [7 14 28]", got)
	}
	if cfg.GetDeliveryTimeout() != 10*time.Second {
		t.Errorf("GetDeliveryTimeout() = %v", cfg.GetDeliveryTimeout())
	}
	if cfg.GetPollInterval() != 30*time.Second {
		t.Errorf("GetPollInterval() = %v", cfg.GetPollInterval())
	}
	if !cfg.Server.ProcessOnReceive {
		t.Error("ProcessOnReceive should default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestGetDataDirDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.GetDataDir(); got == "" {
		t.Error("GetDataDir() returned empty string")
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := &Config{DataDir: "/tmp/bodycomp-test"}
	cases := map[string]string{
		cfg.GetPayloadDir(): "/tmp/bodycomp-test/payloads",
		cfg.HistoryPath():   "/tmp/bodycomp-test/reports/daily_history.csv",
		cfg.RollingPath():   "/tmp/bodycomp-test/reports/rolling_stats.csv",
		cfg.IndexPath():     "/tmp/bodycomp-test/reports/index_table.csv",
		cfg.SnapshotPath():  "/tmp/bodycomp-test/reports/snapshots",
		cfg.LedgerPath():    "/tmp/bodycomp-test/ledger.db",
	}
	for got, want := range cases {
		if got != want {
			t.Errorf("path = %q, want %q", got, want)
		}
	}

	cfg.ReportsDir = "/srv/reports"
	if got := cfg.HistoryPath(); got != "/srv/reports/daily_history.csv" {
		t.Errorf("HistoryPath() = %q", got)
	}
}

func TestExpandPathTilde(t *testing.T) {
	home, _ := os.UserHomeDir()

	if got := ExpandPath("~/data/bodycomp"); got != filepath.Join(home, "data/bodycomp") {
		t.Errorf("ExpandPath(\"~/data/bodycomp\") = %q", got)
	}
	if got := ExpandPath("/tmp/foo"); got != "/tmp/foo" {
		t.Errorf("ExpandPath(\"/tmp/foo\") = %q", got)
	}
	if got := ExpandPath(""); got != "" {
		t.Errorf("ExpandPath(\"\") = %q", got)
	}
}

func TestLoadNonExistentConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with no config file should not error: %v", err)
	}
	if cfg.Goal.Metric != "fat_pct" {
		t.Errorf("expected default goal metric, got %q", cfg.Goal.Metric)
	}
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(t.TempDir(), "nonexistent"))

	cfg := Default()
	cfg.DataDir = "/tmp/bodycomp-data"
	cfg.Goal.Target = 15
	cfg.CutoffDate = "2025-06-01"
	cfg.Windows = []int{5, 10, 20}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	info, err := os.Stat(GetConfigPath())
	if err != nil {
		t.Fatalf("config file missing: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded.DataDir != "/tmp/bodycomp-data" || loaded.Goal.Target != 15 {
		t.Errorf("loaded = %+v", loaded)
	}
	if got := loaded.GetWindows(); len(got) != 3 || got[0] != 5 {
		t.Errorf("Windows = %v, want [5 10 20]", got)
	}
	cutoff, err := loaded.GetCutoff()
	if err != nil || cutoff.Format(models.DateLayout) != "2025-06-01" {
		t.Errorf("GetCutoff() = %v, %v", cutoff, err)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"goal":{"metric":"weight_kg","target":70}}`), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}
	if cfg.Goal.Metric != "weight_kg" || cfg.Goal.Target != 70 {
		t.Errorf("Goal = %+v", cfg.Goal)
	}
	if cfg.Thresholds.StallTolerance != 0.1 {
		t.Errorf("StallTolerance = %v, want default 0.1", cfg.Thresholds.StallTolerance)
	}
	if cfg.Nutrition.FiberGood != 25 {
		t.Errorf("FiberGood = %v, want default 25", cfg.Nutrition.FiberGood)
	}
}

func TestEnvironmentOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	t.Setenv("OURA_ACCESS_TOKEN", "oura-secret")
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "line-secret")
	t.Setenv("LINE_USER_ID", "U42")
	t.Setenv("BODYCOMP_LINE_ENABLED", "true")
	t.Setenv("BODYCOMP_GOAL_TARGET", "13.5")
	t.Setenv("BODYCOMP_WINDOWS", "7,21,35")
	t.Setenv("PORT", "8080")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}
	if cfg.Oura.Token != "oura-secret" || cfg.Line.Token != "line-secret" || cfg.Line.To != "U42" {
		t.Errorf("tokens not applied: %+v %+v", cfg.Oura, cfg.Line)
	}
	if !cfg.Line.Enabled {
		t.Error("BODYCOMP_LINE_ENABLED not applied")
	}
	if cfg.Goal.Target != 13.5 {
		t.Errorf("Goal.Target = %v, want 13.5", cfg.Goal.Target)
	}
	if got := cfg.GetWindows(); len(got) != 3 || got[1] != 21 {
		t.Errorf("Windows = %v", got)
	}
	if cfg.GetAddr() != ":8080" {
		t.Errorf("GetAddr() = %q, want :8080", cfg.GetAddr())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("invalid json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("Expected error for invalid JSON config")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown metric", func(c *Config) { c.Goal.Metric = "bmi" }},
		{"decreasing windows", func(c *Config) { c.Windows = []int{14, 7} }},
		{"single window", func(c *Config) { c.Windows = []int{7} }},
		{"bad cutoff", func(c *Config) { c.CutoffDate = "06/01/2025" }},
		{"bad timeout", func(c *Config) { c.DeliveryTimeout = "soon" }},
		{"negative interval", func(c *Config) { c.PollInterval = "-5s" }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"oura without token", func(c *Config) { c.Oura.Enabled = true }},
		{"line without recipient", func(c *Config) { c.Line.Enabled = true; c.Line.Token = "x" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestAnalyzerOptions(t *testing.T) {
	cfg := Default()
	cfg.Goal = Goal{Metric: "weight_kg", Target: 70}
	cfg.Thresholds.StallTolerance = 0.2

	opts := cfg.AnalyzerOptions()
	if opts.GoalMetric != models.FieldWeight || opts.Target != 70 {
		t.Errorf("goal not carried: %+v", opts)
	}
	if opts.StallTolerance != 0.2 || opts.StallMetric != models.FieldFatMass {
		t.Errorf("thresholds not carried: %+v", opts)
	}
	if opts.Nutrition.WeeklyDeficit != -1000 {
		t.Errorf("WeeklyDeficit = %v", opts.Nutrition.WeeklyDeficit)
	}
}

func TestGetCutoffEmpty(t *testing.T) {
	cutoff, err := (&Config{}).GetCutoff()
	if err != nil || !cutoff.IsZero() {
		t.Errorf("GetCutoff() = %v, %v; want zero", cutoff, err)
	}
}
