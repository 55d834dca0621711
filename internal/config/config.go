// ABOUTME: bodycomp configuration: JSON file, environment overlay, defaults, validation.
// ABOUTME: Resolves every on-disk location and builds analyzer options.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/harperreed/bodycomp/internal/analysis"
	"github.com/harperreed/bodycomp/internal/models"
	"github.com/harperreed/bodycomp/internal/stats"
	"github.com/harperreed/bodycomp/internal/storage"
	"github.com/mitchellh/go-homedir"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// File names under the reports directory.
const (
	HistoryFile = "daily_history.csv"
	RollingFile = "rolling_stats.csv"
	IndexFile   = "index_table.csv"
	SnapshotDir = "snapshots"
	LedgerFile  = "ledger.db"
)

// Goal is the tracked metric and its target value.
type Goal struct {
	Metric string  `json:"metric" env:"BODYCOMP_GOAL_METRIC"`
	Target float64 `json:"target" env:"BODYCOMP_GOAL_TARGET"`
}

// Thresholds tune plateau detection.
type Thresholds struct {
	StallTolerance  float64 `json:"stall_tolerance" env:"BODYCOMP_STALL_TOLERANCE"`
	TemperatureDrop float64 `json:"temperature_drop" env:"BODYCOMP_TEMPERATURE_DROP"`
}

// Oura enables skin temperature enrichment.
type Oura struct {
	Enabled bool   `json:"enabled" env:"BODYCOMP_OURA_ENABLED"`
	Token   string `json:"token,omitempty" env:"OURA_ACCESS_TOKEN"`
	BaseURL string `json:"base_url,omitempty" env:"BODYCOMP_OURA_BASE_URL"`
}

// Line enables push delivery.
type Line struct {
	Enabled bool   `json:"enabled" env:"BODYCOMP_LINE_ENABLED"`
	Token   string `json:"token,omitempty" env:"LINE_CHANNEL_ACCESS_TOKEN"`
	To      string `json:"to,omitempty" env:"LINE_USER_ID"`
	BaseURL string `json:"base_url,omitempty" env:"BODYCOMP_LINE_BASE_URL"`
}

// Server configures the webhook listener.
type Server struct {
	Addr             string `json:"addr,omitempty" env:"BODYCOMP_SERVER_ADDR"`
	Port             string `json:"-" env:"PORT"`
	ProcessOnReceive bool   `json:"process_on_receive" env:"BODYCOMP_PROCESS_ON_RECEIVE"`
}

// Config stores bodycomp configuration.
type Config struct {
	// DataDir is the root of every table. Supports ~ expansion.
	// Defaults to ~/.local/share/bodycomp.
	DataDir    string `json:"data_dir,omitempty" env:"BODYCOMP_DATA_DIR"`
	PayloadDir string `json:"payload_dir,omitempty" env:"BODYCOMP_PAYLOAD_DIR"`
	ReportsDir string `json:"reports_dir,omitempty" env:"BODYCOMP_REPORTS_DIR"`

	// CutoffDate (YYYY-MM-DD) rejects records dated before it.
	CutoffDate string `json:"cutoff_date,omitempty" env:"BODYCOMP_CUTOFF_DATE"`
	Windows    []int  `json:"windows,omitempty" env:"BODYCOMP_WINDOWS" envSeparator:","`

	Goal       Goal                      `json:"goal"`
	Thresholds Thresholds                `json:"thresholds"`
	Nutrition  analysis.NutritionTargets `json:"nutrition"`
	Oura       Oura                      `json:"oura"`
	Line       Line                      `json:"line"`
	Server     Server                    `json:"server"`

	DeliveryTimeout string `json:"delivery_timeout,omitempty" env:"BODYCOMP_DELIVERY_TIMEOUT"`
	PollInterval    string `json:"poll_interval,omitempty" env:"BODYCOMP_POLL_INTERVAL"`
	LogLevel        string `json:"log_level,omitempty" env:"BODYCOMP_LOG_LEVEL"`
}

// Default returns the built-in configuration.
func Default() *Config {
	opts := analysis.DefaultOptions()
	return &Config{
		Windows: append([]int(nil), stats.DefaultWindows...),
		Goal: Goal{
			Metric: string(opts.GoalMetric),
			Target: opts.Target,
		},
		Thresholds: Thresholds{
			StallTolerance:  opts.StallTolerance,
			TemperatureDrop: opts.TemperatureDrop,
		},
		Nutrition: opts.Nutrition,
		Server: Server{
			Addr:             ":5000",
			ProcessOnReceive: true,
		},
		DeliveryTimeout: "10s",
		PollInterval:    "30s",
		LogLevel:        "info",
	}
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetPayloadDir returns where raw webhook payloads live.
func (c *Config) GetPayloadDir() string {
	if c.PayloadDir == "" {
		return filepath.Join(c.GetDataDir(), "payloads")
	}
	return ExpandPath(c.PayloadDir)
}

// GetReportsDir returns where the tables and snapshots live.
func (c *Config) GetReportsDir() string {
	if c.ReportsDir == "" {
		return filepath.Join(c.GetDataDir(), "reports")
	}
	return ExpandPath(c.ReportsDir)
}

// HistoryPath is the daily history table.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.GetReportsDir(), HistoryFile)
}

// RollingPath is the rolling statistics table.
func (c *Config) RollingPath() string {
	return filepath.Join(c.GetReportsDir(), RollingFile)
}

// IndexPath is the index table.
func (c *Config) IndexPath() string {
	return filepath.Join(c.GetReportsDir(), IndexFile)
}

// SnapshotPath is the report snapshot directory.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.GetReportsDir(), SnapshotDir)
}

// LedgerPath is the SQLite run ledger.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.GetDataDir(), LedgerFile)
}

// GetAddr returns the listen address, honoring PORT.
func (c *Config) GetAddr() string {
	if c.Server.Port != "" {
		return ":" + c.Server.Port
	}
	if c.Server.Addr == "" {
		return ":5000"
	}
	return c.Server.Addr
}

// GetCutoff returns the cutoff date, zero when unset.
func (c *Config) GetCutoff() (time.Time, error) {
	if c.CutoffDate == "" {
		return time.Time{}, nil
	}
	d, err := models.ParseDate(c.CutoffDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: cutoff_date: %v", ErrInvalid, err)
	}
	return d, nil
}

// GetWindows returns the window sizes.
func (c *Config) GetWindows() []int {
	if len(c.Windows) == 0 {
		return append([]int(nil), stats.DefaultWindows...)
	}
	return c.Windows
}

// GetDeliveryTimeout returns the push timeout.
func (c *Config) GetDeliveryTimeout() time.Duration {
	return durationOr(c.DeliveryTimeout, 10*time.Second)
}

// GetPollInterval returns the watcher interval.
func (c *Config) GetPollInterval() time.Duration {
	return durationOr(c.PollInterval, 30*time.Second)
}

func durationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// AnalyzerOptions converts the goal, thresholds and nutrition settings.
func (c *Config) AnalyzerOptions() analysis.Options {
	return analysis.Options{
		GoalMetric:      models.Field(c.Goal.Metric),
		Target:          c.Goal.Target,
		StallMetric:     models.FieldFatMass,
		StallTolerance:  c.Thresholds.StallTolerance,
		TemperatureDrop: c.Thresholds.TemperatureDrop,
		Nutrition:       c.Nutrition,
	}
}

// Validate checks every recognized option.
func (c *Config) Validate() error {
	if !models.IsValidField(c.Goal.Metric) {
		return fmt.Errorf("%w: unknown goal metric %q", ErrInvalid, c.Goal.Metric)
	}
	if err := stats.ValidateWindows(c.GetWindows()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := c.GetCutoff(); err != nil {
		return err
	}
	for name, v := range map[string]string{"delivery_timeout": c.DeliveryTimeout, "poll_interval": c.PollInterval} {
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			return fmt.Errorf("%w: %s %q is not a positive duration", ErrInvalid, name, v)
		}
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalid, c.LogLevel)
	}
	if c.Oura.Enabled && c.Oura.Token == "" {
		return fmt.Errorf("%w: oura enabled without a token", ErrInvalid)
	}
	if c.Line.Enabled && (c.Line.Token == "" || c.Line.To == "") {
		return fmt.Errorf("%w: line enabled without a token and recipient", ErrInvalid)
	}
	return nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := homedir.Dir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "bodycomp", "config.json")
}

// Load reads config from the default path.
func Load() (*Config, error) {
	return LoadFile(GetConfigPath())
}

// LoadFile reads config from path over the defaults, then applies the
// environment. A missing file yields defaults plus environment.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return cfg, nil
}

// Save writes config to the default path.
func (c *Config) Save() error {
	return c.SaveFile(GetConfigPath())
}

// SaveFile writes config to path.
func (c *Config) SaveFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
