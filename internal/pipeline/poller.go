// ABOUTME: Interval poller re-triggering the pipeline on unprocessed payload files.
// ABOUTME: Picks the newest health_data_*.json the ledger has not seen.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// PayloadPattern matches payload files written by the webhook.
const PayloadPattern = "health_data_*.json"

// PayloadName returns the file name for a payload received at t.
func PayloadName(t time.Time) string {
	return "health_data_" + t.Format("20060102_150405") + ".json"
}

// Poller checks a payload directory on a fixed interval.
type Poller struct {
	p        *Pipeline
	dir      string
	interval time.Duration
	logger   *log.Logger
}

// NewPoller creates a poller over dir. The pipeline must have a ledger.
func NewPoller(p *Pipeline, dir string, interval time.Duration, logger *log.Logger) *Poller {
	if logger == nil {
		logger = p.d.Logger
	}
	return &Poller{p: p, dir: dir, interval: interval, logger: logger.With("component", "poller")}
}

// Run ticks until ctx is done.
func (w *Poller) Run(ctx context.Context) error {
	w.logger.Info("watching payloads", "dir", w.dir, "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.Tick(ctx); err != nil {
				w.logger.Warn("poll failed", "err", err)
			}
		}
	}
}

// Tick runs the pipeline on the newest unprocessed payload, if any.
func (w *Poller) Tick(ctx context.Context) (*Result, error) {
	path, err := w.Next()
	if err != nil || path == "" {
		return nil, err
	}
	w.logger.Debug("processing payload", "path", path)
	return w.p.RunPending(ctx, path)
}

// Next returns the newest payload the ledger has not recorded, or "".
func (w *Poller) Next() (string, error) {
	ledger := w.p.Ledger()
	if ledger == nil {
		return "", fmt.Errorf("poll %s: pipeline has no ledger", w.dir)
	}
	paths, err := PayloadFiles(w.dir)
	if err != nil {
		return "", err
	}
	for _, path := range paths {
		done, err := ledger.IsProcessed(path)
		if err != nil {
			return "", err
		}
		if !done {
			return path, nil
		}
	}
	return "", nil
}

// PayloadFiles lists payload files in dir, newest first by name.
func PayloadFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list payloads: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(PayloadPattern, e.Name()); ok {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Slice(paths, func(i, j int) bool {
		return strings.Compare(filepath.Base(paths[i]), filepath.Base(paths[j])) > 0
	})
	return paths, nil
}
