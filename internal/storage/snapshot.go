// ABOUTME: Immutable ProgressReport snapshots written as timestamped JSON files.
// ABOUTME: Snapshots are never rewritten; the newest file is the latest report.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/harperreed/bodycomp/internal/models"
)

// ErrNotFound is returned when no snapshot exists yet.
var ErrNotFound = errors.New("not found")

const snapshotPrefix = "progress_"

// SnapshotStore keeps report snapshots in one directory.
type SnapshotStore struct {
	dir string
}

// NewSnapshotStore creates a store rooted at dir.
func NewSnapshotStore(dir string) *SnapshotStore {
	return &SnapshotStore{dir: dir}
}

// Dir returns the snapshot directory.
func (s *SnapshotStore) Dir() string {
	return s.dir
}

// Save writes the report as a new snapshot and returns its path. An existing
// snapshot with the same name is never overwritten.
func (s *SnapshotStore) Save(r *models.ProgressReport) (string, error) {
	if r.ID == "" {
		return "", fmt.Errorf("save snapshot: report has no id")
	}
	name := fmt.Sprintf("%s%s_%s.json", snapshotPrefix, r.GeneratedAt.Format("20060102_150405"), strings.ToLower(r.ID))
	path := filepath.Join(s.dir, name)

	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("save snapshot: %s already exists", name)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}
	return path, nil
}

// List returns snapshot paths, newest first. A limit of 0 returns all.
func (s *SnapshotStore) List(limit int) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), snapshotPrefix) || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, e.Name()))
	}
	// Names embed the generation time, then a time-ordered id.
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	if limit > 0 && len(paths) > limit {
		paths = paths[:limit]
	}
	return paths, nil
}

// Read loads one snapshot file.
func (s *SnapshotStore) Read(path string) (*models.ProgressReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var r models.ProgressReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", filepath.Base(path), err)
	}
	return &r, nil
}

// Latest returns the newest snapshot, or ErrNotFound.
func (s *SnapshotStore) Latest() (*models.ProgressReport, error) {
	paths, err := s.List(1)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, ErrNotFound
	}
	return s.Read(paths[0])
}
