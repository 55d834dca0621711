// ABOUTME: Export and import functionality for the daily history and latest report.
// ABOUTME: Supports JSON, YAML, Markdown, and CSV export formats.
package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/bodycomp/internal/models"
	"gopkg.in/yaml.v3"
)

// ExportData represents the full export format.
type ExportData struct {
	Version    string                 `json:"version" yaml:"version"`
	ExportedAt time.Time              `json:"exported_at" yaml:"exported_at"`
	Tool       string                 `json:"tool" yaml:"tool"`
	Records    []models.DailyRecord   `json:"records" yaml:"records"`
	Report     *models.ProgressReport `json:"report,omitempty" yaml:"report,omitempty"`
}

// NewExportData collects history rows on or after since (all when nil)
// together with the latest report, which may be nil.
func NewExportData(t *HistoryTable, report *models.ProgressReport, since *time.Time) *ExportData {
	var records []models.DailyRecord
	for _, rec := range t.Records() {
		if since != nil && rec.Date.Before(models.CivilDate(*since)) {
			continue
		}
		records = append(records, rec)
	}
	return &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Tool:       "bodycomp",
		Records:    records,
		Report:     report,
	}
}

// ExportJSON exports data as JSON.
func ExportJSON(data *ExportData) ([]byte, error) {
	return json.MarshalIndent(data, "", "  ")
}

// ExportYAML exports data as YAML, listing only the measured fields of each day.
func ExportYAML(data *ExportData) ([]byte, error) {
	yamlData := struct {
		Version    string                 `yaml:"version"`
		ExportedAt string                 `yaml:"exported_at"`
		Tool       string                 `yaml:"tool"`
		Records    []yamlRecord           `yaml:"records"`
		Report     *models.ProgressReport `yaml:"report,omitempty"`
	}{
		Version:    data.Version,
		ExportedAt: data.ExportedAt.Format(time.RFC3339),
		Tool:       data.Tool,
		Records:    make([]yamlRecord, 0, len(data.Records)),
		Report:     data.Report,
	}

	for _, rec := range data.Records {
		yr := yamlRecord{Date: rec.DateString(), Values: make(map[string]float64)}
		for _, f := range models.AllFields {
			if v := rec.Get(f); v != nil {
				yr.Values[string(f)] = *v
			}
		}
		yamlData.Records = append(yamlData.Records, yr)
	}

	return yaml.Marshal(yamlData)
}

type yamlRecord struct {
	Date   string             `yaml:"date"`
	Values map[string]float64 `yaml:",inline"`
}

// DefaultMarkdownFields are the columns of a Markdown export.
var DefaultMarkdownFields = []models.Field{
	models.FieldWeight,
	models.FieldFatPct,
	models.FieldFatMass,
	models.FieldLeanMass,
	models.FieldEnergyBalance,
	models.FieldSteps,
	models.FieldSleepHours,
}

// ExportMarkdown exports the records as a Markdown table of fields.
func ExportMarkdown(data *ExportData, fields []models.Field) string {
	if len(fields) == 0 {
		fields = DefaultMarkdownFields
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Body Composition Export - %s\n\n", data.ExportedAt.Format(models.DateLayout)))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", data.ExportedAt.Format(time.RFC3339)))

	sb.WriteString("| Date |")
	for _, f := range fields {
		sb.WriteString(fmt.Sprintf(" %s (%s) |", f, f.Unit()))
	}
	sb.WriteString("\n|------|")
	for range fields {
		sb.WriteString("------|")
	}
	sb.WriteString("\n")

	for _, rec := range data.Records {
		sb.WriteString(fmt.Sprintf("| %s |", rec.DateString()))
		for _, f := range fields {
			cell := ""
			if v := rec.Get(f); v != nil {
				cell = formatCell(v)
			}
			sb.WriteString(fmt.Sprintf(" %s |", cell))
		}
		sb.WriteString("\n")
	}

	if r := data.Report; r != nil {
		sb.WriteString(fmt.Sprintf("\n## Latest report (%s)\n\n", r.AsOf.Format(models.DateLayout)))
		sb.WriteString(fmt.Sprintf("- Goal: %s → %s\n", r.Goal.Metric, formatCell(&r.Goal.Target)))
		if r.Goal.ProgressPct != nil {
			sb.WriteString(fmt.Sprintf("- Progress: %s%%\n", formatCell(r.Goal.ProgressPct)))
		}
		sb.WriteString(fmt.Sprintf("- Projection: %s\n", r.Goal.Projection.Status))
	}

	return sb.String()
}

// ExportCSV renders the history exactly as the history table file stores it.
func ExportCSV(t *HistoryTable) ([]byte, error) {
	header := t.Header
	if len(header) == 0 {
		header = DefaultHistoryHeader()
	}
	return encodeCSV(header, t.encodeRows())
}

// ImportJSON decodes a JSON export.
func ImportJSON(data []byte) (*ExportData, error) {
	var exportData ExportData
	if err := json.Unmarshal(data, &exportData); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w", err)
	}
	return &exportData, nil
}

// Import upserts records into the store in one atomic write. Records before
// the cutoff are skipped and counted.
func (s *HistoryStore) Import(records []models.DailyRecord) (imported, skipped int, err error) {
	t, err := s.Load()
	if err != nil {
		return 0, 0, err
	}
	for _, rec := range records {
		if err := s.CheckDate(rec.Date); err != nil {
			skipped++
			continue
		}
		t.Upsert(rec)
		imported++
	}
	if imported == 0 {
		return 0, skipped, nil
	}
	if err := s.Save(t); err != nil {
		return 0, skipped, err
	}
	return imported, skipped, nil
}
