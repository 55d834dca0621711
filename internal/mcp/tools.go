// ABOUTME: MCP tool implementations for body-composition progress.
// ABOUTME: Reads reports, history and rolling series; ingests payload documents.
package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/bodycomp/internal/models"
	"github.com/harperreed/bodycomp/internal/report"
	"github.com/harperreed/bodycomp/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultLimit = 14

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_progress",
		Description: "Get the latest progress report toward the body-composition goal",
	}, s.handleGetProgress)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_history",
		Description: "List recent daily records from the history table",
	}, s.handleListHistory)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_rolling",
		Description: "Get the rolling-mean series of one field for one window",
	}, s.handleGetRolling)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "ingest_payload",
		Description: "Ingest one Health Auto Export JSON document and produce a new report",
	}, s.handleIngestPayload)
}

// Tool input/output types

type getProgressInput struct {
	Refresh bool `json:"refresh,omitempty" jsonschema:"Recompute from history instead of reading the latest snapshot"`
}

type progressOutput struct {
	Report *models.ProgressReport `json:"report"`
	Text   string                 `json:"text"`
	Source string                 `json:"source"`
}

type listHistoryInput struct {
	Limit int    `json:"limit,omitempty" jsonschema:"Max rows, newest last (default 14)"`
	Since string `json:"since,omitempty" jsonschema:"Only rows on or after this date (YYYY-MM-DD)"`
}

type getRollingInput struct {
	Field  string `json:"field" jsonschema:"Field key such as fat_pct, weight_kg, fat_mass_kg"`
	Window int    `json:"window,omitempty" jsonschema:"Window size in rows (default the short window)"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Max points, newest last (default 14)"`
}

type rollingPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type rollingOutput struct {
	Field  string         `json:"field"`
	Window int            `json:"window"`
	Unit   string         `json:"unit"`
	Points []rollingPoint `json:"points"`
}

type ingestInput struct {
	Payload string `json:"payload" jsonschema:"The Health Auto Export JSON document"`
}

type ingestOutput struct {
	RunID      string `json:"run_id"`
	Status     string `json:"status"`
	RecordDate string `json:"record_date"`
	ReportID   string `json:"report_id"`
	Delivered  bool   `json:"delivered"`
	Message    string `json:"message"`
}

// Tool handlers

func (s *Server) handleGetProgress(ctx context.Context, req *mcp.CallToolRequest, input getProgressInput) (*mcp.CallToolResult, any, error) {
	r, source, err := s.latestReport(input.Refresh)
	if err != nil {
		return nil, nil, err
	}
	return nil, progressOutput{Report: r, Text: report.Format(r), Source: source}, nil
}

// latestReport reads the newest snapshot, recomputing when none exists or
// refresh is set.
func (s *Server) latestReport(refresh bool) (*models.ProgressReport, string, error) {
	if snaps := s.pipe.Snapshots(); snaps != nil && !refresh {
		r, err := snaps.Latest()
		if err == nil {
			return r, "snapshot", nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, "", fmt.Errorf("failed to read snapshot: %w", err)
		}
	}
	_, r, err := s.pipe.Analyze()
	if err != nil {
		return nil, "", fmt.Errorf("failed to analyze history: %w", err)
	}
	return r, "computed", nil
}

func (s *Server) handleListHistory(ctx context.Context, req *mcp.CallToolRequest, input listHistoryInput) (*mcp.CallToolResult, any, error) {
	records, err := s.recentRecords(input.Limit, input.Since)
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, map[string]interface{}{"message": "No records found."}, nil
	}
	return nil, map[string]interface{}{"records": records}, nil
}

func (s *Server) recentRecords(limit int, since string) ([]models.DailyRecord, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	table, err := s.pipe.History().Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	records := table.Records()

	if since != "" {
		from, err := models.ParseDate(since)
		if err != nil {
			return nil, fmt.Errorf("invalid since date: %s", since)
		}
		var kept []models.DailyRecord
		for _, rec := range records {
			if !rec.Date.Before(from) {
				kept = append(kept, rec)
			}
		}
		records = kept
	}
	if len(records) > limit {
		records = records[len(records)-limit:]
	}
	return records, nil
}

func (s *Server) handleGetRolling(ctx context.Context, req *mcp.CallToolRequest, input getRollingInput) (*mcp.CallToolResult, rollingOutput, error) {
	field, ok := models.FieldForColumn(input.Field)
	if !ok {
		return nil, rollingOutput{}, fmt.Errorf("unknown field: %s", input.Field)
	}
	if input.Limit <= 0 {
		input.Limit = defaultLimit
	}

	table, _, err := s.pipe.Analyze()
	if err != nil {
		return nil, rollingOutput{}, fmt.Errorf("failed to analyze history: %w", err)
	}
	window := input.Window
	if window == 0 {
		window = table.Short()
	}
	if !containsWindow(table.Windows, window) {
		return nil, rollingOutput{}, fmt.Errorf("window %d is not one of %v", window, table.Windows)
	}

	series := table.Series(window, field)
	if len(series) > input.Limit {
		series = series[len(series)-input.Limit:]
	}
	out := rollingOutput{Field: string(field), Window: window, Unit: field.Unit(), Points: []rollingPoint{}}
	for _, p := range series {
		out.Points = append(out.Points, rollingPoint{Date: p.Date.Format(models.DateLayout), Value: p.Value})
	}
	return nil, out, nil
}

func containsWindow(windows []int, w int) bool {
	for _, x := range windows {
		if x == w {
			return true
		}
	}
	return false
}

func (s *Server) handleIngestPayload(ctx context.Context, req *mcp.CallToolRequest, input ingestInput) (*mcp.CallToolResult, ingestOutput, error) {
	if input.Payload == "" {
		return nil, ingestOutput{}, errors.New("payload is required")
	}

	res, err := s.pipe.Run(ctx, "mcp", []byte(input.Payload))
	if err != nil {
		return nil, ingestOutput{}, fmt.Errorf("failed to ingest payload: %w", err)
	}

	out := ingestOutput{
		RunID:      res.Run.ID.String(),
		Status:     string(res.Run.Status),
		RecordDate: res.Record.DateString(),
		ReportID:   res.Report.ID,
		Delivered:  res.Run.Delivered,
	}
	out.Message = fmt.Sprintf("Stored %s (%d fields), report %s", out.RecordDate, res.Record.Count(), out.ReportID)
	return nil, out, nil
}
