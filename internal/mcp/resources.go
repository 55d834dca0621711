// ABOUTME: MCP resource implementations for body-composition data.
// ABOUTME: Provides bodycomp://report/latest and bodycomp://history/recent resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	latestReportURI  = "bodycomp://report/latest"
	recentHistoryURI = "bodycomp://history/recent"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         latestReportURI,
		Name:        "Latest Progress Report",
		Description: "Newest progress report snapshot, computed from history when none exists",
		MIMEType:    "application/json",
	}, s.handleLatestReportResource)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         recentHistoryURI,
		Name:        "Recent Daily Records",
		Description: "Last 14 rows of the daily history table",
		MIMEType:    "application/json",
	}, s.handleRecentHistoryResource)
}

// Resource handlers

func (s *Server) handleLatestReportResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	r, source, err := s.latestReport(false)
	if err != nil {
		return nil, err
	}
	return jsonResource(latestReportURI, map[string]interface{}{
		"source": source,
		"report": r,
	})
}

func (s *Server) handleRecentHistoryResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	records, err := s.recentRecords(defaultLimit, "")
	if err != nil {
		return nil, err
	}
	return jsonResource(recentHistoryURI, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}

func jsonResource(uri string, v interface{}) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
