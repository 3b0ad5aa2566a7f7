// ABOUTME: GraphViz visualization MCP handler
// ABOUTME: Provides the funnel_graph tool for agents
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/harperreed/leadledger/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VizHandlers struct {
	db *sql.DB
}

func NewVizHandlers(database *sql.DB) *VizHandlers {
	return &VizHandlers{db: database}
}

type FunnelGraphInput struct{}

type FunnelGraphOutput struct {
	DOTSource string `json:"dot_source"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) FunnelGraph(ctx context.Context, _ *mcp.CallToolRequest, _ FunnelGraphInput) (*mcp.CallToolResult, FunnelGraphOutput, error) {
	dot, err := viz.NewGraphGenerator(h.db).GenerateFunnelGraph(ctx)
	if err != nil {
		return nil, FunnelGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	return nil, FunnelGraphOutput{
		DOTSource: dot,
		EdgeCount: strings.Count(dot, "->"),
	}, nil
}
