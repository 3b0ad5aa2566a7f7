// ABOUTME: MCP resource handlers exposing stored ledger data
// ABOUTME: Read-only JSON views of the funnel, revenue, import history and single contacts
package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/harperreed/leadledger/db"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ResourceScheme prefixes every resource URI.
const ResourceScheme = "leadledger://"

type ResourceHandlers struct {
	db *sql.DB
}

func NewResourceHandlers(database *sql.DB) *ResourceHandlers {
	return &ResourceHandlers{db: database}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, ResourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", ResourceScheme)
	}

	path := strings.TrimPrefix(uri, ResourceScheme)
	parts := strings.SplitN(path, "/", 2)

	var data any
	var err error
	switch parts[0] {
	case "funnel":
		data, err = db.FunnelCounts(ctx, h.db)
	case "revenue":
		data, err = db.RevenueBySource(ctx, h.db)
	case "imports":
		data, err = db.ListImportLogs(ctx, h.db, 0)
	case "contacts":
		if len(parts) < 2 || parts[1] == "" {
			return nil, fmt.Errorf("contact email required")
		}
		data, err = h.contact(ctx, parts[1])
	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
	if err != nil {
		return nil, err
	}

	text, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", parts[0], err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(text),
		},
	}}, nil
}

func (h *ResourceHandlers) contact(ctx context.Context, escaped string) (any, error) {
	email, err := url.PathUnescape(escaped)
	if err != nil {
		return nil, fmt.Errorf("invalid contact email: %w", err)
	}
	email = strings.ToLower(email)

	contact, err := db.GetContact(ctx, h.db, email)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contact: %w", err)
	}
	if contact == nil {
		return nil, mcp.ResourceNotFoundError(ResourceScheme + "contacts/" + escaped)
	}
	return contact, nil
}
