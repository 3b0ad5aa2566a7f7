// ABOUTME: MCP server subcommand
// ABOUTME: Serves read-only ledger tools, resources and prompts over stdio
package cli

import (
	"context"
	"database/sql"

	"github.com/harperreed/leadledger/handlers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// NewMCPServer registers every tool, resource and prompt against database.
func NewMCPServer(database *sql.DB, version string) *mcp.Server {
	contactHandlers := handlers.NewContactHandlers(database)
	reportHandlers := handlers.NewReportHandlers(database)
	vizHandlers := handlers.NewVizHandlers(database)
	resourceHandlers := handlers.NewResourceHandlers(database)
	promptHandlers := handlers.NewPromptHandlers(database)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "leadledger",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_contacts",
		Description: "Search imported contacts by email or name",
	}, contactHandlers.FindContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "contact_history",
		Description: "Show one contact with all stored payments and timeline events",
	}, contactHandlers.ContactHistory)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "funnel_summary",
		Description: "Contacts per funnel stage with the overall conversion rate",
	}, reportHandlers.FunnelSummary)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "revenue_summary",
		Description: "Revenue and refunds per payment source",
	}, reportHandlers.RevenueSummary)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_imports",
		Description: "Recent import runs with row counts, errors and warnings",
	}, reportHandlers.ListImports)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "funnel_graph",
		Description: "Graphviz DOT source of the funnel with step conversion rates",
	}, vizHandlers.FunnelGraph)

	for _, r := range []struct{ name, desc string }{
		{"funnel", "Funnel stage counts"},
		{"revenue", "Revenue by payment source"},
		{"imports", "Recent import runs"},
	} {
		server.AddResource(&mcp.Resource{
			URI:         handlers.ResourceScheme + r.name,
			Name:        r.name,
			Description: r.desc,
			MIMEType:    "application/json",
		}, resourceHandlers.ReadResource)
	}
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: handlers.ResourceScheme + "contacts/{email}",
		Name:        "contact",
		Description: "One stored contact",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddPrompt(&mcp.Prompt{
		Name:        "contact-summary",
		Description: "Summarize one lead and suggest the next action",
		Arguments:   []*mcp.PromptArgument{{Name: "email", Description: "Contact email", Required: true}},
	}, promptHandlers.GetPrompt)
	server.AddPrompt(&mcp.Prompt{
		Name:        "funnel-review",
		Description: "Review the funnel and find the weakest step",
	}, promptHandlers.GetPrompt)

	return server
}

// MCPCommand starts the MCP server on stdio
func MCPCommand(ctx context.Context, app *App, version string) error {
	database, err := app.DB()
	if err != nil {
		return err
	}
	app.Logger.Info("starting MCP server", zap.String("db", app.Config.DBPath))
	return NewMCPServer(database, version).Run(ctx, &mcp.StdioTransport{})
}
