// Package mcpserver exposes a tool registry through the mark3labs/mcp-go
// framework. The cloud variant uses it as its only transport; the registry
// itself stays framework-agnostic.
package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	mcpGoServer "github.com/mark3labs/mcp-go/server"

	"github.com/mobilemcp/droidbridge/internal/usecase"
)

// New builds an MCP server and registers every tool from the registry.
func New(name, version string, registry *usecase.Registry, logger *slog.Logger) *mcpGoServer.MCPServer {
	srv := mcpGoServer.NewMCPServer(name, version)
	log := logger.With("component", "mcpserver")

	for _, entry := range registry.Entries() {
		schema, err := json.Marshal(entry.Tool.InputSchema)
		if err != nil {
			// Schemas are static; a marshal failure is a programming error.
			log.Error("Failed to marshal tool schema, skipping tool.",
				slog.String("tool", entry.Tool.Name), slog.Any("error", err))
			continue
		}

		tool := mcp.NewToolWithRawSchema(entry.Tool.Name, entry.Tool.Description, schema)
		handler := entry.Handler
		srv.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			text, err := handler(ctx, req.GetArguments())
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(text), nil
		})
		log.Debug("Registered tool.", slog.String("tool", entry.Tool.Name))
	}

	return srv
}

// ServeStdio runs the MCP server over the process's stdin/stdout until the
// context is canceled or the input stream closes.
func ServeStdio(ctx context.Context, srv *mcpGoServer.MCPServer) error {
	return mcpGoServer.NewStdioServer(srv).Listen(ctx, os.Stdin, os.Stdout)
}
