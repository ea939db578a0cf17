package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"patchlink/internal/application/commands"
)

// ChainLoader builds the export chain a write tool operates on
type ChainLoader func(ctx context.Context) (commands.Chain, error)

// RegisterWriteTools adds the tools that modify the export root to the MCP server.
func RegisterWriteTools(s *server.MCPServer, load ChainLoader) {
	s.AddTool(updateTool(), updateHandler(load))
	s.AddTool(createSymlinksTool(), createSymlinksHandler(load))
}

// --- update ---

func updateTool() mcp.Tool {
	return mcp.NewTool("update",
		mcp.WithDescription("Export every patch directory from storage and write its link manifest."),
		mcp.WithBoolean("symlinks",
			mcp.Description("Also create the symlinks listed in the manifests"),
		),
	)
}

func updateHandler(load ChainLoader) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		chain, err := load(ctx)
		if err != nil {
			return toolError(err)
		}

		cmd := commands.NewUpdateCommand(chain, req.GetBool("symlinks", false))
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}

// --- create_symlinks ---

func createSymlinksTool() mcp.Tool {
	return mcp.NewTool("create_symlinks",
		mcp.WithDescription("Create the symlinks listed in every link manifest of the export root."),
	)
}

func createSymlinksHandler(load ChainLoader) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		chain, err := load(ctx)
		if err != nil {
			return toolError(err)
		}

		result, err := commands.NewSymlinksCommand(chain).Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message), nil
	}
}
