package mcp

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"patchlink/internal/application"
	"patchlink/internal/application/commands"
	"patchlink/internal/domain"
)

// RegisterReadTools adds the read-only export tools to the MCP server.
func RegisterReadTools(s *server.MCPServer, exportRoot string) {
	s.AddTool(listExportsTool(), listExportsHandler(exportRoot))
	s.AddTool(readLinksTool(), readLinksHandler(exportRoot))
	s.AddTool(reducePathsTool(), reducePathsHandler())
}

// --- list_exports ---

func listExportsTool() mcp.Tool {
	return mcp.NewTool("list_exports",
		mcp.WithDescription("List the patch directories of the export root, newest first, with their predecessor and link manifest size."),
	)
}

func listExportsHandler(root string) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		statuses, err := application.ScanExports(root)
		if errors.Is(err, application.ErrNoVersionDirs) {
			return mcp.NewToolResultText("No patch directories."), nil
		}
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		for _, st := range statuses {
			sb.WriteString(formatStatus(st))
			sb.WriteByte('\n')
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- read_links ---

func readLinksTool() mcp.Tool {
	return mcp.NewTool("read_links",
		mcp.WithDescription("Read the link manifest of a patch: the paths it shares with its predecessor through symlinks."),
		mcp.WithString("version",
			mcp.Description("Patch version (e.g. 14.3)"),
			mcp.Required(),
		),
	)
}

func readLinksHandler(root string) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw := req.GetString("version", "")
		if raw == "" {
			return toolError(fmt.Errorf("version is required"))
		}
		version, err := domain.ParseVersion(raw)
		if err != nil {
			return toolError(err)
		}

		path := domain.LinkManifestPath(filepath.Join(root, version.String()))
		f, err := os.Open(path)
		if errors.Is(err, fs.ErrNotExist) {
			return toolError(fmt.Errorf("no link manifest for patch %s", version))
		}
		if err != nil {
			return toolError(fmt.Errorf("reading link manifest: %w", err))
		}
		defer f.Close()

		links, err := domain.ReadLinkManifest(f)
		if err != nil {
			return toolError(err)
		}
		if len(links) == 0 {
			return mcp.NewToolResultText("No links."), nil
		}
		return mcp.NewToolResultText(string(links.Encode())), nil
	}
}

// --- reduce_paths ---

func reducePathsTool() mcp.Tool {
	return mcp.NewTool("reduce_paths",
		mcp.WithDescription("Reduce a set of unchanged paths to the minimal list of files and directories to link. Path lists are newline separated."),
		mcp.WithString("unchanged",
			mcp.Description("Paths identical in both patches"),
			mcp.Required(),
		),
		mcp.WithString("previous",
			mcp.Description("All paths of the previous patch"),
			mcp.Required(),
		),
		mcp.WithString("excluded",
			mcp.Description("Changed paths that must not be covered by a link"),
		),
	)
}

func reducePathsHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cmd := commands.NewReduceCommand(
			splitLines(req.GetString("unchanged", "")),
			splitLines(req.GetString("previous", "")),
			splitLines(req.GetString("excluded", "")),
		)
		result, err := cmd.Execute(ctx)
		if err != nil {
			return toolError(err)
		}
		return mcp.NewToolResultText(result.Message + "\n" + string(result.Links.Encode())), nil
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

func formatStatus(st application.PatchStatus) string {
	previous := "-"
	if !st.Previous.IsZero() {
		previous = st.Previous.String()
	}
	links := "no manifest"
	if st.HasManifest {
		links = fmt.Sprintf("%d links", st.LinkCount)
	}
	return fmt.Sprintf("%s  prev %s  %s", st.Version, previous, links)
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
