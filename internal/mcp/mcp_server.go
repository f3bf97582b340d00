// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/gitfixes/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the gitfixes MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"gitfixes Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		client:  client,
		mgr:     mgr,
	}

	// --- 1. Tool: find_fixes ---
	s.AddTool(mcp.NewTool("find_fixes",
		mcp.WithDescription("Walk a revision range and report the commits that fix commits of a known-commit database, grouped by owner."),
		mcp.WithString("repo_path", mcp.Description("Path to the Git repository (defaults to the server's repository).")),
		mcp.WithString("revision", mcp.Description("Revision or range to walk (REV, A..B or A...B). Defaults to HEAD.")),
		mcp.WithString("file", mcp.Description("Known-commit database file (id[,owner[,path]] per line).")),
		mcp.WithString("paths", mcp.Description("Comma-separated path scope.")),
		mcp.WithString("committer", mcp.Description("Only report fixes whose owner contains this string.")),
		mcp.WithBoolean("all", mcp.Description("Report fixes for every owner.")),
		mcp.WithBoolean("match_all", mcp.Description("Also consider commit ids outside Fixes: lines.")),
	), h.handleFindFixes)

	// --- 2. Tool: who_touched ---
	s.AddTool(mcp.NewTool("who_touched",
		mcp.WithDescription("Rank the people who historically changed the given paths or the paths changed by the given revisions."),
		mcp.WithString("targets", mcp.Description("Comma-separated paths or revisions."), mcp.Required()),
		mcp.WithString("repo_path", mcp.Description("Path to the Git repository.")),
		mcp.WithString("pathmap", mcp.Description("Path map file (path;name:count;... per line).")),
		mcp.WithString("ignore", mcp.Description("Comma-separated names or files of names to leave out.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of people returned.")),
	), h.handleWhoTouched)

	// --- 3. Tool: series_commits ---
	s.AddTool(mcp.NewTool("series_commits",
		mcp.WithDescription("List the upstream commits carried by a patch-series branch."),
		mcp.WithString("revision", mcp.Description("Branch or revision holding series.conf."), mcp.Required()),
		mcp.WithString("base", mcp.Description("Only report commits absent from this revision.")),
		mcp.WithString("repo_path", mcp.Description("Path to the Git repository.")),
	), h.handleSeriesCommits)

	return s
}

// StartMCPServer starts the gitfixes MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, client, mgr)
	return server.ServeStdio(s)
}
