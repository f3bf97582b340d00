package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/gitfixes/core"
	"github.com/huangsam/gitfixes/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	client  contract.GitClient
	mgr     contract.CacheManager
}

// configFor clones the base config and points it at the requested repository.
func (h *toolHandler) configFor(ctx context.Context, request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("repo_path", ""); p != "" {
		root, err := h.client.GetRepoRoot(ctx, contract.ExpandHome(p))
		if err != nil {
			return nil, err
		}
		cfg.RepoPath = root
	}
	return cfg, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleFindFixes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid repository: %v", err)), nil
	}
	if r := request.GetString("revision", ""); r != "" {
		cfg.Revision = r
	}
	if f := request.GetString("file", ""); f != "" {
		cfg.KnownDB = contract.ExpandHome(f)
	}
	if p := request.GetString("paths", ""); p != "" {
		cfg.Paths = contract.SplitList(p)
	}
	if c := request.GetString("committer", ""); c != "" {
		cfg.Committer = c
	}
	cfg.ShowAll = request.GetBool("all", cfg.ShowAll)
	cfg.MatchAll = request.GetBool("match_all", cfg.MatchAll)

	result, err := core.RunFixes(ctx, cfg, h.client, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("fixes search failed: %v", err)), nil
	}
	return jsonResult(result)
}

func (h *toolHandler) handleWhoTouched(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid repository: %v", err)), nil
	}
	cfg.Paths = contract.SplitList(request.GetString("targets", ""))
	if p := request.GetString("pathmap", ""); p != "" {
		cfg.WhoPathMap = contract.ExpandHome(p)
	}
	if i := request.GetString("ignore", ""); i != "" {
		cfg.WhoIgnore = contract.SplitList(i)
	}
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.WhoLimit = min(l, contract.MaxWhoLimit)
	}

	people, err := core.RunWho(ctx, cfg, h.client)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("who lookup failed: %v", err)), nil
	}
	return jsonResult(people)
}

func (h *toolHandler) handleSeriesCommits(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid repository: %v", err)), nil
	}
	cfg.Revision = request.GetString("revision", "")
	if cfg.Revision == "" {
		return mcp.NewToolResultError("revision is required"), nil
	}
	cfg.SeriesBase = request.GetString("base", "")

	records, err := core.RunSeries(ctx, cfg, h.client)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("series build failed: %v", err)), nil
	}
	return jsonResult(records)
}
