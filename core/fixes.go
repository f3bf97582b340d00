package core

import (
	"context"
	"fmt"
	"time"

	"github.com/huangsam/gitfixes/core/fixes"
	"github.com/huangsam/gitfixes/internal/contract"
	"github.com/huangsam/gitfixes/internal/outwriter"
	"github.com/huangsam/gitfixes/schema"
)

// ExecuteFixes runs the fixes pipeline and prints the report.
func ExecuteFixes(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) error {
	result, err := RunFixes(ctx, cfg, client, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteFixes(result, cfg)
}

// RunFixes loads the databases named by cfg, walks the configured range and
// returns the pruned, grouped report. The run is recorded in the history
// store when one is configured.
func RunFixes(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) (schema.FixesResult, error) {
	if err := cfg.ValidateFixes(); err != nil {
		return schema.FixesResult{}, err
	}

	index, err := fixes.LoadIndexFile(cfg.KnownDB)
	if err != nil {
		return schema.FixesResult{}, fmt.Errorf("cannot load known-commit database: %w", err)
	}
	blacklist := fixes.NewBlacklist(fixes.LoadBlacklistFiles(cfg.Blacklists)...)
	pathBlacklist := fixes.LoadPathBlacklistFiles(cfg.PathBlacklists)
	attributor := fixes.NewAttributor(cfg.Domains, cfg.Committer, cfg.ShowAll)

	resolveStore, historyStore := storesOf(mgr)
	opts := fixes.Options{
		RepoPath: cfg.RepoPath,
		Revision: cfg.Revision,
		Paths:    cfg.Paths,
		Reverse:  cfg.Reverse,
		Grouping: cfg.Grouping,
		MatchAll: cfg.MatchAll,
	}
	session := fixes.NewSession(client, opts, index, blacklist, pathBlacklist, attributor, resolveStore)

	runID := beginRun(historyStore, cfg)
	result, err := session.Run(ctx)
	if err != nil {
		// Close the run with what was walked and no matches.
		endRun(historyStore, runID, schema.FixesResult{Stats: session.Stats()})
		return schema.FixesResult{}, err
	}
	endRun(historyStore, runID, result)
	return result, nil
}

// beginRun starts history tracking and returns the run id, or zero when
// tracking is off or failed.
func beginRun(store contract.HistoryStore, cfg *contract.Config) int64 {
	if store == nil {
		return 0
	}
	runID, err := store.BeginRun(time.Now(), cfg.Params())
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		return 0
	}
	return runID
}

// endRun stores the reported matches in report order and finalizes the run.
func endRun(store contract.HistoryStore, runID int64, result schema.FixesResult) {
	if store == nil || runID <= 0 {
		return
	}
	position := 0
	for _, group := range result.Groups {
		for _, m := range group.Matches {
			if err := store.RecordMatch(runID, position, m); err != nil {
				contract.LogWarn("Failed to record match", err)
			}
			position++
		}
	}
	if err := store.EndRun(runID, time.Now(), result.Stats.Commits, position); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}
