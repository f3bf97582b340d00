// Package core wires the fixes, who and series pipelines to the stores and
// the output layer. Commands call the Execute functions; the MCP server
// calls the Run functions and renders results itself.
package core

import (
	"context"

	"github.com/huangsam/gitfixes/internal/contract"
)

// ExecutorFunc defines the function signature for executing a command.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, client contract.GitClient, mgr contract.CacheManager) error

// storesOf returns the stores of mgr, tolerating a nil manager.
func storesOf(mgr contract.CacheManager) (contract.CacheStore, contract.HistoryStore) {
	if mgr == nil {
		return nil, nil
	}
	return mgr.GetResolveStore(), mgr.GetHistoryStore()
}
