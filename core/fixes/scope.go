package fixes

import (
	"context"
	"fmt"

	"github.com/huangsam/gitfixes/internal/contract"
	"github.com/huangsam/gitfixes/schema"
)

// ScopeFilter decides whether a commit touches the requested paths outside
// of the path blacklist.
type ScopeFilter struct {
	client    contract.GitClient
	repoPath  string
	paths     []string
	blacklist PathBlacklist
}

// NewScopeFilter creates a filter for the requested paths and path blacklist.
func NewScopeFilter(client contract.GitClient, repoPath string, paths []string, blacklist PathBlacklist) *ScopeFilter {
	return &ScopeFilter{client: client, repoPath: repoPath, paths: paths, blacklist: blacklist}
}

// Active reports whether the filter can reject anything.
func (f *ScopeFilter) Active() bool {
	return len(f.paths) > 0 || len(f.blacklist) > 0
}

// Matches reports whether commit is in scope. A merge is in scope when the
// diff against any one of its parents qualifies.
func (f *ScopeFilter) Matches(ctx context.Context, commit schema.WalkedCommit) (bool, error) {
	if !f.Active() {
		return true, nil
	}

	if commit.IsRoot() {
		if len(f.paths) == 0 {
			return false, nil
		}
		files, err := f.client.ListTree(ctx, f.repoPath, commit.ID, f.paths)
		if err != nil {
			return false, fmt.Errorf("list tree of %s: %w", commit.ID, err)
		}
		for _, file := range files {
			if !f.blacklist.Covers(file) {
				return true, nil
			}
		}
		return false, nil
	}

	for _, parent := range commit.Parents {
		changes, err := f.client.DiffTree(ctx, f.repoPath, parent, commit.ID, f.paths)
		if err != nil {
			return false, fmt.Errorf("diff %s against %s: %w", commit.ID, parent, err)
		}
		for _, change := range changes {
			if change.OldPath == "" && change.NewPath == "" {
				continue
			}
			if !f.blacklist.CoversChange(change) {
				return true, nil
			}
		}
	}
	return false, nil
}
