package who

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/gitfixes/internal/contract"
	"github.com/huangsam/gitfixes/schema"
)

// Classify turns command arguments into repository paths. An argument that
// resolves to a commit contributes the paths that commit changed; anything
// else is taken literally as a path.
func Classify(ctx context.Context, client contract.GitClient, repoPath string, args []string) ([]string, error) {
	seen := make(map[string]struct{})
	var paths []string
	add := func(p string) {
		if _, ok := seen[p]; ok || p == "" {
			return
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}

	for _, arg := range args {
		changed, ok, err := revisionPaths(ctx, client, repoPath, arg)
		if err != nil {
			return nil, err
		}
		if !ok {
			add(arg)
			continue
		}
		for _, p := range changed {
			add(p)
		}
	}
	return paths, nil
}

// revisionPaths lists what rev touched: the full tree of a root commit, or
// the diff against the first parent. A revision that resolves is never taken
// as a path, so backend failures after that point are returned.
func revisionPaths(ctx context.Context, client contract.GitClient, repoPath, rev string) ([]string, bool, error) {
	id, err := client.ResolveRevision(ctx, repoPath, rev)
	if errors.Is(err, contract.ErrRevisionNotFound) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}

	commit, err := walkedCommit(ctx, client, repoPath, id)
	if err != nil {
		return nil, false, err
	}
	if commit.IsRoot() {
		files, err := client.ListTree(ctx, repoPath, id, nil)
		if err != nil {
			return nil, false, fmt.Errorf("list tree of %s: %w", rev, err)
		}
		return files, true, nil
	}

	changes, err := client.DiffTree(ctx, repoPath, commit.Parents[0], id, nil)
	if err != nil {
		return nil, false, fmt.Errorf("diff %s against %s: %w", rev, commit.Parents[0], err)
	}
	files := make([]string, 0, len(changes))
	for _, c := range changes {
		if c.NewPath != "" {
			files = append(files, c.NewPath)
		} else {
			files = append(files, c.OldPath)
		}
	}
	return files, true, nil
}

// errWalkDone stops a walk after its first commit.
var errWalkDone = errors.New("walk done")

// walkedCommit reads id and its parents. The walk starts at id, so the first
// commit it yields is id itself.
func walkedCommit(ctx context.Context, client contract.GitClient, repoPath, id string) (schema.WalkedCommit, error) {
	var found schema.WalkedCommit
	err := client.WalkCommits(ctx, repoPath, []string{id}, nil, false, func(c schema.WalkedCommit) error {
		found = c
		return errWalkDone
	})
	switch {
	case errors.Is(err, errWalkDone):
		return found, nil
	case err != nil:
		return schema.WalkedCommit{}, fmt.Errorf("read commit %s: %w", id, err)
	default:
		return schema.WalkedCommit{}, fmt.Errorf("read commit %s: no commit returned", id)
	}
}
