package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/gitfixes/core/who"
	"github.com/huangsam/gitfixes/internal/contract"
	"github.com/huangsam/gitfixes/internal/outwriter"
	"github.com/huangsam/gitfixes/schema"
)

// ExecuteWho ranks the people who touched the paths and revisions in
// cfg.Paths and prints them.
func ExecuteWho(ctx context.Context, cfg *contract.Config, client contract.GitClient, _ contract.CacheManager) error {
	people, err := RunWho(ctx, cfg, client)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteWho(people, cfg)
}

// RunWho classifies cfg.Paths into repository paths, looks them up in the
// configured path map and applies the ignore list and limit.
func RunWho(ctx context.Context, cfg *contract.Config, client contract.GitClient) ([]schema.Person, error) {
	if cfg.WhoPathMap == "" {
		return nil, errors.New("no path map configured. Pass --pathmap or select a --database")
	}
	if len(cfg.Paths) == 0 {
		return nil, errors.New("at least one path or revision is required")
	}

	pathMap, err := who.LoadPathMapFile(cfg.WhoPathMap)
	if err != nil {
		return nil, fmt.Errorf("cannot load path map: %w", err)
	}
	paths, err := who.Classify(ctx, client, cfg.RepoPath, cfg.Paths)
	if err != nil {
		return nil, err
	}

	people := who.LoadIgnore(cfg.WhoIgnore).Apply(pathMap.Lookup(paths))
	if cfg.WhoLimit > 0 && len(people) > cfg.WhoLimit {
		people = people[:cfg.WhoLimit]
	}
	return people, nil
}
