package fixes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/huangsam/gitfixes/internal/contract"
	"github.com/huangsam/gitfixes/schema"
)

// Options configures one pipeline session.
type Options struct {
	RepoPath string
	Revision string   // single revision, A..B or A...B
	Paths    []string // requested path scope
	Reverse  bool     // oldest first
	Grouping bool
	MatchAll bool // also try references outside "Fixes:" lines
}

// Session owns the mutable state of one fixes run and drives the per-commit
// pipeline. The index, blacklists and attributor are shared read-only.
type Session struct {
	client     contract.GitClient
	opts       Options
	index      *Index
	blacklist  *Blacklist
	scope      *ScopeFilter
	attributor *Attributor
	resolver   *Resolver

	agg     *Aggregator
	reverts RevertMap
	stats   schema.RunStats
}

// NewSession wires the pipeline components for one run. cache may be nil.
// Every indexed id is added to the blacklist so known commits are never
// reported as fixes of themselves.
func NewSession(client contract.GitClient, opts Options, index *Index, blacklist *Blacklist, paths PathBlacklist, attributor *Attributor, cache contract.CacheStore) *Session {
	combined := NewBlacklist(index.IDs()...)
	if blacklist != nil {
		combined.Add(blacklist.ids...)
	}
	return &Session{
		client:     client,
		opts:       opts,
		index:      index,
		blacklist:  combined,
		scope:      NewScopeFilter(client, opts.RepoPath, opts.Paths, paths),
		attributor: attributor,
		resolver:   NewResolver(client, opts.RepoPath, cache),
	}
}

// Run walks the configured range, prunes reverted matches once and returns
// the grouped result. Each call starts from fresh state.
func (s *Session) Run(ctx context.Context) (schema.FixesResult, error) {
	s.agg = NewAggregator(s.opts.Grouping)
	s.reverts = make(RevertMap)
	s.stats = schema.RunStats{}

	include, exclude, err := s.walkRange(ctx)
	if err != nil {
		return schema.FixesResult{}, err
	}

	err = s.client.WalkCommits(ctx, s.opts.RepoPath, include, exclude, s.opts.Reverse, func(commit schema.WalkedCommit) error {
		return s.processCommit(ctx, commit)
	})
	if err != nil {
		return schema.FixesResult{}, fmt.Errorf("walk %s: %w", s.opts.Revision, err)
	}

	s.stats.Pruned = s.agg.Prune(s.reverts)
	return schema.FixesResult{Groups: s.agg.Groups(), Stats: s.stats}, nil
}

// Stats returns the counters of the current or last run, including a run
// that stopped on an error.
func (s *Session) Stats() schema.RunStats {
	return s.stats
}

// processCommit runs parse, resolve, lookup, scope and attribution for one
// commit. The first reference that passes every check wins.
func (s *Session) processCommit(ctx context.Context, walked schema.WalkedCommit) error {
	s.stats.Commits++

	commit, revertTarget := ParseMessage(walked.ID, walked.Message)
	if revertTarget != "" {
		s.reverts.Record(walked.ID, revertTarget)
		s.stats.Reverts++
	}

	if s.blacklist.Contains(walked.ID) {
		return nil
	}

	var inScope *bool
	for _, ref := range commit.References {
		if !ref.FixTag && !s.opts.MatchAll {
			continue
		}
		id, ok, err := s.resolver.Resolve(ctx, ref.Token)
		if err != nil {
			return fmt.Errorf("resolve %s in %s: %w", ref.Token, walked.ID, err)
		}
		if !ok {
			continue
		}
		entry, found := s.index.Lookup(id)
		if !found {
			continue
		}

		// Scope depends only on the commit, so it is computed at most once.
		if inScope == nil {
			matches, err := s.scope.Matches(ctx, walked)
			if err != nil {
				return err
			}
			inScope = &matches
		}
		if !*inScope {
			return nil
		}

		accept, owner := s.attributor.Attribute(entry, walked.AuthorEmail, walked.CommitterEmail)
		if !accept {
			continue
		}
		s.agg.Add(owner, schema.MatchResult{
			CommitID:   walked.ID,
			Subject:    commit.Subject,
			Owner:      owner,
			Stable:     commit.Stable,
			SourcePath: entry.SourcePath,
		})
		s.stats.Matches++
		return nil
	}
	return nil
}

// walkRange turns the revision argument into include and exclude lists.
//
//	A..B   walks B hiding A
//	A...B  walks A and B hiding their merge base
//	R      walks R
//
// An empty side of a range defaults to HEAD.
func (s *Session) walkRange(ctx context.Context) ([]string, []string, error) {
	rev := s.opts.Revision
	if rev == "" {
		rev = contract.DefaultRevision
	}

	if from, to, ok := strings.Cut(rev, "..."); ok {
		a, err := s.resolveEndpoint(ctx, from)
		if err != nil {
			return nil, nil, err
		}
		b, err := s.resolveEndpoint(ctx, to)
		if err != nil {
			return nil, nil, err
		}
		base, err := s.client.MergeBase(ctx, s.opts.RepoPath, a, b)
		if err != nil {
			return nil, nil, fmt.Errorf("merge base of %s: %w", rev, err)
		}
		return []string{a, b}, []string{base}, nil
	}

	if from, to, ok := strings.Cut(rev, ".."); ok {
		a, err := s.resolveEndpoint(ctx, from)
		if err != nil {
			return nil, nil, err
		}
		b, err := s.resolveEndpoint(ctx, to)
		if err != nil {
			return nil, nil, err
		}
		return []string{b}, []string{a}, nil
	}

	id, err := s.resolveEndpoint(ctx, rev)
	if err != nil {
		return nil, nil, err
	}
	return []string{id}, nil, nil
}

// resolveEndpoint resolves one side of a range. Failing to resolve the range
// is fatal, unlike a reference found in a message.
func (s *Session) resolveEndpoint(ctx context.Context, rev string) (string, error) {
	if rev == "" {
		rev = contract.DefaultRevision
	}
	id, err := s.client.ResolveRevision(ctx, s.opts.RepoPath, rev)
	if errors.Is(err, contract.ErrRevisionNotFound) {
		return "", fmt.Errorf("cannot resolve revision %q: %w", rev, err)
	} else if err != nil {
		return "", err
	}
	return id, nil
}
