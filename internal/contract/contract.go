// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"errors"
	"time"

	"github.com/huangsam/gitfixes/schema"
)

// ErrRevisionNotFound is returned by GitClient.ResolveRevision when a revision
// name does not resolve to a commit. Callers treat it as a recoverable miss.
var ErrRevisionNotFound = errors.New("revision not found")

// GitClient defines the repository operations needed by the fixes pipeline.
// This allows the core logic to be tested without needing a real git executable.
type GitClient interface {
	// --- Generic / Low-Level ---

	// Run executes a git command and returns its output.
	// Its use should be minimized in favor of the explicit methods below.
	Run(ctx context.Context, repoPath string, args ...string) ([]byte, error)

	// GetRepoRoot returns the absolute path to the root of the Git repository
	// containing the given context path.
	GetRepoRoot(ctx context.Context, contextPath string) (string, error)

	// GetConfigValue returns a git config value, or an empty string when unset.
	GetConfigValue(ctx context.Context, repoPath string, key string) (string, error)

	// --- Revision Resolution ---

	// ResolveRevision returns the full commit id of a revision expression.
	// It returns ErrRevisionNotFound when the expression does not name a commit.
	ResolveRevision(ctx context.Context, repoPath string, rev string) (string, error)

	// MergeBase returns the best common ancestor of two commits.
	MergeBase(ctx context.Context, repoPath string, a, b string) (string, error)

	// --- Traversal ---

	// WalkCommits streams the commits reachable from include but not from exclude
	// in commit date order, oldest first when reverse is set. Returning an error
	// from fn stops the walk and that error is returned.
	WalkCommits(ctx context.Context, repoPath string, include, exclude []string, reverse bool, fn func(schema.WalkedCommit) error) error

	// --- Trees / Content ---

	// DiffTree returns the changed paths between two commits restricted to paths.
	DiffTree(ctx context.Context, repoPath string, from, to string, paths []string) ([]schema.FileChange, error)

	// ListTree returns the files in the tree of rev restricted to paths.
	ListTree(ctx context.Context, repoPath string, rev string, paths []string) ([]string, error)

	// ReadBlob returns the content of path at rev.
	ReadBlob(ctx context.Context, repoPath string, rev string, path string) ([]byte, error)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetResolveStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore defines the interface for tracking fixes runs and their matches.
type HistoryStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, totalCommits, totalMatches int) error

	// RecordMatch stores one reported match at its position in the report
	RecordMatch(runID int64, position int, match schema.MatchResult) error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns retrieves all recorded runs ordered by run id
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllMatches retrieves all recorded matches ordered by run and position
	GetAllMatches() ([]schema.MatchRecord, error)

	// Close closes the underlying connection
	Close() error
}
