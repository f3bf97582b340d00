// Package schema has configs, models and global variables for all parts of gitfixes.
package schema

// Reference is a hex-like token extracted from a commit message line.
type Reference struct {
	Token  string // Abbreviated or full hex id as written in the message
	FixTag bool   // True when the line is a "Fixes:" declaration
}

// Commit is the parsed form of a walked commit message.
// It is created once per walked commit and never modified afterwards.
type Commit struct {
	ID         string      // Full hex identity
	Subject    string      // First non-empty line of the message
	Stable     bool        // Message carries a stable-tree notification marker
	References []Reference // Candidate references in message order
}

// WalkedCommit is what the repository collaborator yields during a traversal.
type WalkedCommit struct {
	ID             string
	Message        string
	AuthorEmail    string
	CommitterEmail string
	Parents        []string
}

// IsRoot reports whether the commit has no parents.
func (c WalkedCommit) IsRoot() bool {
	return len(c.Parents) == 0
}

// FileChange is one entry of a tree-to-tree diff.
// OldPath is empty for added files and NewPath is empty for deleted files.
type FileChange struct {
	OldPath string
	NewPath string
}

// KnownEntry is one record of the known-commit database.
type KnownEntry struct {
	CommitID   string // Lowercase full or abbreviated hex id
	Owner      string // May be empty
	SourcePath string // May be empty
}

// MatchResult is a walked commit that was accepted as a fix for a known commit.
type MatchResult struct {
	CommitID   string `json:"commit_id"`
	Subject    string `json:"subject"`
	Owner      string `json:"owner"`
	Stable     bool   `json:"stable"`
	SourcePath string `json:"source_path"`
}

// MatchGroup holds the matches attributed to one owner in discovery order.
type MatchGroup struct {
	Owner   string        `json:"owner"`
	Matches []MatchResult `json:"matches"`
}

// RunStats summarizes a single traversal.
type RunStats struct {
	Commits int `json:"commits"` // Number of walked commits
	Matches int `json:"matches"` // Matches accepted during the walk
	Pruned  int `json:"pruned"`  // Matches removed by revert pruning
	Reverts int `json:"reverts"` // Revert declarations seen during the walk
}

// FixesResult is the final, pruned outcome of a fixes run.
type FixesResult struct {
	Groups []MatchGroup `json:"groups"`
	Stats  RunStats     `json:"stats"`
}

// Empty reports whether no group has members.
func (r FixesResult) Empty() bool {
	for _, g := range r.Groups {
		if len(g.Matches) > 0 {
			return false
		}
	}
	return true
}

// AllMatches flattens the groups in report order.
func (r FixesResult) AllMatches() []MatchResult {
	var all []MatchResult
	for _, g := range r.Groups {
		all = append(all, g.Matches...)
	}
	return all
}

// Person is one ranked contributor of the path-ownership lookup.
type Person struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// SeriesRecord is one known-commit record produced from a patch queue.
type SeriesRecord struct {
	CommitID  string
	Owner     string
	PatchPath string
}
