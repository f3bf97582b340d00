package schema

import "time"

// RunRecord represents a row from the gitfixes_runs table.
type RunRecord struct {
	RunID         int64
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	TotalCommits  int32
	TotalMatches  int32
	ConfigParams  *string
}

// MatchRecord represents a row from the gitfixes_matches table.
type MatchRecord struct {
	RunID      int64
	Position   int32
	CommitID   string
	Owner      string
	SourcePath *string
	Subject    string
	Stable     bool
}
