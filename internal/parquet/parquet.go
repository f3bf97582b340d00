// Package parquet exports fix reports and run history to Parquet files
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/gitfixes/schema"
	"github.com/parquet-go/parquet-go"
)

// Run maps to the gitfixes_runs table.
type Run struct {
	RunID         int64      `parquet:"run_id,snappy"`
	StartTime     time.Time  `parquet:"start_time,snappy"`
	EndTime       *time.Time `parquet:"end_time,optional,snappy"`
	RunDurationMs *int32     `parquet:"run_duration_ms,optional,snappy"`
	TotalCommits  int32      `parquet:"total_commits,snappy"`
	TotalMatches  int32      `parquet:"total_matches,snappy"`
	// JSON-encoded configuration of the run
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// Match maps to the gitfixes_matches table.
type Match struct {
	RunID      int64   `parquet:"run_id,snappy"`
	Position   int32   `parquet:"position,snappy"`
	CommitID   string  `parquet:"commit_id,snappy"`
	Owner      string  `parquet:"owner,snappy"`
	SourcePath *string `parquet:"source_path,optional,snappy"`
	Subject    string  `parquet:"subject,snappy"`
	Stable     bool    `parquet:"stable"`
}

// ReportRow is one match of a fixes report, flattened with its group.
type ReportRow struct {
	Group      string `parquet:"group,snappy,dict"`
	CommitID   string `parquet:"commit_id,snappy"`
	Owner      string `parquet:"owner,snappy,dict"`
	Subject    string `parquet:"subject,snappy"`
	SourcePath string `parquet:"source_path,snappy"`
	Stable     bool   `parquet:"stable"`
}

// Write encodes rows to w.
func Write[T any](w io.Writer, rows []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteFile encodes rows to a new file at outputPath.
func WriteFile[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Write(file, rows); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// ConvertReport flattens a fixes result in report order.
func ConvertReport(result schema.FixesResult) []ReportRow {
	var rows []ReportRow
	for _, group := range result.Groups {
		for _, m := range group.Matches {
			rows = append(rows, ReportRow{
				Group:      group.Owner,
				CommitID:   m.CommitID,
				Owner:      m.Owner,
				Subject:    m.Subject,
				SourcePath: m.SourcePath,
				Stable:     m.Stable,
			})
		}
	}
	return rows
}

// ConvertRunRecords converts stored runs for export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:         record.RunID,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			TotalCommits:  record.TotalCommits,
			TotalMatches:  record.TotalMatches,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertMatchRecords converts stored matches for export.
func ConvertMatchRecords(records []schema.MatchRecord) []Match {
	result := make([]Match, len(records))
	for i, record := range records {
		result[i] = Match{
			RunID:      record.RunID,
			Position:   record.Position,
			CommitID:   record.CommitID,
			Owner:      record.Owner,
			SourcePath: record.SourcePath,
			Subject:    record.Subject,
			Stable:     record.Stable,
		}
	}
	return result
}
