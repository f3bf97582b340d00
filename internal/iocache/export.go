package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/gitfixes/internal/contract"
	"github.com/huangsam/gitfixes/internal/parquet"
)

// ExportHistory writes the run history in store to two Parquet files
// prefixed by outputFile and reports progress to w.
func ExportHistory(w io.Writer, store contract.HistoryStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("history tracking is not enabled; set --history-backend")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run history found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	matches, err := store.GetAllMatches()
	if err != nil {
		return fmt.Errorf("failed to retrieve matches: %w", err)
	}

	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteFile(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(runs), runsFile)

	matchesFile := outputFile + ".matches.parquet"
	if err := parquet.WriteFile(parquet.ConvertMatchRecords(matches), matchesFile); err != nil {
		return fmt.Errorf("failed to write matches: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d matches to: %s\n", len(matches), matchesFile)

	return nil
}
