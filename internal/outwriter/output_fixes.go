package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/huangsam/gitfixes/internal/contract"
	"github.com/huangsam/gitfixes/internal/parquet"
	"github.com/huangsam/gitfixes/schema"
)

// nothingFound is printed in text mode when the report is empty.
const nothingFound = "Nothing found"

// WriteFixesResult outputs a fixes report, dispatching based on the output format configured.
func WriteFixesResult(result schema.FixesResult, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeFixesJSON(w, result)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeFixesCSV(w, result)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if cfg.OutputFile == "" {
			return fmt.Errorf("parquet output requires --output-file")
		}
		if err := parquet.WriteFile(parquet.ConvertReport(result), cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		_, _ = fmt.Fprintf(os.Stderr, "Wrote Parquet to %s\n", cfg.OutputFile)
	case schema.ListOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeFixesList(w, result)
		}, "Wrote list")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeFixesText(w, result, cfg)
		}, "Wrote report")
	}
	return nil
}

// writeFixesText prints one block per owner group: a header line with the
// group size followed by the abbreviated id and subject of every match.
// With grouping disabled the matches are printed bare.
func writeFixesText(w io.Writer, result schema.FixesResult, cfg *contract.Config) error {
	prefix := "\t"
	if !cfg.Grouping {
		prefix = ""
	}
	colored := cfg.UseColors && cfg.OutputFile == ""
	// A tab renders as 8 columns, plus the short id and its separator
	subjectWidth := getMaxSubjectWidth(cfg, 8*len(prefix)+contract.ShortIDLength+1)

	found := false
	for _, group := range result.Groups {
		if len(group.Matches) == 0 {
			continue
		}
		found = true

		if cfg.Grouping {
			owner, count := group.Owner, fmt.Sprintf("(%d)", len(group.Matches))
			if colored {
				owner, count = contract.OwnerColor.Sprint(owner), contract.CountColor.Sprint(count)
			}
			if _, err := fmt.Fprintf(w, "%s %s:\n", owner, count); err != nil {
				return err
			}
		}

		for _, m := range group.Matches {
			id := contract.ShortID(m.CommitID)
			if colored && m.Stable {
				id = contract.StableColor.Sprint(id)
			}
			subject := m.Subject
			if subjectWidth > 0 {
				subject = contract.TruncateText(subject, subjectWidth)
			}
			if _, err := fmt.Fprintf(w, "%s%s %s\n", prefix, id, subject); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	if !found {
		if _, err := fmt.Fprintln(w, nothingFound); err != nil {
			return err
		}
	}
	if cfg.Stats {
		if _, err := fmt.Fprintln(w, statsLine(result)); err != nil {
			return err
		}
	}
	return nil
}

// statsLine counts the reported matches, which excludes reverted ones.
func statsLine(result schema.FixesResult) string {
	line := fmt.Sprintf("Found %d objects (%d matches", result.Stats.Commits, len(result.AllMatches()))
	if result.Stats.Pruned > 0 {
		line += fmt.Sprintf(", %d reverted", result.Stats.Pruned)
	}
	return line + ")"
}

// writeFixesList prints one machine-parsable line per match:
// owner;fullId;sourcePath;subject
func writeFixesList(w io.Writer, result schema.FixesResult) error {
	for _, group := range result.Groups {
		for _, m := range group.Matches {
			line := strings.Join([]string{m.Owner, m.CommitID, m.SourcePath, m.Subject}, ";")
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeFixesCSV writes one row per match in report order.
func writeFixesCSV(w io.Writer, result schema.FixesResult) error {
	header := []string{"group", "commit_id", "owner", "subject", "source_path", "stable"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, group := range result.Groups {
			for _, m := range group.Matches {
				rec := []string{
					group.Owner,
					m.CommitID,
					m.Owner,
					m.Subject,
					m.SourcePath,
					strconv.FormatBool(m.Stable),
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// writeFixesJSON writes the whole result including run statistics.
func writeFixesJSON(w io.Writer, result schema.FixesResult) error {
	if result.Groups == nil {
		result.Groups = []schema.MatchGroup{}
	}
	return writeJSON(w, result)
}
