package core

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/huangsam/gitfixes/core/series"
	"github.com/huangsam/gitfixes/internal/contract"
	"github.com/huangsam/gitfixes/schema"
)

// ExecuteSeries builds the known-commit database of a patch series and
// writes it to a file or stdout.
func ExecuteSeries(ctx context.Context, cfg *contract.Config, client contract.GitClient, _ contract.CacheManager) error {
	records, err := RunSeries(ctx, cfg, client)
	if err != nil {
		return err
	}
	return writeSeriesOutput(os.Stdout, os.Stderr, cfg, records)
}

// RunSeries returns the records of cfg.Revision, minus those already present
// at cfg.SeriesBase when a base is set.
func RunSeries(ctx context.Context, cfg *contract.Config, client contract.GitClient) ([]schema.SeriesRecord, error) {
	builder := series.NewBuilder(client, cfg.RepoPath, cfg.SeriesFile, cfg.Domains)

	records, err := builder.Build(ctx, cfg.Revision)
	if err != nil {
		return nil, err
	}
	if cfg.SeriesBase == "" {
		return records, nil
	}

	base, err := builder.Build(ctx, cfg.SeriesBase)
	if err != nil {
		return nil, fmt.Errorf("base %s: %w", cfg.SeriesBase, err)
	}
	return series.Diff(base, records), nil
}

// writeSeriesOutput writes records to stdout or to the output file, which
// defaults to the revision's base name with a .list suffix.
func writeSeriesOutput(stdout, stderr io.Writer, cfg *contract.Config, records []schema.SeriesRecord) error {
	if cfg.SeriesStdout {
		return series.Write(stdout, records)
	}

	name := cfg.SeriesOut
	if name == "" {
		name = series.DefaultOutputName(cfg.Revision)
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if cfg.SeriesAppend {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	file, err := os.OpenFile(name, flags, 0o644)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", name, err)
	}
	if err := series.Write(file, records); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stderr, "Wrote %d commits to %s\n", len(records), name)
	return nil
}
