// Package series builds a known-commit database from a patch-series branch.
//
// The branch carries a series.conf listing patch files; each patch names the
// upstream commit it backports in a Git-commit: header.
package series

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/huangsam/gitfixes/core/fixes"
	"github.com/huangsam/gitfixes/internal/contract"
	"github.com/huangsam/gitfixes/schema"
)

// Builder reads series branches from one repository.
type Builder struct {
	client     contract.GitClient
	repoPath   string
	seriesFile string
	attributor *fixes.Attributor
}

// NewBuilder creates a builder. Owners are taken from sign-offs in domains.
func NewBuilder(client contract.GitClient, repoPath, seriesFile string, domains []string) *Builder {
	if seriesFile == "" {
		seriesFile = contract.DefaultSeriesFile
	}
	return &Builder{
		client:     client,
		repoPath:   repoPath,
		seriesFile: seriesFile,
		attributor: fixes.NewAttributor(domains, "", true),
	}
}

// Build returns the records of every patch listed in the series file at
// revision, sorted by commit id. Each id appears once; a later patch in the
// series replaces the record of an earlier one.
func (b *Builder) Build(ctx context.Context, revision string) ([]schema.SeriesRecord, error) {
	id, err := b.client.ResolveRevision(ctx, b.repoPath, revision)
	if errors.Is(err, contract.ErrRevisionNotFound) {
		return nil, fmt.Errorf("cannot resolve revision %q: %w", revision, err)
	} else if err != nil {
		return nil, err
	}

	conf, err := b.client.ReadBlob(ctx, b.repoPath, id, b.seriesFile)
	if err != nil {
		return nil, fmt.Errorf("read %s at %s: %w", b.seriesFile, revision, err)
	}

	byID := make(map[string]schema.SeriesRecord)
	for _, patch := range ParseSeries(conf) {
		content, err := b.client.ReadBlob(ctx, b.repoPath, id, patch)
		if err != nil {
			contract.LogWarn("Cannot read patch "+patch, err)
			continue
		}
		for _, r := range ParsePatch(patch, content, b.attributor.InDomains) {
			byID[r.CommitID] = r
		}
	}

	records := make([]schema.SeriesRecord, 0, len(byID))
	for _, r := range byID {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CommitID < records[j].CommitID
	})
	return records, nil
}

// ParseSeries returns the patch paths listed in a series file. On each line,
// after '#' comments are stripped, the first field containing '/' is the path.
func ParseSeries(content []byte) []string {
	var patches []string
	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line, _, _ := strings.Cut(scanner.Text(), "#")
		for _, field := range strings.Fields(line) {
			if strings.Contains(field, "/") {
				patches = append(patches, field)
				break
			}
		}
	}
	return patches
}

// ParsePatch extracts the upstream ids of one patch. The owner is the last
// sign-off or ack whose address satisfies inDomain, or schema.UnknownOwner.
func ParsePatch(patchPath string, content []byte, inDomain func(string) bool) []schema.SeriesRecord {
	owner := schema.UnknownOwner
	var ids []string

	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		tag, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch strings.ToLower(tag) {
		case "git-commit":
			id := strings.ToLower(strings.TrimSpace(value))
			if len(id) == fixes.FullIDLength && fixes.IsHex(id) {
				ids = append(ids, id)
			}
		case "signed-off-by", "acked-by":
			for _, field := range strings.Fields(value) {
				email := strings.TrimSuffix(strings.TrimPrefix(field, "<"), ">")
				if strings.Contains(email, "@") && inDomain(email) {
					owner = email
				}
			}
		}
	}

	records := make([]schema.SeriesRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, schema.SeriesRecord{CommitID: id, Owner: owner, PatchPath: patchPath})
	}
	return records
}

// Diff keeps the branch records whose ids are absent from base.
func Diff(base, branch []schema.SeriesRecord) []schema.SeriesRecord {
	known := make(map[string]struct{}, len(base))
	for _, r := range base {
		known[r.CommitID] = struct{}{}
	}
	var out []schema.SeriesRecord
	for _, r := range branch {
		if _, ok := known[r.CommitID]; !ok {
			out = append(out, r)
		}
	}
	return out
}

// Write emits records in the known-commit database format.
func Write(w io.Writer, records []schema.SeriesRecord) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		if _, err := fmt.Fprintf(bw, "%s,%s,%s\n", r.CommitID, r.Owner, r.PatchPath); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DefaultOutputName derives the output file name from a branch name.
func DefaultOutputName(revision string) string {
	return path.Base(revision) + ".list"
}
