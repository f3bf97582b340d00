package contract

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/huangsam/gitfixes/schema"
	godiff "github.com/sourcegraph/go-diff/diff"
)

// Separators used by the log format of WalkCommits.
const (
	fieldSep  = "\x00"
	recordSep = '\x1e'
)

// walkFormat emits id, parents, author email, committer email and the raw message.
const walkFormat = "--format=%H%x00%P%x00%ae%x00%ce%x00%B%x1e"

// maxRecordSize bounds a single commit record read from git log.
const maxRecordSize = 16 * 1024 * 1024

// LocalGitClient implements the GitClient interface by executing the
// local 'git' binary installed on the machine.
type LocalGitClient struct{}

var _ GitClient = &LocalGitClient{} // Compile-time check

// NewLocalGitClient creates a new instance of the local Git client.
func NewLocalGitClient() *LocalGitClient {
	return &LocalGitClient{}
}

// command builds a git command rooted at repoPath with stable output settings.
func command(ctx context.Context, repoPath string, args ...string) *exec.Cmd {
	fullArgs := append([]string{"-C", repoPath, "-c", "core.quotepath=off"}, args...)
	return exec.CommandContext(ctx, "git", fullArgs...)
}

// Run executes a git command and returns its stdout output.
// Failed commands wrap the *exec.ExitError so callers can inspect the exit code.
func (c *LocalGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	out, err := command(ctx, repoPath, args...).Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		return nil, fmt.Errorf("git command failed in %q: %s: %w", repoPath, stderr, exitErr)
	} else if err != nil {
		return nil, fmt.Errorf("git command failed: %w. Ensure Git is installed and available on your PATH", err)
	}
	return out, nil
}

// GetRepoRoot implements the GitClient interface.
func (c *LocalGitClient) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	out, err := c.Run(ctx, contextPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// GetConfigValue implements the GitClient interface.
func (c *LocalGitClient) GetConfigValue(ctx context.Context, repoPath string, key string) (string, error) {
	out, err := c.Run(ctx, repoPath, "config", "--get", key)
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return "", nil // key is not set
	} else if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// ResolveRevision implements the GitClient interface.
func (c *LocalGitClient) ResolveRevision(ctx context.Context, repoPath string, rev string) (string, error) {
	out, err := c.Run(ctx, repoPath, "rev-parse", "--verify", "--quiet", "--end-of-options", rev+"^{commit}")
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return "", fmt.Errorf("%w: %s", ErrRevisionNotFound, rev)
	} else if err != nil {
		return "", err
	}
	id := strings.TrimSpace(string(out))
	if id == "" {
		return "", fmt.Errorf("%w: %s", ErrRevisionNotFound, rev)
	}
	return id, nil
}

// MergeBase implements the GitClient interface.
func (c *LocalGitClient) MergeBase(ctx context.Context, repoPath string, a, b string) (string, error) {
	out, err := c.Run(ctx, repoPath, "merge-base", a, b)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// WalkCommits implements the GitClient interface.
// The log output is streamed so only one commit record is held in memory at a time.
func (c *LocalGitClient) WalkCommits(ctx context.Context, repoPath string, include, exclude []string, reverse bool, fn func(schema.WalkedCommit) error) error {
	if len(include) == 0 {
		return errors.New("no revisions to walk")
	}
	args := []string{"log", "--date-order", walkFormat}
	if reverse {
		args = append(args, "--reverse")
	}
	args = append(args, include...)
	for _, rev := range exclude {
		args = append(args, "^"+rev)
	}
	args = append(args, "--")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := command(ctx, repoPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("git log pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("git command failed: %w. Ensure Git is installed and available on your PATH", err)
	}

	walkErr := scanCommits(stdout, fn)
	if walkErr != nil {
		cancel()
		_, _ = io.Copy(io.Discard, stdout)
		_ = cmd.Wait()
		return walkErr
	}
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("git log failed in %q: %s: %w", repoPath, strings.TrimSpace(stderr.String()), err)
	}
	return nil
}

// scanCommits splits a git log stream into records and feeds them to fn.
func scanCommits(r io.Reader, fn func(schema.WalkedCommit) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxRecordSize)
	scanner.Split(func(data []byte, atEOF bool) (int, []byte, error) {
		if i := bytes.IndexByte(data, recordSep); i >= 0 {
			return i + 1, data[:i], nil
		}
		if atEOF && len(data) > 0 {
			return len(data), data, nil
		}
		return 0, nil, nil
	})
	for scanner.Scan() {
		record := strings.TrimLeft(scanner.Text(), "\n")
		if strings.TrimSpace(record) == "" {
			continue
		}
		commit, err := parseCommitRecord(record)
		if err != nil {
			return err
		}
		if err := fn(commit); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// parseCommitRecord decodes one record emitted with walkFormat.
func parseCommitRecord(record string) (schema.WalkedCommit, error) {
	fields := strings.SplitN(record, fieldSep, 5)
	if len(fields) != 5 {
		return schema.WalkedCommit{}, fmt.Errorf("malformed commit record: %q", record)
	}
	return schema.WalkedCommit{
		ID:             strings.TrimSpace(fields[0]),
		Parents:        strings.Fields(fields[1]),
		AuthorEmail:    fields[2],
		CommitterEmail: fields[3],
		Message:        fields[4],
	}, nil
}

// DiffTree implements the GitClient interface.
func (c *LocalGitClient) DiffTree(ctx context.Context, repoPath string, from, to string, paths []string) ([]schema.FileChange, error) {
	args := []string{"diff", "--no-color", "--no-ext-diff", "-M", "--src-prefix=a/", "--dst-prefix=b/", from, to, "--"}
	args = append(args, paths...)
	out, err := c.Run(ctx, repoPath, args...)
	if err != nil {
		return nil, err
	}
	return ParseFileChanges(out)
}

// ParseFileChanges converts a unified git diff into old/new path pairs.
// Entries without ---/+++ lines, such as mode-only changes, take their paths
// from the "diff --git" header. A change never has both paths empty.
func ParseFileChanges(diffContent []byte) ([]schema.FileChange, error) {
	if len(bytes.TrimSpace(diffContent)) == 0 {
		return []schema.FileChange{}, nil
	}
	fileDiffs, err := godiff.ParseMultiFileDiff(diffContent)
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}
	changes := make([]schema.FileChange, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		change := schema.FileChange{
			OldPath: cleanDiffPath(fd.OrigName),
			NewPath: cleanDiffPath(fd.NewName),
		}
		if fd.OrigName == "" && fd.NewName == "" {
			change = changeFromHeader(fd.Extended)
		}
		if change.OldPath != "" || change.NewPath != "" {
			changes = append(changes, change)
		}
	}

	// go-diff drops a trailing entry that ends inside its extended header.
	headers := diffHeaderLines(diffContent)
	if len(headers) > len(fileDiffs) {
		tail := headers[len(headers)-1]
		if change := changeFromHeader(strings.Split(string(diffContent[tail:]), "\n")); change.OldPath != "" || change.NewPath != "" {
			changes = append(changes, change)
		}
	}
	return changes, nil
}

// diffHeaderLines returns the offsets of every "diff --git " line.
func diffHeaderLines(diffContent []byte) []int {
	var offsets []int
	for offset := 0; offset < len(diffContent); {
		if bytes.HasPrefix(diffContent[offset:], []byte("diff --git ")) {
			offsets = append(offsets, offset)
		}
		next := bytes.IndexByte(diffContent[offset:], '\n')
		if next < 0 {
			break
		}
		offset += next + 1
	}
	return offsets
}

// changeFromHeader recovers the paths of an entry from its extended header
// lines. Rename lines win over the "diff --git" line.
func changeFromHeader(extended []string) schema.FileChange {
	var change schema.FileChange
	for _, line := range extended {
		if v, ok := strings.CutPrefix(line, "rename from "); ok {
			change.OldPath = unquoteDiffPath(v)
		} else if v, ok := strings.CutPrefix(line, "rename to "); ok {
			change.NewPath = unquoteDiffPath(v)
		}
	}
	if change.OldPath != "" && change.NewPath != "" {
		return change
	}
	if len(extended) == 0 {
		return schema.FileChange{}
	}
	names, ok := strings.CutPrefix(strings.TrimSuffix(extended[0], "\r"), "diff --git ")
	if !ok {
		return schema.FileChange{}
	}
	oldName, newName := splitHeaderNames(names)
	return schema.FileChange{
		OldPath: cleanDiffPath(unquoteDiffPath(oldName)),
		NewPath: cleanDiffPath(unquoteDiffPath(newName)),
	}
}

// splitHeaderNames splits "a/X b/Y". Unquoted names are ambiguous when they
// contain spaces, so identical halves are preferred, then the " b/" boundary.
func splitHeaderNames(names string) (string, string) {
	if strings.HasPrefix(names, `"`) {
		if first, err := strconv.QuotedPrefix(names); err == nil {
			return first, strings.TrimSpace(names[len(first):])
		}
	}
	if n := len(names) / 2; len(names)%2 == 1 && names[n] == ' ' && cleanDiffPath(names[:n]) == cleanDiffPath(names[n+1:]) {
		return names[:n], names[n+1:]
	}
	if i := strings.Index(names, " b/"); i >= 0 {
		return names[:i], names[i+1:]
	}
	return "", ""
}

// unquoteDiffPath undoes git's C-style quoting of unusual path names.
func unquoteDiffPath(name string) string {
	if strings.HasPrefix(name, `"`) {
		if unquoted, err := strconv.Unquote(name); err == nil {
			return unquoted
		}
	}
	return name
}

// cleanDiffPath strips the a/ and b/ prefixes; /dev/null becomes empty.
func cleanDiffPath(name string) string {
	if name == "/dev/null" {
		return ""
	}
	if strings.HasPrefix(name, "a/") || strings.HasPrefix(name, "b/") {
		return name[2:]
	}
	return name
}

// ListTree implements the GitClient interface.
func (c *LocalGitClient) ListTree(ctx context.Context, repoPath string, rev string, paths []string) ([]string, error) {
	args := []string{"ls-tree", "-r", "-z", "--name-only", rev, "--"}
	args = append(args, paths...)
	out, err := c.Run(ctx, repoPath, args...)
	if err != nil {
		return nil, err
	}
	var files []string
	for name := range strings.SplitSeq(string(out), fieldSep) {
		if name != "" {
			files = append(files, name)
		}
	}
	if files == nil {
		return []string{}, nil
	}
	return files, nil
}

// ReadBlob implements the GitClient interface.
func (c *LocalGitClient) ReadBlob(ctx context.Context, repoPath string, rev string, path string) ([]byte, error) {
	return c.Run(ctx, repoPath, "cat-file", "blob", rev+":"+path)
}
