//go:build basic || database

package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// sharedBinaryPath holds the path to a gitfixes binary built once for all tests.
	sharedBinaryPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getBinary returns the path to the gitfixes binary, building it once if needed.
func getBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "gitfixes-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		binPath := filepath.Join(tempDir, "gitfixes")
		buildCmd := exec.Command("go", "build", "-o", binPath, ".")
		buildCmd.Dir = ".." // Build from project root
		if err := buildCmd.Run(); err != nil {
			panic(fmt.Sprintf("failed to build gitfixes: %v", err))
		}

		sharedBinaryPath = binPath
	})

	return sharedBinaryPath
}

// fixtureRepo is a throwaway repository with a known commit, two fixes of it
// and a revert of the second fix.
type fixtureRepo struct {
	dir      string
	known    string // the commit everyone cares about
	fix      string // still applied
	reverted string // fixed, then reverted
	database string // known-commit database file
}

// newFixtureRepo builds the repository under t.TempDir().
func newFixtureRepo(t *testing.T) fixtureRepo {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	git := func(args ...string) string {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=Alice", "GIT_AUTHOR_EMAIL=alice@example.com",
			"GIT_COMMITTER_NAME=Alice", "GIT_COMMITTER_EMAIL=alice@example.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
		return strings.TrimSpace(string(out))
	}
	commit := func(file, content, message string) string {
		require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, file)), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644))
		git("add", file)
		git("commit", "-q", "-m", message)
		return git("rev-parse", "HEAD")
	}

	git("init", "-q")
	repo := fixtureRepo{dir: dir}
	repo.known = commit("drivers/net/foo.c", "v1\n", "net: add foo driver")
	repo.fix = commit("drivers/net/foo.c", "v2\n", "net: foo: fix leak\n\nFixes: "+repo.known[:12]+" (\"net: add foo driver\")")
	repo.reverted = commit("drivers/net/foo.c", "v3\n", "net: foo: fix race\n\nFixes: "+repo.known[:12]+" (\"net: add foo driver\")")
	commit("drivers/net/foo.c", "v2\n", "Revert \"net: foo: fix race\"\n\nThis reverts commit "+repo.reverted)

	repo.database = filepath.Join(t.TempDir(), "fixes.list")
	require.NoError(t, os.WriteFile(repo.database, []byte(repo.known[:12]+",alice@example.com,drivers/net/foo.c\n"), 0o644))
	return repo
}

// runCommand runs the binary with HOME pointed at a temp dir and returns stdout.
func runCommand(t *testing.T, env []string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getBinary(), args...)
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(), "HOME="+cmd.Dir)
	cmd.Env = append(cmd.Env, env...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		t.Logf("Command failed: %s\nStderr: %s", cmd.String(), stderr.String())
	}
	return stdout.String(), err
}
