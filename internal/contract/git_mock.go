package contract

import (
	"context"

	"github.com/huangsam/gitfixes/schema"
	"github.com/stretchr/testify/mock"
)

// MockGitClient is a mock type for the GitClient interface.
type MockGitClient struct {
	mock.Mock
}

var _ GitClient = &MockGitClient{} // Compile-time check

// Run implements the GitClient interface.
func (m *MockGitClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	var mockArgs []any
	mockArgs = append(mockArgs, ctx, repoPath)
	for _, arg := range args {
		mockArgs = append(mockArgs, arg)
	}
	ret := m.Called(mockArgs...)
	output, _ := ret.Get(0).([]byte)
	return output, ret.Error(1)
}

// GetRepoRoot implements the GitClient interface.
func (m *MockGitClient) GetRepoRoot(ctx context.Context, contextPath string) (string, error) {
	ret := m.Called(ctx, contextPath)
	return ret.String(0), ret.Error(1)
}

// GetConfigValue implements the GitClient interface.
func (m *MockGitClient) GetConfigValue(ctx context.Context, repoPath string, key string) (string, error) {
	ret := m.Called(ctx, repoPath, key)
	return ret.String(0), ret.Error(1)
}

// ResolveRevision implements the GitClient interface.
func (m *MockGitClient) ResolveRevision(ctx context.Context, repoPath string, rev string) (string, error) {
	ret := m.Called(ctx, repoPath, rev)
	return ret.String(0), ret.Error(1)
}

// MergeBase implements the GitClient interface.
func (m *MockGitClient) MergeBase(ctx context.Context, repoPath string, a, b string) (string, error) {
	ret := m.Called(ctx, repoPath, a, b)
	return ret.String(0), ret.Error(1)
}

// WalkCommits implements the GitClient interface.
// The first return value is the list of commits fed to fn in order.
func (m *MockGitClient) WalkCommits(ctx context.Context, repoPath string, include, exclude []string, reverse bool, fn func(schema.WalkedCommit) error) error {
	ret := m.Called(ctx, repoPath, include, exclude, reverse)
	commits, _ := ret.Get(0).([]schema.WalkedCommit)
	for _, commit := range commits {
		if err := fn(commit); err != nil {
			return err
		}
	}
	return ret.Error(1)
}

// DiffTree implements the GitClient interface.
func (m *MockGitClient) DiffTree(ctx context.Context, repoPath string, from, to string, paths []string) ([]schema.FileChange, error) {
	ret := m.Called(ctx, repoPath, from, to, paths)
	changes, _ := ret.Get(0).([]schema.FileChange)
	return changes, ret.Error(1)
}

// ListTree implements the GitClient interface.
func (m *MockGitClient) ListTree(ctx context.Context, repoPath string, rev string, paths []string) ([]string, error) {
	ret := m.Called(ctx, repoPath, rev, paths)
	files, _ := ret.Get(0).([]string)
	return files, ret.Error(1)
}

// ReadBlob implements the GitClient interface.
func (m *MockGitClient) ReadBlob(ctx context.Context, repoPath string, rev string, path string) ([]byte, error) {
	ret := m.Called(ctx, repoPath, rev, path)
	content, _ := ret.Get(0).([]byte)
	return content, ret.Error(1)
}
