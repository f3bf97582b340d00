package fixes

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/huangsam/gitfixes/internal/contract"
	"github.com/huangsam/gitfixes/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	headID    = strings.Repeat("f", 40)
	priorID   = "deadbeef01cdcdef" + strings.Repeat("0", 24)
	otherID   = "cafebabe0123" + strings.Repeat("1", 28)
	fixID     = strings.Repeat("a", 40)
	revertID  = strings.Repeat("b", 40)
	plainID   = strings.Repeat("c", 40)
	noExclude = []string(nil)
)

func newTestIndex(t *testing.T, db string) *Index {
	t.Helper()
	ix, err := LoadIndex(strings.NewReader(db))
	require.NoError(t, err)
	return ix
}

func newSessionClient(commits []schema.WalkedCommit) *contract.MockGitClient {
	client := &contract.MockGitClient{}
	client.On("ResolveRevision", mock.Anything, "/repo", "HEAD").Return(headID, nil)
	client.On("ResolveRevision", mock.Anything, "/repo", "deadbeef01cd").Return(priorID, nil).Maybe()
	client.On("ResolveRevision", mock.Anything, "/repo", "cafebabe0123").Return(otherID, nil).Maybe()
	client.On("ResolveRevision", mock.Anything, "/repo", mock.Anything).Return("", contract.ErrRevisionNotFound).Maybe()
	client.On("WalkCommits", mock.Anything, "/repo", []string{headID}, noExclude, false).Return(commits, nil)
	return client
}

func TestSessionFindsFix(t *testing.T) {
	commits := []schema.WalkedCommit{
		{ID: plainID, Message: "Unrelated cleanup\n", AuthorEmail: "x@y.org", CommitterEmail: "x@y.org", Parents: []string{fixID}},
		{ID: fixID, Message: "Fix bug\n\nFixes: deadbeef01cd (\"prior bug\")\n", AuthorEmail: "dev@y.org", CommitterEmail: "dev@y.org", Parents: []string{headID}},
	}
	client := newSessionClient(commits)
	index := newTestIndex(t, "deadbeef01,alice@example.com\n")

	s := NewSession(client, Options{RepoPath: "/repo", Grouping: true}, index, nil, nil, NewAttributor(nil, "", false), nil)
	result, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Groups, 1)
	group := result.Groups[0]
	assert.Equal(t, "alice@example.com", group.Owner)
	require.Len(t, group.Matches, 1)
	assert.Equal(t, schema.MatchResult{
		CommitID: fixID,
		Subject:  "Fix bug",
		Owner:    "alice@example.com",
	}, group.Matches[0])
	assert.Equal(t, schema.RunStats{Commits: 2, Matches: 1}, result.Stats)
	client.AssertExpectations(t)
}

func TestSessionRevertedFixIsPruned(t *testing.T) {
	commits := []schema.WalkedCommit{
		{ID: revertID, Message: "Revert \"Fix bug\"\n\nThis reverts commit " + fixID + "\n", Parents: []string{fixID}},
		{ID: fixID, Message: "Fix bug\n\nFixes: deadbeef01cd\n", Parents: []string{headID}},
	}
	client := newSessionClient(commits)
	index := newTestIndex(t, "deadbeef01,bob@example.com\n")

	s := NewSession(client, Options{RepoPath: "/repo", Grouping: true}, index, nil, nil, NewAttributor(nil, "", false), nil)
	result, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Empty())
	assert.Equal(t, 1, result.Stats.Matches)
	assert.Equal(t, 1, result.Stats.Pruned)
	assert.Equal(t, 1, result.Stats.Reverts)
}

func TestSessionRunIsRepeatable(t *testing.T) {
	commits := []schema.WalkedCommit{
		{ID: fixID, Message: "Fix bug\n\nFixes: deadbeef01cd\n", Parents: []string{headID}},
	}
	client := newSessionClient(commits)
	s := NewSession(client, Options{RepoPath: "/repo", Grouping: true}, newTestIndex(t, "deadbeef01,alice@example.com\n"), nil, nil, NewAttributor(nil, "", false), nil)

	first, err := s.Run(context.Background())
	require.NoError(t, err)
	second, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, len(second.AllMatches()))
}

func TestSessionMatchAll(t *testing.T) {
	commits := []schema.WalkedCommit{
		{ID: fixID, Message: "Follow-up\n\nThe change deadbeef01cd broke things.\n", Parents: []string{headID}},
	}
	index := newTestIndex(t, "deadbeef01,alice@example.com\n")

	s := NewSession(newSessionClient(commits), Options{RepoPath: "/repo", Grouping: true}, index, nil, nil, NewAttributor(nil, "", false), nil)
	result, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Empty(), "bare mentions need match-all")

	s = NewSession(newSessionClient(commits), Options{RepoPath: "/repo", Grouping: true, MatchAll: true}, index, nil, nil, NewAttributor(nil, "", false), nil)
	result, err = s.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.AllMatches(), 1)
}

func TestSessionFirstMatchWins(t *testing.T) {
	commits := []schema.WalkedCommit{
		{ID: fixID, Message: "Fix two\n\nFixes: feedface00\nFixes: cafebabe0123\nFixes: deadbeef01cd\n", Parents: []string{headID}},
	}
	index := newTestIndex(t, "deadbeef01,alice@example.com\ncafebabe0123,bob@example.com\n")

	s := NewSession(newSessionClient(commits), Options{RepoPath: "/repo", Grouping: true}, index, nil, nil, NewAttributor(nil, "", false), nil)
	result, err := s.Run(context.Background())
	require.NoError(t, err)
	matches := result.AllMatches()
	require.Len(t, matches, 1)
	assert.Equal(t, "bob@example.com", matches[0].Owner)
}

func TestSessionGroupingOff(t *testing.T) {
	commits := []schema.WalkedCommit{
		{ID: fixID, Message: "One\n\nFixes: deadbeef01cd\n", Parents: []string{plainID}},
		{ID: plainID, Message: "Two\n\nFixes: cafebabe0123\n", Parents: []string{headID}},
	}
	index := newTestIndex(t, "deadbeef01,alice@example.com\ncafebabe0123,bob@example.com\n")

	s := NewSession(newSessionClient(commits), Options{RepoPath: "/repo"}, index, nil, nil, NewAttributor(nil, "", false), nil)
	result, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Groups, 1)
	assert.Equal(t, schema.DefaultGroup, result.Groups[0].Owner)
	assert.Equal(t, fixID, result.Groups[0].Matches[0].CommitID)
	assert.Equal(t, plainID, result.Groups[0].Matches[1].CommitID)
}

func TestSessionBlacklists(t *testing.T) {
	msg := "Fix bug\n\nFixes: deadbeef01cd\n"
	index := newTestIndex(t, "deadbeef01,alice@example.com\n"+plainID+",carol@example.com\n")

	t.Run("known commits are skipped", func(t *testing.T) {
		commits := []schema.WalkedCommit{{ID: plainID, Message: msg, Parents: []string{headID}}}
		s := NewSession(newSessionClient(commits), Options{RepoPath: "/repo", Grouping: true}, index, nil, nil, NewAttributor(nil, "", false), nil)
		result, err := s.Run(context.Background())
		require.NoError(t, err)
		assert.True(t, result.Empty())
	})

	t.Run("external blacklist", func(t *testing.T) {
		commits := []schema.WalkedCommit{{ID: fixID, Message: msg, Parents: []string{headID}}}
		s := NewSession(newSessionClient(commits), Options{RepoPath: "/repo", Grouping: true}, index, NewBlacklist(fixID[:12]), nil, NewAttributor(nil, "", false), nil)
		result, err := s.Run(context.Background())
		require.NoError(t, err)
		assert.True(t, result.Empty())
	})
}

func TestSessionCommitterFilter(t *testing.T) {
	commits := []schema.WalkedCommit{
		{ID: fixID, Message: "Fix\n\nFixes: deadbeef01cd\n", AuthorEmail: "dev@corp.com", Parents: []string{headID}},
	}
	index := newTestIndex(t, "deadbeef01,alice@example.com\n")

	s := NewSession(newSessionClient(commits), Options{RepoPath: "/repo", Grouping: true}, index, nil, nil, NewAttributor(nil, "bob", false), nil)
	result, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Empty())

	s = NewSession(newSessionClient(commits), Options{RepoPath: "/repo", Grouping: true}, index, nil, nil, NewAttributor([]string{"corp.com"}, "dev", false), nil)
	result, err = s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Groups, 1)
	assert.Equal(t, "dev@corp.com", result.Groups[0].Owner)
}

func TestSessionScopeComputedOnce(t *testing.T) {
	commits := []schema.WalkedCommit{
		{ID: fixID, Message: "Fix\n\nFixes: cafebabe0123\nFixes: deadbeef01cd\n", Parents: []string{headID}},
	}
	client := newSessionClient(commits)
	client.On("DiffTree", mock.Anything, "/repo", headID, fixID, []string{"net/"}).Return([]schema.FileChange{{OldPath: "drivers/x.c"}}, nil)
	index := newTestIndex(t, "deadbeef01,alice@example.com\ncafebabe0123,bob@example.com\n")

	s := NewSession(client, Options{RepoPath: "/repo", Paths: []string{"net/"}, Grouping: true}, index, nil, PathBlacklist{"drivers/"}, NewAttributor(nil, "", false), nil)
	result, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Empty())
	client.AssertNumberOfCalls(t, "DiffTree", 1)
}

func TestSessionRanges(t *testing.T) {
	ctx := context.Background()
	a, b, base := strings.Repeat("1", 40), strings.Repeat("2", 40), strings.Repeat("3", 40)

	t.Run("two dots", func(t *testing.T) {
		client := &contract.MockGitClient{}
		client.On("ResolveRevision", ctx, "/repo", "v1").Return(a, nil)
		client.On("ResolveRevision", ctx, "/repo", "HEAD").Return(b, nil)
		client.On("WalkCommits", ctx, "/repo", []string{b}, []string{a}, true).Return([]schema.WalkedCommit(nil), nil)

		s := NewSession(client, Options{RepoPath: "/repo", Revision: "v1..", Reverse: true}, NewIndex(nil), nil, nil, NewAttributor(nil, "", false), nil)
		result, err := s.Run(ctx)
		require.NoError(t, err)
		assert.True(t, result.Empty())
		client.AssertExpectations(t)
	})

	t.Run("three dots", func(t *testing.T) {
		client := &contract.MockGitClient{}
		client.On("ResolveRevision", ctx, "/repo", "v1").Return(a, nil)
		client.On("ResolveRevision", ctx, "/repo", "v2").Return(b, nil)
		client.On("MergeBase", ctx, "/repo", a, b).Return(base, nil)
		client.On("WalkCommits", ctx, "/repo", []string{a, b}, []string{base}, false).Return([]schema.WalkedCommit(nil), nil)

		s := NewSession(client, Options{RepoPath: "/repo", Revision: "v1...v2"}, NewIndex(nil), nil, nil, NewAttributor(nil, "", false), nil)
		_, err := s.Run(ctx)
		require.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("unresolvable", func(t *testing.T) {
		client := &contract.MockGitClient{}
		client.On("ResolveRevision", ctx, "/repo", "nope").Return("", contract.ErrRevisionNotFound)

		s := NewSession(client, Options{RepoPath: "/repo", Revision: "nope"}, NewIndex(nil), nil, nil, NewAttributor(nil, "", false), nil)
		_, err := s.Run(ctx)
		assert.ErrorIs(t, err, contract.ErrRevisionNotFound)
		assert.ErrorContains(t, err, `cannot resolve revision "nope"`)
	})

	t.Run("walk failure", func(t *testing.T) {
		client := &contract.MockGitClient{}
		client.On("ResolveRevision", ctx, "/repo", "HEAD").Return(headID, nil)
		client.On("WalkCommits", ctx, "/repo", []string{headID}, noExclude, false).Return(nil, errors.New("broken pipe"))

		s := NewSession(client, Options{RepoPath: "/repo"}, NewIndex(nil), nil, nil, NewAttributor(nil, "", false), nil)
		_, err := s.Run(ctx)
		assert.ErrorContains(t, err, "broken pipe")
	})
}
