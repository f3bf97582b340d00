package fixes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/huangsam/gitfixes/internal/contract"
	"github.com/huangsam/gitfixes/internal/iocache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestResolverWithoutCache(t *testing.T) {
	ctx := context.Background()
	client := &contract.MockGitClient{}
	client.On("ResolveRevision", ctx, "/repo", "DEADBEEF01").Return(fullHex, nil)
	client.On("ResolveRevision", ctx, "/repo", "feedface00").Return("", contract.ErrRevisionNotFound)
	client.On("ResolveRevision", ctx, "/repo", "cafebabe00").Return("", errors.New("git exploded"))

	r := NewResolver(client, "/repo", nil)

	id, ok, err := r.Resolve(ctx, "DEADBEEF01")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, fullHex, id)

	_, ok, err = r.Resolve(ctx, "feedface00")
	require.NoError(t, err, "unresolvable tokens are not errors")
	assert.False(t, ok)

	_, _, err = r.Resolve(ctx, "cafebabe00")
	assert.Error(t, err)

	client.AssertExpectations(t)
}

func TestResolverCacheHit(t *testing.T) {
	ctx := context.Background()
	client := &contract.MockGitClient{}
	cache := &iocache.MockCacheStore{}
	cache.On("Get", "/repo:deadbeef01").Return([]byte(fullHex), resolveCacheVersion, time.Now().Unix(), nil)

	r := NewResolver(client, "/repo", cache)
	id, ok, err := r.Resolve(ctx, "DeadBeef01")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, fullHex, id)

	client.AssertNotCalled(t, "ResolveRevision", mock.Anything, mock.Anything, mock.Anything)
	cache.AssertExpectations(t)
}

func TestResolverCacheMiss(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		version int
		ts      int64
		err     error
	}{
		{"not found", nil, 0, 0, errors.New("not found")},
		{"old version", []byte(fullHex), resolveCacheVersion + 1, time.Now().Unix(), nil},
		{"stale", []byte(fullHex), resolveCacheVersion, time.Now().Add(-contract.ResolveCacheTTL - time.Hour).Unix(), nil},
		{"corrupt", []byte("not an id"), resolveCacheVersion, time.Now().Unix(), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			client := &contract.MockGitClient{}
			client.On("ResolveRevision", ctx, "/repo", "deadbeef01").Return(fullHex, nil)
			cache := &iocache.MockCacheStore{}
			cache.On("Get", "/repo:deadbeef01").Return(tt.data, tt.version, tt.ts, tt.err)
			cache.On("Set", "/repo:deadbeef01", []byte(fullHex), resolveCacheVersion, mock.AnythingOfType("int64")).Return(nil)

			id, ok, err := NewResolver(client, "/repo", cache).Resolve(ctx, "deadbeef01")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, fullHex, id)

			client.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestResolverDoesNotCacheMisses(t *testing.T) {
	ctx := context.Background()
	client := &contract.MockGitClient{}
	client.On("ResolveRevision", ctx, "/repo", "feedface00").Return("", contract.ErrRevisionNotFound)
	cache := &iocache.MockCacheStore{}
	cache.On("Get", "/repo:feedface00").Return(nil, 0, int64(0), errors.New("not found"))

	_, ok, err := NewResolver(client, "/repo", cache).Resolve(ctx, "feedface00")
	require.NoError(t, err)
	assert.False(t, ok)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
