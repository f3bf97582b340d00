package fixes

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/huangsam/gitfixes/internal/contract"
)

// resolveCacheVersion defines the version of the resolution cache entries.
const resolveCacheVersion = 1

// Resolver turns candidate reference tokens into full commit ids.
type Resolver struct {
	client   contract.GitClient
	repoPath string
	cache    contract.CacheStore // optional
}

// NewResolver creates a resolver for repoPath. cache may be nil.
func NewResolver(client contract.GitClient, repoPath string, cache contract.CacheStore) *Resolver {
	return &Resolver{client: client, repoPath: repoPath, cache: cache}
}

// Resolve returns the full id for token. Tokens that do not name a commit
// yield ok == false; any other backend failure is returned as an error.
func (r *Resolver) Resolve(ctx context.Context, token string) (string, bool, error) {
	key := r.cacheKey(token)
	if id, ok := r.checkCacheHit(key); ok {
		return id, true, nil
	}

	id, err := r.client.ResolveRevision(ctx, r.repoPath, token)
	if errors.Is(err, contract.ErrRevisionNotFound) {
		return "", false, nil
	} else if err != nil {
		return "", false, err
	}
	id = strings.ToLower(id)

	if r.cache != nil {
		_ = r.cache.Set(key, []byte(id), resolveCacheVersion, time.Now().Unix())
	}
	return id, true, nil
}

// cacheKey scopes a token to the repository it was resolved in.
func (r *Resolver) cacheKey(token string) string {
	return r.repoPath + ":" + strings.ToLower(token)
}

// checkCacheHit returns a cached id when it has the current version and is fresh.
func (r *Resolver) checkCacheHit(key string) (string, bool) {
	if r.cache == nil {
		return "", false
	}
	data, version, ts, err := r.cache.Get(key)
	if err != nil || version != resolveCacheVersion {
		return "", false
	}
	if time.Since(time.Unix(ts, 0)) > contract.ResolveCacheTTL {
		return "", false
	}
	id := string(data)
	if !IsHex(id) {
		return "", false
	}
	return id, true
}
