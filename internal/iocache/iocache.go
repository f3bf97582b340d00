// Package iocache persists resolved revisions and run history.
package iocache

import (
	"sync"

	"github.com/huangsam/gitfixes/internal/contract"
)

// CacheStoreManager manages the resolution cache and the run history store.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	resolve      contract.CacheStore
	history      contract.HistoryStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetResolveStore returns the revision resolution CacheStore.
func (mgr *CacheStoreManager) GetResolveStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.resolve
}

// GetHistoryStore returns the run HistoryStore.
func (mgr *CacheStoreManager) GetHistoryStore() contract.HistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}
