// Package iocache persists activity events across database backends.
package iocache

import (
	"sync"

	"github.com/huangsam/flowtrack/internal/contract"
)

// EventStoreManager holds the process-wide EventStore.
type EventStoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	events       contract.EventStore
}

var _ contract.StoreManager = &EventStoreManager{} // Compile-time check

// GetEventStore returns the EventStore, or nil before InitStores.
func (mgr *EventStoreManager) GetEventStore() contract.EventStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.events
}
