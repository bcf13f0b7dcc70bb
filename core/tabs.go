package core

import (
	"context"
	"sync"

	"github.com/huangsam/flowtrack/internal/contract"
	"github.com/huangsam/flowtrack/schema"
)

var _ contract.TabResolver = &TabRegistry{}

// TabRegistry is an in-memory view of browser tabs built from tab lifecycle
// messages. It answers the tracker's lookups in the daemon.
type TabRegistry struct {
	mu            sync.RWMutex
	tabs          map[int]schema.Tab
	activeByWin   map[int]int
	focusedWindow int
	hasFocus      bool
}

// NewTabRegistry returns an empty registry.
func NewTabRegistry() *TabRegistry {
	return &TabRegistry{
		tabs:        make(map[int]schema.Tab),
		activeByWin: make(map[int]int),
	}
}

// Activate records tab as the active tab of its window and focuses that window.
// An empty URL keeps the last known URL of the tab.
func (r *TabRegistry) Activate(tab schema.Tab) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.tabs[tab.ID]; ok && tab.URL == "" {
		tab.URL = prev.URL
	}
	if old, ok := r.activeByWin[tab.WindowID]; ok && old != tab.ID {
		if t, ok := r.tabs[old]; ok {
			t.Active = false
			r.tabs[old] = t
		}
	}
	tab.Active = true
	r.tabs[tab.ID] = tab
	r.activeByWin[tab.WindowID] = tab.ID
	r.focusedWindow = tab.WindowID
	r.hasFocus = true
}

// Update stores the tab's latest URL and activity.
func (r *TabRegistry) Update(tab schema.Tab) {
	if tab.Active {
		r.Activate(tab)
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.tabs[tab.ID]; ok && tab.URL == "" {
		tab.URL = prev.URL
	}
	if r.activeByWin[tab.WindowID] == tab.ID {
		delete(r.activeByWin, tab.WindowID)
	}
	r.tabs[tab.ID] = tab
}

// Remove forgets a closed tab.
func (r *TabRegistry) Remove(tabID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tab, ok := r.tabs[tabID]
	if !ok {
		return
	}
	delete(r.tabs, tabID)
	if r.activeByWin[tab.WindowID] == tabID {
		delete(r.activeByWin, tab.WindowID)
	}
}

// Len returns the number of known tabs.
func (r *TabRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tabs)
}

// TabByID implements contract.TabResolver.
func (r *TabRegistry) TabByID(ctx context.Context, tabID int) (schema.Tab, bool, error) {
	if err := ctx.Err(); err != nil {
		return schema.Tab{}, false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	tab, ok := r.tabs[tabID]
	return tab, ok, nil
}

// FocusedTab implements contract.TabResolver. It returns the active tab of the
// most recently focused window.
func (r *TabRegistry) FocusedTab(ctx context.Context) (schema.Tab, bool, error) {
	if err := ctx.Err(); err != nil {
		return schema.Tab{}, false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.hasFocus {
		return schema.Tab{}, false, nil
	}
	id, ok := r.activeByWin[r.focusedWindow]
	if !ok {
		return schema.Tab{}, false, nil
	}
	tab, ok := r.tabs[id]
	return tab, ok, nil
}
