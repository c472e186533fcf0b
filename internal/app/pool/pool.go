// Package pool holds the staging pool: the ordered set of sources a mix is built from.
package pool

import (
	"sync"

	"github.com/osa030/mixbox/internal/domain/source"
)

// Pool is an ordered collection of source items, unique by ID.
type Pool struct {
	mu    sync.RWMutex
	items []source.Item
}

// New creates an empty pool.
func New() *Pool {
	return &Pool{
		items: make([]source.Item, 0),
	}
}

// Add appends item to the end of the pool.
// Returns false (and changes nothing) if an item with the same ID is already staged.
func (p *Pool) Add(item source.Item) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.indexLocked(item.ID) >= 0 {
		return false
	}
	p.items = append(p.items, item)
	return true
}

// Remove removes the item with the given ID.
// Returns false if no such item exists.
func (p *Pool) Remove(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := p.indexLocked(id)
	if i < 0 {
		return false
	}
	p.items = append(p.items[:i:i], p.items[i+1:]...)
	return true
}

// Reorder replaces the pool contents with items.
// Duplicate IDs are dropped; the first occurrence wins.
func (p *Pool) Reorder(items []source.Item) {
	p.mu.Lock()
	defer p.mu.Unlock()

	seen := make(map[string]bool, len(items))
	next := make([]source.Item, 0, len(items))
	for _, item := range items {
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		next = append(next, item)
	}
	p.items = next
}

// ReorderByIDs moves the listed items to the front, in the given order.
// Items not listed keep their relative order after them. Unknown IDs are ignored.
func (p *Pool) ReorderByIDs(ids []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	byID := make(map[string]source.Item, len(p.items))
	for _, item := range p.items {
		byID[item.ID] = item
	}

	placed := make(map[string]bool, len(ids))
	next := make([]source.Item, 0, len(p.items))
	for _, id := range ids {
		item, ok := byID[id]
		if !ok || placed[id] {
			continue
		}
		placed[id] = true
		next = append(next, item)
	}
	for _, item := range p.items {
		if !placed[item.ID] {
			next = append(next, item)
		}
	}
	p.items = next
}

// Clear removes all items.
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = make([]source.Item, 0)
}

// Items returns a copy of the staged items in order.
func (p *Pool) Items() []source.Item {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]source.Item, len(p.items))
	copy(out, p.items)
	return out
}

// Len returns the number of staged items.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.items)
}

// Contains reports whether an item with id is staged.
func (p *Pool) Contains(id string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.indexLocked(id) >= 0
}

// Get returns the staged item with id.
func (p *Pool) Get(id string) (source.Item, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	i := p.indexLocked(id)
	if i < 0 {
		return source.Item{}, false
	}
	return p.items[i], true
}

// indexLocked must be called with p.mu held.
func (p *Pool) indexLocked(id string) int {
	for i, item := range p.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}
