package syncstore

import (
	"context"
	"fmt"
	"sync"

	"talenthub/pkg/domain"
)

// dataset owns the in-memory copy of one entity collection. The store is the
// only writer; consumers get copies through List and never mutate shared
// state directly.
type dataset[T domain.Entity] struct {
	name   string
	online func() bool
	remote remoteBackend[T]
	local  localBackend[T]

	mu    sync.RWMutex
	items []T
}

func newDataset[T domain.Entity](name string, online func() bool, remote remoteBackend[T], local localBackend[T]) *dataset[T] {
	return &dataset[T]{name: name, online: online, remote: remote, local: local}
}

// backend picks the strategy for the current mode. Mode is consulted per
// call, so a mid-session reprobe flips routing without a restart.
func (d *dataset[T]) backend() backend[T] {
	if d.online() {
		return d.remote
	}
	return d.local
}

// List returns a copy of the in-memory collection.
func (d *dataset[T]) List() []T {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]T, len(d.items))
	copy(out, d.items)
	return out
}

// Get returns the entity with the given identifier.
func (d *dataset[T]) Get(id string) (T, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, item := range d.items {
		if item.EntityID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// fetchRemote replaces the in-memory collection with the server copy.
func (d *dataset[T]) fetchRemote(ctx context.Context) error {
	items, _, err := d.remote.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", d.name, err)
	}
	d.replace(items)
	return nil
}

// loadLocal rehydrates from the snapshot, falling back to seed when no
// snapshot exists.
func (d *dataset[T]) loadLocal(ctx context.Context, seed []T) error {
	items, found, err := d.local.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("load %s: %w", d.name, err)
	}
	if !found {
		items = seed
	}
	d.replace(items)
	return nil
}

func (d *dataset[T]) replace(items []T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items = items
}

// create runs the mode-appropriate creation and splices the authoritative
// entity into memory. The in-memory collection is untouched on failure.
func (d *dataset[T]) create(ctx context.Context, item T) (T, error) {
	b := d.backend()
	created, err := b.Create(ctx, item)
	if err != nil {
		var zero T
		return zero, err
	}
	d.mu.Lock()
	d.items = spliceByID(d.items, created)
	after := make([]T, len(d.items))
	copy(after, d.items)
	d.mu.Unlock()
	if err := b.Persist(after); err != nil {
		return created, fmt.Errorf("persist %s: %w", d.name, err)
	}
	return created, nil
}

// update applies a shallow patch. Online the server performs the merge and
// its copy replaces the stale local one; offline the merge happens in place.
func (d *dataset[T]) update(ctx context.Context, id string, patch map[string]any) (T, error) {
	var zero T
	current, ok := d.Get(id)
	if !ok {
		return zero, fmt.Errorf("%s %q: %w", d.name, id, ErrNotFound)
	}
	b := d.backend()
	updated, err := b.Update(ctx, id, patch, current)
	if err != nil {
		return zero, err
	}
	d.mu.Lock()
	d.items = spliceByID(d.items, updated)
	after := make([]T, len(d.items))
	copy(after, d.items)
	d.mu.Unlock()
	if err := b.Persist(after); err != nil {
		return updated, fmt.Errorf("persist %s: %w", d.name, err)
	}
	return updated, nil
}

// delete removes by identifier. Online the remote deletion is awaited first
// and a failure aborts the local removal; offline a missing identifier is a
// silent no-op. The boolean reports whether anything was removed.
func (d *dataset[T]) delete(ctx context.Context, id string) (bool, error) {
	b := d.backend()
	if _, exists := d.Get(id); exists {
		if err := b.Delete(ctx, id); err != nil {
			return false, err
		}
	} else if d.online() {
		// Let the server decide whether an unknown id is an error.
		if err := b.Delete(ctx, id); err != nil {
			return false, err
		}
		return false, nil
	} else {
		return false, nil
	}
	d.mu.Lock()
	d.items, _ = removeByID(d.items, id)
	after := make([]T, len(d.items))
	copy(after, d.items)
	d.mu.Unlock()
	if err := b.Persist(after); err != nil {
		return true, fmt.Errorf("persist %s: %w", d.name, err)
	}
	return true, nil
}

// spliceByID replaces the entity with a matching id, or appends it.
func spliceByID[T domain.Entity](items []T, item T) []T {
	for i := range items {
		if items[i].EntityID() == item.EntityID() {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}

func removeByID[T domain.Entity](items []T, id string) ([]T, bool) {
	for i := range items {
		if items[i].EntityID() == id {
			return append(items[:i], items[i+1:]...), true
		}
	}
	return items, false
}
