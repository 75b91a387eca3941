package syncstore

import (
	"context"
	"time"

	"talenthub/internal/apiclient"
	"talenthub/internal/snapshot"
	"talenthub/pkg/domain"
)

// backend is the per-mode strategy behind a dataset. The remote variant
// mirrors mutations to the API, the local variant synthesizes identifiers
// and persists collection snapshots. CRUD logic above is written once
// against this interface instead of branching per entity per mode.
type backend[T domain.Entity] interface {
	// Fetch loads the durable copy of the collection. The boolean reports
	// whether a durable copy existed at all.
	Fetch(ctx context.Context) ([]T, bool, error)
	Create(ctx context.Context, item T) (T, error)
	Update(ctx context.Context, id string, patch map[string]any, current T) (T, error)
	Delete(ctx context.Context, id string) error
	// Persist writes the post-mutation collection snapshot. A no-op for the
	// remote backend, where the server already holds the authoritative copy.
	Persist(items []T) error
}

type remoteBackend[T domain.Entity] struct {
	api  *apiclient.Client
	path string
}

func (b remoteBackend[T]) Fetch(ctx context.Context) ([]T, bool, error) {
	var items []T
	if err := b.api.GetJSON(ctx, b.path, &items); err != nil {
		return nil, false, err
	}
	return items, true, nil
}

func (b remoteBackend[T]) Create(ctx context.Context, item T) (T, error) {
	var out T
	if err := b.api.PostJSON(ctx, b.path, item, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (b remoteBackend[T]) Update(ctx context.Context, id string, patch map[string]any, _ T) (T, error) {
	var out T
	if err := b.api.PatchJSON(ctx, b.path+"/"+id, patch, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (b remoteBackend[T]) Delete(ctx context.Context, id string) error {
	return b.api.Delete(ctx, b.path+"/"+id)
}

func (b remoteBackend[T]) Persist([]T) error {
	return nil
}

type localBackend[T domain.Entity] struct {
	snap *snapshot.Store
	key  string
}

func (b localBackend[T]) Fetch(context.Context) ([]T, bool, error) {
	var items []T
	found, err := b.snap.Load(b.key, &items)
	if err != nil {
		return nil, false, err
	}
	return items, found, nil
}

// Create synthesizes the identifier and stamps the timestamps the server
// would have set, so locally created entities look like remote ones.
func (b localBackend[T]) Create(_ context.Context, item T) (T, error) {
	now := time.Now().UTC()
	return domain.Merge(item, map[string]any{
		"id":        domain.NewID(),
		"createdAt": now,
		"updatedAt": now,
	})
}

func (b localBackend[T]) Update(_ context.Context, _ string, patch map[string]any, current T) (T, error) {
	fields := make(map[string]any, len(patch)+1)
	for k, v := range patch {
		fields[k] = v
	}
	fields["updatedAt"] = time.Now().UTC()
	return domain.Merge(current, fields)
}

func (b localBackend[T]) Delete(context.Context, string) error {
	return nil
}

func (b localBackend[T]) Persist(items []T) error {
	if items == nil {
		items = []T{}
	}
	return b.snap.Save(b.key, items)
}
