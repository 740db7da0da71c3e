package snapshots

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Collection is a typed view over one resource's snapshots: it namespaces
// keys with the resource's prefix and marshals the ordered record slice to
// and from the stored JSON array.
type Collection[T any] struct {
	repo   Repository
	prefix string
}

// NewCollection returns a Collection for the given key prefix (for example
// "hive" for inspection snapshots keyed "hive_<hiveID>").
func NewCollection[T any](repo Repository, prefix string) *Collection[T] {
	return &Collection[T]{repo: repo, prefix: prefix}
}

// Key returns the store key for a parent id.
func (c *Collection[T]) Key(parentID string) string {
	return Key(c.prefix, parentID)
}

// Load reads and decodes the snapshot for parentID. Returns
// common.ErrNotFound (wrapped) when no snapshot exists.
func (c *Collection[T]) Load(ctx context.Context, parentID string) ([]T, error) {
	data, err := c.repo.Get(ctx, c.Key(parentID))
	if err != nil {
		return nil, err
	}
	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot[%s]: %w", c.Key(parentID), err)
	}
	return records, nil
}

// Save encodes records and overwrites the snapshot for parentID.
func (c *Collection[T]) Save(ctx context.Context, parentID string, records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot[%s]: %w", c.Key(parentID), err)
	}
	return c.repo.Set(ctx, c.Key(parentID), data)
}

// Drop removes the snapshot for parentID.
func (c *Collection[T]) Drop(ctx context.Context, parentID string) error {
	return c.repo.Delete(ctx, c.Key(parentID))
}

// Parents lists the parent ids that currently have a snapshot under this
// collection's prefix.
func (c *Collection[T]) Parents(ctx context.Context) ([]string, error) {
	keys, err := c.repo.ListKeys(ctx, c.prefix+"_")
	if err != nil {
		return nil, err
	}
	parents := make([]string, 0, len(keys))
	for _, key := range keys {
		parents = append(parents, strings.TrimPrefix(key, c.prefix+"_"))
	}
	return parents, nil
}
