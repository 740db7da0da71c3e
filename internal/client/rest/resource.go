package rest

import (
	"context"
	"net/http"
)

// Resource issues the CRUD verbs for one resource type:
//
//	GET    /{name}/{parentID}
//	POST   /{name}/{parentID}
//	PUT    /{name}/{parentID}/{id}
//	DELETE /{name}/{parentID}/{id}
type Resource[T any] struct {
	client *Client
	name   string
}

func NewResource[T any](client *Client, name string) *Resource[T] {
	return &Resource[T]{client: client, name: name}
}

// List fetches the authoritative collection for a parent.
func (r *Resource[T]) List(ctx context.Context, parentID string) ([]T, error) {
	var out []T
	if err := r.client.do(ctx, http.MethodGet, joinPath(r.name, parentID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create posts a new record's domain payload and returns the server record.
func (r *Resource[T]) Create(ctx context.Context, parentID string, payload any) (T, error) {
	var out T
	err := r.client.do(ctx, http.MethodPost, joinPath(r.name, parentID), payload, &out)
	return out, err
}

// Update replaces a record's fields and returns the server record.
func (r *Resource[T]) Update(ctx context.Context, parentID, id string, payload any) (T, error) {
	var out T
	err := r.client.do(ctx, http.MethodPut, joinPath(r.name, parentID, id), payload, &out)
	return out, err
}

// Delete removes a record.
func (r *Resource[T]) Delete(ctx context.Context, parentID, id string) error {
	return r.client.do(ctx, http.MethodDelete, joinPath(r.name, parentID, id), nil, nil)
}
