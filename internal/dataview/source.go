// Package dataview loads datasets for the dashboard pages: a remote source
// guarded by a synthetic fallback, plus a filtered, exportable view on top.
package dataview

import "context"

// Source produces a dataset.
type Source[T any] interface {
	Name() string
	Fetch(ctx context.Context) ([]T, error)
}

// FetchFunc fetches a dataset from the backend.
type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// RemoteSource fetches from a backend endpoint.
type RemoteSource[T any] struct {
	name  string
	fetch FetchFunc[T]
}

// Remote wraps a client call as a Source.
func Remote[T any](name string, fetch FetchFunc[T]) *RemoteSource[T] {
	return &RemoteSource[T]{name: name, fetch: fetch}
}

// RemoteOne wraps a client call returning a single object.
func RemoteOne[T any](name string, fetch func(ctx context.Context) (*T, error)) *RemoteSource[T] {
	return Remote(name, func(ctx context.Context) ([]T, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return []T{*v}, nil
	})
}

func (s *RemoteSource[T]) Name() string { return s.name }

func (s *RemoteSource[T]) Fetch(ctx context.Context) ([]T, error) {
	return s.fetch(ctx)
}

// SyntheticSource generates a fixed number of items locally.
type SyntheticSource[T any] struct {
	name     string
	size     int
	generate func(n int) []T
}

// Synthetic creates a source that always yields size items from generate.
func Synthetic[T any](name string, size int, generate func(n int) []T) *SyntheticSource[T] {
	return &SyntheticSource[T]{name: name, size: size, generate: generate}
}

// SyntheticOne creates a source yielding a single generated object.
func SyntheticOne[T any](name string, generate func() T) *SyntheticSource[T] {
	return Synthetic(name, 1, func(int) []T { return []T{generate()} })
}

func (s *SyntheticSource[T]) Name() string { return s.name }

// Size is the number of items each Fetch returns.
func (s *SyntheticSource[T]) Size() int { return s.size }

// Fetch never fails unless ctx is already done.
func (s *SyntheticSource[T]) Fetch(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.generate(s.size), nil
}
