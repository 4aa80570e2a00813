// Package ctxval keeps a mutable value bag inside a context so code deep in a request
// (the upstream client) can leave notes for code that runs after it (the request log).
package ctxval

import (
	"context"
	"sync"
)

type bagKey struct{}

type bag struct {
	mu     sync.Mutex
	values map[any]any
}

// Wrap attaches an empty bag to ctx. Wrapping twice keeps the first bag.
func Wrap(ctx context.Context) context.Context {
	if _, ok := from(ctx); ok {
		return ctx
	}
	return context.WithValue(ctx, bagKey{}, &bag{values: make(map[any]any)})
}

// Set is a no-op when ctx was never wrapped.
func Set[K comparable, V any](ctx context.Context, k K, v V) {
	Update(ctx, k, func(V) V { return v })
}

func Get[K comparable, V any](ctx context.Context, k K) (V, bool) {
	b, ok := from(ctx)
	if !ok {
		return *new(V), false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.values[k].(V)
	return v, ok
}

// Update replaces the value under k with fn(current) atomically. current is the zero
// value when k is unset.
func Update[K comparable, V any](ctx context.Context, k K, fn func(current V) V) {
	b, ok := from(ctx)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	cur, _ := b.values[k].(V)
	b.values[k] = fn(cur)
}

func from(ctx context.Context) (*bag, bool) {
	if ctx == nil {
		return nil, false
	}
	b, ok := ctx.Value(bagKey{}).(*bag)
	return b, ok
}
