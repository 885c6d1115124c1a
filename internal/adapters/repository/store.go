// Package repository defines the session store interface and errors.
package repository

import (
	"context"
	"time"
)

// Store keeps live sessions keyed by id. Reads refresh a session's idle timer.
type Store[V any] interface {
	// Put inserts or replaces the value for id.
	Put(ctx context.Context, id string, v V)

	// Get returns the value for id and marks it as used.
	// Returns ErrNotFound if the id is unknown.
	Get(ctx context.Context, id string) (V, error)

	// Delete removes id and returns the removed value.
	// Returns ErrNotFound if the id is unknown.
	Delete(ctx context.Context, id string) (V, error)

	// Count returns the number of stored sessions.
	Count(ctx context.Context) int

	// Expire removes every session idle for at least ttl as of now and
	// returns the removed values, oldest first.
	Expire(ctx context.Context, now time.Time, ttl time.Duration) []V

	// Clear removes every session and returns the removed values.
	Clear(ctx context.Context) []V
}
