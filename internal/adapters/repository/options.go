// Package repository defines the session store interface and errors.
package repository

import "time"

// Option applies a configuration option to the MemoryStore.
type Option func(*storeConfig)

type storeConfig struct {
	now func() time.Time
}

// WithClock sets the time source used to stamp reads and writes.
func WithClock(now func() time.Time) Option {
	return func(c *storeConfig) {
		if now != nil {
			c.now = now
		}
	}
}
