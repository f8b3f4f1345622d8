package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LocalProvider is an in-process Provider for single-replica deployments and tests.
// Entries expire after the TTL fixed at construction; per-call TTLs are ignored.
type LocalProvider struct {
	lru *expirable.LRU[string, []byte]
}

// NewLocalProvider creates a bounded cache holding at most size entries for ttl.
func NewLocalProvider(size int, ttl time.Duration) *LocalProvider {
	if size <= 0 {
		size = 256
	}
	return &LocalProvider{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

// Get returns a copy of the cached bytes or ErrCacheMiss.
func (p *LocalProvider) Get(_ context.Context, key string) ([]byte, error) {
	value, ok := p.lru.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	return append([]byte(nil), value...), nil
}

// Set stores a copy of value.
func (p *LocalProvider) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	p.lru.Add(key, append([]byte(nil), value...))
	return nil
}

// Del evicts key.
func (p *LocalProvider) Del(_ context.Context, key string) error {
	p.lru.Remove(key)
	return nil
}

// Close drops all entries.
func (p *LocalProvider) Close() error {
	p.lru.Purge()
	return nil
}
