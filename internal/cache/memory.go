package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Memory is an in-process LRU cache. Entries are evicted when the cache holds
// more than size entries or when they are older than ttl.
type Memory struct {
	lru *expirable.LRU[string, string]
}

var _ Cache = (*Memory)(nil)

// NewMemory creates a memory cache. size <= 0 means unbounded, ttl <= 0 means
// entries never expire.
func NewMemory(size int, ttl time.Duration) *Memory {
	if size < 0 {
		size = 0
	}
	return &Memory{lru: expirable.NewLRU[string, string](size, nil, ttl)}
}

func (m *Memory) Insert(_ context.Context, key, value string) error {
	m.lru.Add(key, value)
	return nil
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	value, ok := m.lru.Get(key)
	return value, ok, nil
}

func (m *Memory) Remove(_ context.Context, key string) error {
	m.lru.Remove(key)
	return nil
}

// Len reports the number of live entries.
func (m *Memory) Len() int {
	return m.lru.Len()
}

func (m *Memory) Kind() string { return "memory" }

func (m *Memory) Close() error {
	m.lru.Purge()
	return nil
}
