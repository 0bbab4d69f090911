// Package cache stores knee results keyed by a digest of the request that
// produced them.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/runningwild/kneedle/pkg/knee"
)

type Cache interface {
	// Get reports a miss as (nil, false, nil).
	Get(ctx context.Context, key string) (*knee.Result, bool, error)
	Set(ctx context.Context, key string, r knee.Result, ttl time.Duration) error
}

// Key is the hex SHA-256 of a canonical request body.
func Key(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

type entry struct {
	result  knee.Result
	expires time.Time
}

// Memory is an in-process Cache. Expired entries are dropped on read.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]entry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) (*knee.Result, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	r := e.result
	return &r, true, nil
}

// Set stores r. A ttl of 0 never expires.
func (m *Memory) Set(_ context.Context, key string, r knee.Result, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := entry{result: r}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
