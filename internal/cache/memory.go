package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type Memory struct {
	c *gocache.Cache
}

// NewMemory keeps entries in process; expired entries are purged every cleanup interval.
func NewMemory(cleanup time.Duration) *Memory {
	return &Memory{c: gocache.New(gocache.NoExpiration, cleanup)}
}

func (m *Memory) Get(key string) ([]byte, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, nil
	}
	b, _ := v.([]byte)
	return b, nil
}

func (m *Memory) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	if exp <= 0 {
		exp = gocache.NoExpiration
	}
	cp := make([]byte, len(val))
	copy(cp, val)
	m.c.Set(key, cp, exp)
	return nil
}

func (m *Memory) Delete(key string) error {
	m.c.Delete(key)
	return nil
}

func (m *Memory) Reset() error {
	m.c.Flush()
	return nil
}

func (m *Memory) Close() error { return nil }
