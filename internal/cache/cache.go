// Package cache provides the shared key/value store behind the rate limiter
// and the geo-IP lookups. Both backends satisfy fiber.Storage.
package cache

import (
	"encoding/json"
	"time"
)

// Store matches fiber.Storage. Get returns nil, nil for a missing key.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, val []byte, exp time.Duration) error
	Delete(key string) error
	Reset() error
	Close() error
}

// New returns the Redis backend when redisURL is set and the in-memory one otherwise.
func New(redisURL string) (Store, error) {
	if redisURL == "" {
		return NewMemory(10 * time.Minute), nil
	}
	return NewRedis(redisURL, "superloja:")
}

// GetJSON decodes the cached value for key into v. The bool reports a hit.
func GetJSON(s Store, key string, v any) (bool, error) {
	raw, err := s.Get(key)
	if err != nil || raw == nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, err
	}
	return true, nil
}

func SetJSON(s Store, key string, v any, exp time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(key, raw, exp)
}
