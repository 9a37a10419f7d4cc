package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, NewRedisClient(client, "test:")
}

func exercise(t *testing.T, s Store) {
	t.Helper()

	v, err := s.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, s.Set("a", []byte("1"), 0))
	v, err = s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	require.NoError(t, s.Delete("a"))
	v, _ = s.Get("a")
	assert.Nil(t, v)

	require.NoError(t, s.Set("b", []byte("2"), time.Minute))
	require.NoError(t, s.Reset())
	v, _ = s.Get("b")
	assert.Nil(t, v)
}

func TestMemoryStore(t *testing.T) {
	exercise(t, NewMemory(time.Minute))
}

func TestMemoryStoreExpires(t *testing.T) {
	m := NewMemory(time.Minute)
	require.NoError(t, m.Set("k", []byte("v"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)
	v, err := m.Get("k")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestRedisStore(t *testing.T) {
	_, r := setupRedis(t)
	exercise(t, r)
}

func TestRedisStoreKeepsForeignKeys(t *testing.T) {
	mr, r := setupRedis(t)
	require.NoError(t, mr.Set("other:key", "x"))
	require.NoError(t, r.Set("mine", []byte("y"), 0))
	require.NoError(t, r.Reset())

	assert.True(t, mr.Exists("other:key"))
	assert.False(t, mr.Exists("test:mine"))
}

func TestRedisStoreTTL(t *testing.T) {
	mr, r := setupRedis(t)
	require.NoError(t, r.Set("k", []byte("v"), time.Second))
	mr.FastForward(2 * time.Second)
	v, err := r.Get("k")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestJSONHelpers(t *testing.T) {
	s := NewMemory(time.Minute)
	type loc struct{ City string }
	require.NoError(t, SetJSON(s, "ip", loc{City: "Recife"}, 0))

	var got loc
	hit, err := GetJSON(s, "ip", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "Recife", got.City)

	hit, err = GetJSON(s, "nope", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}
