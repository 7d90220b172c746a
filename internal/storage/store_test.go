package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"storefront/internal/logging"
)

func memoryDSN(t *testing.T) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
}

func newGormStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(memoryDSN(t)), &gorm.Config{})
	require.NoError(t, err)
	store, err := NewGormStore(db)
	require.NoError(t, err)
	return store
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStoreFromClient(client, "test"), mr
}

// exerciseStore runs the shared Store contract against s.
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.Get(ctx, CartKey("s1"))
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, CartKey("s1"), []byte(`[1]`)))
	got, err := s.Get(ctx, CartKey("s1"))
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(got))

	// Overwrite is an upsert.
	require.NoError(t, s.Set(ctx, CartKey("s1"), []byte(`[1,2]`)))
	got, err = s.Get(ctx, CartKey("s1"))
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(got))

	// Keys of different owners are independent.
	_, err = s.Get(ctx, CartKey("s2"))
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, s.Delete(ctx, CartKey("s1")))
	require.NoError(t, s.Delete(ctx, CartKey("s1")))
	_, err = s.Get(ctx, CartKey("s1"))
	assert.ErrorIs(t, err, ErrKeyNotFound)

	var flag struct {
		IsAuth bool `json:"isAuth"`
	}
	require.NoError(t, SetJSON(ctx, s, AdminKey("s1"), map[string]bool{"isAuth": true}))
	require.NoError(t, GetJSON(ctx, s, AdminKey("s1"), &flag))
	assert.True(t, flag.IsAuth)

	require.NoError(t, s.Set(ctx, UserKey("s1"), []byte(`{not json`)))
	assert.Error(t, GetJSON(ctx, s, UserKey("s1"), &flag))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	value := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", value))
	value[0] = 'z'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestGormStore(t *testing.T) {
	s := newGormStore(t)
	exerciseStore(t, s)
	assert.NoError(t, s.Close())
}

func TestRedisStore(t *testing.T) {
	s, mr := newRedisStore(t)
	exerciseStore(t, s)

	require.NoError(t, s.Set(context.Background(), OrderKey("u1"), []byte(`{}`)))
	assert.True(t, mr.Exists("test:order:u1"))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	log := logging.Discard()

	s, err := Open(ctx, Options{Driver: "memory"}, log)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, Options{Driver: "sqlite", DSN: memoryDSN(t)}, log)
	require.NoError(t, err)
	assert.IsType(t, &GormStore{}, s)
	assert.NoError(t, s.Close())

	mr := miniredis.RunT(t)
	s, err = Open(ctx, Options{Driver: "redis", RedisURL: "redis://" + mr.Addr() + "/0", RedisNamespace: "sf"}, log)
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)
	assert.NoError(t, s.Close())

	_, err = Open(ctx, Options{Driver: "cassandra"}, log)
	assert.Error(t, err)
}
