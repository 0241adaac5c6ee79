package kv

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestSlotLoadMissing(t *testing.T) {
	slot := NewSlot[item](NewMemoryStore(), "things")

	items, seq, err := slot.Load(context.Background())
	assert.ErrorIs(t, err, ErrMissing)
	assert.Nil(t, items)
	assert.Zero(t, seq)
}

func TestSlotLoadCorrupt(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, Set(context.Background(), store, "things", []byte("{not json")))

	_, _, err := NewSlot[item](store, "things").Load(context.Background())
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestSlotLoadNullIsEmpty(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, Set(context.Background(), store, "things", []byte("null")))

	items, _, err := NewSlot[item](store, "things").Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
}

func TestSlotRoundTrip(t *testing.T) {
	ctx := context.Background()
	redisStore, _ := newRedisStore(t)
	backends := map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  redisStore,
	}
	for name, store := range backends {
		t.Run(name, func(t *testing.T) {
			slot := NewSlot[item](store, "things")
			want := []item{{ID: 3, Name: "c"}, {ID: 1, Name: "a"}, {ID: 2, Name: "b"}}

			require.NoError(t, slot.Save(ctx, want, 7))

			got, seq, err := slot.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.Equal(t, int64(7), seq)
		})
	}
}

func TestSlotSaveNilWritesEmptyArray(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	slot := NewSlot[item](store, "things")

	require.NoError(t, slot.Save(ctx, nil, 0))

	raw, err := store.Get(ctx, "things")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestSlotIgnoresUnreadableSequence(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.SetMulti(ctx,
		Entry{Key: "things", Value: []byte(`[{"id":4,"name":"d"}]`)},
		Entry{Key: "things:seq", Value: []byte("abc")},
	))

	items, seq, err := NewSlot[item](store, "things").Load(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Zero(t, seq)
}

func TestRedisStoreWritesBothKeys(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	require.NoError(t, NewSlot[item](store, "things").Save(ctx, []item{{ID: 1, Name: "a"}}, 1))

	assert.Equal(t, `[{"id":1,"name":"a"}]`, mustGet(t, mr, "things"))
	assert.Equal(t, "1", mustGet(t, mr, "things:seq"))
}

func TestRedisStoreMissingKey(t *testing.T) {
	store, _ := newRedisStore(t)
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrMissing)
}

func TestWithPrefix(t *testing.T) {
	ctx := context.Background()
	base := NewMemoryStore()
	store := WithPrefix(base, "tenant-a:")

	require.NoError(t, Set(ctx, store, "roles", []byte("[]")))

	_, err := base.Get(ctx, "roles")
	assert.ErrorIs(t, err, ErrMissing)
	raw, err := base.Get(ctx, "tenant-a:roles")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))

	assert.Same(t, base, WithPrefix(base, ""))
}

func TestNextID(t *testing.T) {
	assert.Equal(t, int64(1), NextID(0, 0))
	assert.Equal(t, int64(6), NextID(5, 2))
	assert.Equal(t, int64(10), NextID(3, 9))
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}
