package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/roledesk/internal/platform/kv"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenStorageMemory(t *testing.T) {
	store, closeFn, err := OpenStorage(context.Background(), &Config{StorageDriver: DriverMemory}, discardLogger())
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, kv.Set(context.Background(), store, "roles", []byte("[]")))
}

func TestOpenStorageRedisWithPrefix(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	cfg := &Config{StorageDriver: DriverRedis, RedisAddr: mr.Addr(), StorageKeyPrefix: "acme:"}

	store, closeFn, err := OpenStorage(ctx, cfg, discardLogger())
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, kv.Set(ctx, store, "users", []byte("[]")))
	v, err := mr.Get("acme:users")
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestOpenStorageRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, closeFn, err := OpenStorage(context.Background(), &Config{StorageDriver: DriverRedis, RedisAddr: addr}, discardLogger())
	assert.Error(t, err)
	assert.NotNil(t, closeFn)
}

func TestOpenStorageUnknownDriver(t *testing.T) {
	_, _, err := OpenStorage(context.Background(), &Config{StorageDriver: "sqlite"}, discardLogger())
	assert.Error(t, err)
}
