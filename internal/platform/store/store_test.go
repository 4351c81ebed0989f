package store

import (
	"context"
	"subhub/internal/domain/model"
	"subhub/internal/platform/config"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_Memory(t *testing.T) {
	s, err := Open(context.Background(), &config.Config{StoreBackend: config.StoreMemory})
	require.NoError(t, err)
	assert.Nil(t, s.Redis)
	assert.NoError(t, s.Close())
}

func TestOpen_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := Open(context.Background(), &config.Config{
		StoreBackend:   config.StoreRedis,
		RedisAddr:      mr.Addr(),
		RedisKeyPrefix: "test:user",
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NotNil(t, s.Redis)

	require.NoError(t, s.Records.Put(context.Background(), "abc", model.UserRecord{Sub: "https://x", Expire: "2030-01-01T00:00:00.000Z"}))
	assert.True(t, mr.Exists("test:user:abc"))
}

func TestOpen_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Open(context.Background(), &config.Config{StoreBackend: config.StoreRedis, RedisAddr: addr})
	assert.Error(t, err)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{StoreBackend: "etcd"})
	assert.ErrorContains(t, err, "etcd")
}
