package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		opts, err := Config{}.Options()
		require.NoError(t, err)
		assert.Equal(t, DefaultAddr, opts.Addr)
		assert.Equal(t, DefaultPoolSize, opts.PoolSize)
	})
	t.Run("url", func(t *testing.T) {
		opts, err := Config{Addr: "ignored:1", URL: "redis://:secret@cache:6380/2"}.Options()
		require.NoError(t, err)
		assert.Equal(t, "cache:6380", opts.Addr)
		assert.Equal(t, "secret", opts.Password)
		assert.Equal(t, 2, opts.DB)
	})
	t.Run("invalid url", func(t *testing.T) {
		_, err := Config{URL: "http://cache"}.Options()
		assert.Error(t, err)
	})
}

func TestNew(t *testing.T) {
	s := miniredis.RunT(t)

	client, err := New(context.Background(), Config{Addr: s.Addr()})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}
