package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindconnect/internal/config"
	"mindconnect/internal/handler"
	"mindconnect/internal/session"
)

func TestSqliteStoreIsSeparateFromCLI(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.StatePath = filepath.Join(dir, "state.db")
	cfg.Gateway.StatePath = filepath.Join(dir, "gateway.db")
	cfg.Gateway.Store = "sqlite"

	ctx := context.Background()
	kv, closeStore, err := openStore(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer closeStore()

	_, err = os.Stat(cfg.Gateway.StatePath)
	assert.NoError(t, err)
	_, err = os.Stat(cfg.StatePath)
	assert.True(t, os.IsNotExist(err))

	t.Run("purge only touches gateway keys", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, session.KeyToken, "cli-token"))
		require.NoError(t, kv.Set(ctx, handler.KeyPrefix+"abc:"+session.KeyToken, "gw-token"))

		p, ok := kv.(purger)
		require.True(t, ok)
		n, err := p.Purge(ctx, handler.KeyPrefix, time.Now().Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		v, err := kv.Get(ctx, session.KeyToken)
		require.NoError(t, err)
		assert.Equal(t, "cli-token", v)
	})
}
