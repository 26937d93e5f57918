package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindconnect/internal/store"
)

func TestStorePersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	st, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, st.Set(ctx, "token", "t1"))
	require.NoError(t, st.Set(ctx, "userType", "therapist"))
	require.NoError(t, st.Close())

	st, err = Open(ctx, path)
	require.NoError(t, err)
	defer st.Close()

	v, err := st.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "t1", v)

	require.NoError(t, st.Delete(ctx, "token", "userType", "user"))
	_, err = st.Get(ctx, "userType")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.Set(ctx, "k", "a"))
	require.NoError(t, st.Set(ctx, "k", "b"))
	v, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "b", v)
}

func TestPurge(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.Set(ctx, "gw:abc:token", "x"))
	n, err := st.Purge(ctx, "gw:", time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = st.Purge(ctx, "gw:", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPurgeKeepsOtherPrefixes(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer st.Close()

	for _, k := range []string{"token", "user", "userType", "gw:abc:token", "gw%:x", "g_:y"} {
		require.NoError(t, st.Set(ctx, k, "x"))
	}
	n, err := st.Purge(ctx, "gw:", time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	for _, k := range []string{"token", "user", "userType", "gw%:x", "g_:y"} {
		v, err := st.Get(ctx, k)
		require.NoError(t, err, k)
		assert.Equal(t, "x", v)
	}
}
