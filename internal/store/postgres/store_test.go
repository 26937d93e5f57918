package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindconnect/internal/store"
	"mindconnect/internal/store/postgres"
)

func setup(t *testing.T) *postgres.Store {
	t.Helper()
	_ = godotenv.Load("../../../.env")
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	st, err := postgres.New(context.Background(), pool)
	require.NoError(t, err)
	return st
}

func TestStoreRoundTrip(t *testing.T) {
	st := setup(t)
	ctx := context.Background()
	key := "test-" + uuid.New().String() + ":token"

	_, err := st.Get(ctx, key)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, st.Set(ctx, key, "t1"))
	require.NoError(t, st.Set(ctx, key, "t2"))
	v, err := st.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "t2", v)

	require.NoError(t, st.Delete(ctx, key))
	_, err = st.Get(ctx, key)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPurge(t *testing.T) {
	st := setup(t)
	ctx := context.Background()
	prefix := "test-" + uuid.New().String()
	key := prefix + ":user"
	other := "other-" + uuid.New().String() + ":user"
	require.NoError(t, st.Set(ctx, key, "{}"))
	require.NoError(t, st.Set(ctx, other, "{}"))
	t.Cleanup(func() { _ = st.Delete(context.Background(), other) })

	n, err := st.Purge(ctx, prefix, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = st.Get(ctx, key)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.Get(ctx, other)
	assert.NoError(t, err)
}
