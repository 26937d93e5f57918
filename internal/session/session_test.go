package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindconnect/internal/access"
	"mindconnect/internal/model"
	"mindconnect/internal/store"
)

func TestLoginPersistsAndInitRestores(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()

	c := New(kv, nil)
	require.NoError(t, c.Init(ctx))
	assert.False(t, c.Authenticated())

	id := &model.Identity{ID: 5, FirstName: "A", Role: &model.Role{Name: "USER"}}
	require.NoError(t, c.Login(ctx, id, "t1", model.UserTypeTherapist))

	assert.Equal(t, "t1", c.Token())
	assert.Equal(t, int64(5), c.IdentityID())

	raw, err := kv.Get(ctx, KeyUser)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":5,"firstName":"A","lastName":"","email":"","role":{"name":"USER"}}`, raw)

	// a fresh context on the same storage behaves like a page reload
	reloaded := New(kv, nil)
	require.NoError(t, reloaded.Init(ctx))
	assert.Equal(t, "t1", reloaded.Token())
	assert.Equal(t, model.UserTypeTherapist, reloaded.UserType())
	require.NotNil(t, reloaded.Identity())
	assert.Equal(t, "A", reloaded.Identity().FirstName)
	assert.Equal(t, access.Principal{Authenticated: true, UserType: model.UserTypeTherapist, RoleName: "USER"}, reloaded.Principal())
}

func TestLogoutClearsAllKeys(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	c := New(kv, nil)
	require.NoError(t, c.Login(ctx, &model.Identity{ID: 1}, "t1", model.UserTypeUser))

	require.NoError(t, c.Logout(ctx))
	assert.False(t, c.Authenticated())
	assert.Nil(t, c.Identity())
	assert.Equal(t, model.UserType(""), c.UserType())
	assert.Zero(t, kv.Len())

	_, err := c.Require()
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestInitWithUnreadableUserKeepsToken(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	require.NoError(t, kv.Set(ctx, KeyToken, "t1"))
	require.NoError(t, kv.Set(ctx, KeyUser, "{not json"))
	require.NoError(t, kv.Set(ctx, KeyUserType, "user"))

	c := New(kv, nil)
	require.NoError(t, c.Init(ctx))
	assert.True(t, c.Authenticated())
	assert.Nil(t, c.Identity())
	assert.Equal(t, access.ClassUser, access.Classify(c.Principal()))
}

func TestInitIgnoresUserWithoutToken(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	require.NoError(t, kv.Set(ctx, KeyUser, `{"id":3}`))

	c := New(kv, nil)
	require.NoError(t, c.Init(ctx))
	assert.False(t, c.Authenticated())
	assert.Nil(t, c.Identity())
}

type failingKV struct {
	store.KV
	failSet bool
	failKey string
	failDel bool
}

func (f *failingKV) Set(ctx context.Context, k, v string) error {
	if f.failSet || (f.failKey != "" && k == f.failKey) {
		return errors.New("disk full")
	}
	return f.KV.Set(ctx, k, v)
}

func (f *failingKV) Delete(ctx context.Context, keys ...string) error {
	if f.failDel {
		return errors.New("read only")
	}
	return f.KV.Delete(ctx, keys...)
}

func TestLoginStorageFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{KV: store.NewMemory(), failSet: true}
	c := New(kv, nil)

	err := c.Login(ctx, &model.Identity{ID: 1}, "t1", model.UserTypeUser)
	require.Error(t, err)
	assert.False(t, c.Authenticated())
}

func TestLoginPartialWriteDoesNotSurviveReload(t *testing.T) {
	tests := []struct {
		name    string
		failKey string
	}{
		{"user", KeyUser},
		{"user type", KeyUserType},
		{"token", KeyToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			mem := store.NewMemory()
			c := New(&failingKV{KV: mem, failKey: tt.failKey}, nil)

			err := c.Login(ctx, &model.Identity{ID: 1}, "t1", model.UserTypeUser)
			require.Error(t, err)
			assert.False(t, c.Authenticated())
			assert.Zero(t, mem.Len(), "no key may outlive a failed login")

			reloaded := New(mem, nil)
			require.NoError(t, reloaded.Init(ctx))
			assert.False(t, reloaded.Authenticated())
			assert.Equal(t, "", reloaded.Token())
		})
	}
}

func TestLoginDoesNotPersistPassword(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	c := New(kv, nil)

	echoed := &model.Identity{ID: 2, Email: "sam@x.io", Password: "$2a$10$hash"}
	require.NoError(t, c.Login(ctx, echoed, "t1", model.UserTypeUser))

	raw, err := kv.Get(ctx, KeyUser)
	require.NoError(t, err)
	assert.NotContains(t, raw, "password")
	assert.Empty(t, c.Identity().Password)
	assert.Equal(t, "$2a$10$hash", echoed.Password, "caller's value is untouched")
}

func TestLogoutClearsMemoryEvenWhenStorageFails(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{KV: store.NewMemory()}
	c := New(kv, nil)
	require.NoError(t, c.Login(ctx, &model.Identity{ID: 1}, "t1", model.UserTypeUser))

	kv.failDel = true
	require.Error(t, c.Logout(ctx))
	assert.False(t, c.Authenticated())
}

func TestLoginRejectsEmptyToken(t *testing.T) {
	c := New(store.NewMemory(), nil)
	assert.Error(t, c.Login(context.Background(), &model.Identity{}, "", model.UserTypeUser))
}

func TestIdentityReturnsCopy(t *testing.T) {
	ctx := context.Background()
	c := New(store.NewMemory(), nil)
	require.NoError(t, c.Login(ctx, &model.Identity{ID: 1, FirstName: "A"}, "t", model.UserTypeUser))
	c.Identity().FirstName = "B"
	assert.Equal(t, "A", c.Identity().FirstName)
}
