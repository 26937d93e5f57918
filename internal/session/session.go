// Package session holds the signed-in identity, its API token and user type.
//
// A Context is created explicitly and handed to every controller that needs
// identity; nothing reads storage behind its back. State is persisted under
// the keys token, user and userType, written together on Login and removed
// together on Logout.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"mindconnect/internal/access"
	"mindconnect/internal/model"
	"mindconnect/internal/store"
)

const (
	KeyToken    = "token"
	KeyUser     = "user"
	KeyUserType = "userType"
)

var ErrNotAuthenticated = errors.New("not signed in")

type Context struct {
	kv  store.KV
	log *slog.Logger

	mu       sync.RWMutex
	token    string
	identity *model.Identity
	userType model.UserType
}

func New(kv store.KV, log *slog.Logger) *Context {
	if log == nil {
		log = slog.Default()
	}
	return &Context{kv: kv, log: log}
}

// Init loads whatever a previous Login left in storage.
// A token without a readable user still counts as signed in.
func (c *Context) Init(ctx context.Context) error {
	token, err := c.read(ctx, KeyToken)
	if err != nil {
		return err
	}
	userType, err := c.read(ctx, KeyUserType)
	if err != nil {
		return err
	}

	var identity *model.Identity
	if token != "" {
		raw, err := c.read(ctx, KeyUser)
		if err != nil {
			return err
		}
		if raw != "" {
			var id model.Identity
			if err := json.Unmarshal([]byte(raw), &id); err != nil {
				c.log.Warn("stored user unreadable, ignoring", "err", err)
			} else {
				identity = &id
			}
		}
	}

	c.mu.Lock()
	c.token = token
	c.identity = identity
	c.userType = model.UserType(userType)
	c.mu.Unlock()
	return nil
}

func (c *Context) read(ctx context.Context, key string) (string, error) {
	v, err := c.kv.Get(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "", nil
	case errors.Is(err, store.ErrCorrupt):
		c.log.Warn("stored value corrupt, ignoring", "key", key)
		return "", nil
	case err != nil:
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return v, nil
}

// Login persists all three values, then updates memory. The token is
// written last so a partial write never reads back as signed in; on a
// storage error the keys already written are removed and the in-memory state
// is left as it was. The password is never persisted.
func (c *Context) Login(ctx context.Context, identity *model.Identity, token string, userType model.UserType) error {
	if token == "" {
		return errors.New("login: empty token")
	}
	if identity != nil {
		clean := *identity
		clean.Password = ""
		identity = &clean
	}
	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("login: encode user: %w", err)
	}

	writes := []struct{ key, value string }{
		{KeyUser, string(raw)},
		{KeyUserType, string(userType)},
		{KeyToken, token},
	}
	for i, kw := range writes {
		if err := c.kv.Set(ctx, kw.key, kw.value); err != nil {
			written := make([]string, 0, i)
			for _, prev := range writes[:i] {
				written = append(written, prev.key)
			}
			if len(written) > 0 {
				if derr := c.kv.Delete(ctx, written...); derr != nil {
					c.log.Warn("login rollback failed", "keys", written, "err", derr)
				}
			}
			return fmt.Errorf("login: %w", err)
		}
	}

	c.mu.Lock()
	c.token = token
	c.identity = identity
	c.userType = userType
	c.mu.Unlock()
	return nil
}

// Logout always clears memory; the storage error, if any, is returned.
func (c *Context) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.token = ""
	c.identity = nil
	c.userType = ""
	c.mu.Unlock()

	if err := c.kv.Delete(ctx, KeyToken, KeyUser, KeyUserType); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Token satisfies api.TokenSource.
func (c *Context) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Context) Identity() *model.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.identity == nil {
		return nil
	}
	id := *c.identity
	return &id
}

func (c *Context) UserType() model.UserType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userType
}

func (c *Context) Authenticated() bool {
	return c.Token() != ""
}

// IdentityID is 0 when nobody is signed in.
func (c *Context) IdentityID() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.identity == nil {
		return 0
	}
	return c.identity.ID
}

func (c *Context) Principal() access.Principal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return access.Principal{
		Authenticated: c.token != "",
		UserType:      c.userType,
		RoleName:      c.identity.RoleName(),
	}
}

// Require returns the identity or ErrNotAuthenticated.
func (c *Context) Require() (*model.Identity, error) {
	id := c.Identity()
	if !c.Authenticated() || id == nil {
		return nil, ErrNotAuthenticated
	}
	return id, nil
}
