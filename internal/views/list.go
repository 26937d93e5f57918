// Package views holds the per-screen controllers. Each owns an in-memory copy
// of what its screen shows, refetched in full after every mutation.
//
// Fetch and mutation failures are logged and leave the previous copy in
// place; the error is still returned so callers can pick an exit code.
package views

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mindconnect/internal/api"
	"mindconnect/internal/model"
	"mindconnect/internal/session"
)

var (
	ErrReadOnly    = errors.New("read-only view")
	ErrUnknownItem = errors.New("not in the loaded list")
)

// Deps is what every controller is built from.
type Deps struct {
	Session *session.Context
	API     *api.Client
	Log     *slog.Logger
	Now     func() time.Time
}

func (d Deps) logger() *slog.Logger {
	if d.Log == nil {
		return slog.Default()
	}
	return d.Log
}

func (d Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

// me is the signed-in identity id, or ErrNotAuthenticated.
func (d Deps) me() (int64, error) {
	id, err := d.Session.Require()
	if err != nil {
		return 0, err
	}
	return id.ID, nil
}

// Confirm asks the person before a destructive action.
type Confirm func(prompt string) bool

// Yes approves every prompt.
func Yes(string) bool { return true }

// Resource wires a List to the backend. Nil Create/Update/Delete make the
// list read-only for that operation.
type Resource[T any] struct {
	Name     string
	Prompt   string
	ID       func(T) int64
	Fetch    func(ctx context.Context) ([]T, error)
	Create   func(ctx context.Context, item T) (*T, error)
	Update   func(ctx context.Context, item T) (*T, error)
	Remove   func(ctx context.Context, id int64) error
	Validate func(item T, creating bool) error
}

type List[T any] struct {
	res Resource[T]
	log *slog.Logger

	mu    sync.RWMutex
	items []T
}

func NewList[T any](res Resource[T], log *slog.Logger) *List[T] {
	if log == nil {
		log = slog.Default()
	}
	return &List[T]{res: res, log: log.With("view", res.Name)}
}

func (l *List[T]) Load(ctx context.Context) error {
	items, err := l.res.Fetch(ctx)
	if err != nil {
		l.log.Error("fetch failed", "err", err)
		return fmt.Errorf("load %s: %w", l.res.Name, err)
	}
	l.mu.Lock()
	l.items = items
	l.mu.Unlock()
	return nil
}

func (l *List[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]T(nil), l.items...)
}

func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Get finds a cached item by id.
func (l *List[T]) Get(id int64) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, it := range l.items {
		if l.res.ID(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Save creates item when its id is zero and updates it otherwise.
func (l *List[T]) Save(ctx context.Context, item T) error {
	creating := l.res.ID(item) == 0
	if l.res.Validate != nil {
		if err := l.res.Validate(item, creating); err != nil {
			return err
		}
	}

	var err error
	switch {
	case creating && l.res.Create != nil:
		_, err = l.res.Create(ctx, item)
	case !creating && l.res.Update != nil:
		_, err = l.res.Update(ctx, item)
	default:
		return fmt.Errorf("save %s: %w", l.res.Name, ErrReadOnly)
	}
	if err != nil {
		l.log.Error("save failed", "id", l.res.ID(item), "err", err)
		return fmt.Errorf("save %s: %w", l.res.Name, err)
	}
	l.refresh(ctx)
	return nil
}

// Create saves a new item; it must not carry an id.
func (l *List[T]) Create(ctx context.Context, item T) error {
	if l.res.ID(item) != 0 {
		return &model.ValidationError{Field: "id", Message: "must be empty when creating"}
	}
	return l.Save(ctx, item)
}

// Edit applies changes to the cached copy of id and saves the whole item, so
// fields the caller did not touch go back unchanged. Load must run first.
func (l *List[T]) Edit(ctx context.Context, id int64, apply func(*T) error) error {
	item, ok := l.Get(id)
	if !ok {
		return fmt.Errorf("edit %s %d: %w", l.res.Name, id, ErrUnknownItem)
	}
	if err := apply(&item); err != nil {
		return err
	}
	if l.res.ID(item) != id {
		return &model.ValidationError{Field: "id", Message: "cannot change"}
	}
	return l.Save(ctx, item)
}

// Delete removes id once confirm approves; declining is not an error.
func (l *List[T]) Delete(ctx context.Context, id int64, confirm Confirm) (bool, error) {
	if l.res.Remove == nil {
		return false, fmt.Errorf("delete %s: %w", l.res.Name, ErrReadOnly)
	}
	if confirm == nil || !confirm(l.res.Prompt) {
		return false, nil
	}
	if err := l.res.Remove(ctx, id); err != nil {
		l.log.Error("delete failed", "id", id, "err", err)
		return false, fmt.Errorf("delete %s %d: %w", l.res.Name, id, err)
	}
	l.refresh(ctx)
	return true, nil
}

func (l *List[T]) refresh(ctx context.Context) {
	_ = l.Load(ctx)
}
