package handler

import (
	"context"
	"fmt"
	"log/slog"

	"mindconnect/internal/auth"
	"mindconnect/internal/session"
	"mindconnect/internal/store"
)

// KeyPrefix starts every key the gateway writes.
const KeyPrefix = "gw:"

// Sessions opens per-browser session contexts over one shared store, each
// under its own key prefix.
type Sessions struct {
	kv  store.KV
	log *slog.Logger
}

func NewSessions(kv store.KV, log *slog.Logger) *Sessions {
	return &Sessions{kv: kv, log: log}
}

func (s *Sessions) Open(ctx context.Context, sid string) (*session.Context, error) {
	kv := store.Prefixed(s.kv, KeyPrefix+auth.HashSessionID(sid))
	sc := session.New(kv, s.log)
	if err := sc.Init(ctx); err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	return sc, nil
}
