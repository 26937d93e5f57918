package store

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

type sealed struct {
	kv  KV
	key [32]byte
}

// Sealed encrypts values with NaCl secretbox before handing them to kv.
// Keys are stored in the clear.
func Sealed(kv KV, key [32]byte) KV {
	return &sealed{kv: kv, key: key}
}

// ParseKey decodes a 64 character hex storage key.
func ParseKey(s string) ([32]byte, error) {
	var key [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return key, fmt.Errorf("store key: %w", err)
	}
	if len(b) != len(key) {
		return key, fmt.Errorf("store key: want %d bytes, got %d", len(key), len(b))
	}
	copy(key[:], b)
	return key, nil
}

func (s *sealed) Get(ctx context.Context, key string) (string, error) {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		return "", err
	}
	box, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(box) < nonceSize {
		return "", ErrCorrupt
	}
	var nonce [nonceSize]byte
	copy(nonce[:], box[:nonceSize])
	plain, ok := secretbox.Open(nil, box[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", ErrCorrupt
	}
	return string(plain), nil
}

func (s *sealed) Set(ctx context.Context, key, value string) error {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return err
	}
	box := secretbox.Seal(nonce[:], []byte(value), &nonce, &s.key)
	return s.kv.Set(ctx, key, base64.StdEncoding.EncodeToString(box))
}

func (s *sealed) Delete(ctx context.Context, keys ...string) error {
	return s.kv.Delete(ctx, keys...)
}
