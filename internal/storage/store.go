// Package storage persists the client-side state a storefront session
// carries between requests: the cart, the current user snapshot, the admin
// flag and the last checkout summary. Each session owns its own keys, so a
// single writer per key is the normal case and no locking across keys is
// attempted.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrKeyNotFound is returned by Get for a key that was never written or
// has been deleted.
var ErrKeyNotFound = errors.New("storage key not found")

// Store is a durable key/value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Semantic key prefixes. The owner is a session or user id.
const (
	prefixCart   = "AddedToCart"
	prefixUser   = "user"
	prefixAdmin  = "admin"
	prefixOrder  = "order"
	keySeparator = ":"
)

// CartKey is where an owner's cart line items live.
func CartKey(owner string) string { return prefixCart + keySeparator + owner }

// UserKey is where an owner's current user snapshot lives.
func UserKey(owner string) string { return prefixUser + keySeparator + owner }

// AdminKey is where an owner's admin flag lives.
func AdminKey(owner string) string { return prefixAdmin + keySeparator + owner }

// OrderKey is where an owner's last checkout summary lives.
func OrderKey(owner string) string { return prefixOrder + keySeparator + owner }

// GetJSON reads key and decodes it into out.
func GetJSON(ctx context.Context, s Store, key string, out interface{}) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes value and writes it under key.
func SetJSON(ctx context.Context, s Store, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}
