// Package blob defines the key/value blob store port the engine persists
// through. The engine never blocks on a backend: mutations apply in memory
// first and persistence is fired as a best-effort background write.
package blob

import (
	"context"
	"encoding/json"
	"fmt"
)

// Well-known dataset keys.
const (
	KeyTransactions = "transactions"
	KeyRules        = "rules"
	KeySettings     = "settings"
	KeyGenerators   = "generators"
)

// AllKeys returns every well-known dataset key, for full-snapshot sync.
func AllKeys() []string {
	return []string{KeyTransactions, KeyRules, KeySettings, KeyGenerators}
}

// Store is implemented by every storage backend (in-memory, JSON files,
// sqlite, remote HTTP service, Google Sheets). Retrieve returns (nil, nil)
// when the key has never been stored.
type Store interface {
	Store(ctx context.Context, key string, value []byte) error
	Retrieve(ctx context.Context, key string) ([]byte, error)
}

// PutJSON marshals v and stores it under key. Values are plain JSON;
// time.Time fields round-trip through RFC 3339 strings.
func PutJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.Store(ctx, key, b); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

// GetJSON retrieves key into v. Returns false when the key is absent.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	b, err := s.Retrieve(ctx, key)
	if err != nil {
		return false, fmt.Errorf("retrieve %s: %w", key, err)
	}
	if b == nil {
		return false, nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}
