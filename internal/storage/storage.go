package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Persisted keys. Values are JSON documents and every write replaces the
// whole value of its key.
const (
	KeyCart                    = "cart"
	KeyWishlist                = "wishlist"
	KeyOrders                  = "orders"
	KeyUserProfile             = "userProfile"
	KeyProducts                = "products"
	KeyUserLoggedIn            = "userLoggedIn"
	KeyUserEmail               = "userEmail"
	KeyUserName                = "userName"
	KeyUserID                  = "userId"
	KeyNewsletterSubscriptions = "newsletterSubscriptions"
	KeyUserCredentials         = "userCredentials"
)

// Store is a key/value mirror of the storefront state
type Store interface {
	// Get decodes the value of key into v. It reports false when the key is
	// absent.
	Get(ctx context.Context, key string, v interface{}) (bool, error)
	Set(ctx context.Context, key string, v interface{}) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

type memoryStore struct {
	mu     sync.RWMutex
	values map[string]json.RawMessage
}

// NewMemoryStore creates a store that lives only as long as the process
func NewMemoryStore() *memoryStore {
	return &memoryStore{values: make(map[string]json.RawMessage)}
}

func (s *memoryStore) Get(ctx context.Context, key string, v interface{}) (bool, error) {
	s.mu.RLock()
	raw, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (s *memoryStore) Set(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	s.mu.Lock()
	s.values[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.values), nil
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
