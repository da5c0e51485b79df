package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	pkgredis "github.com/rohitnair-dev/storefront-backend/pkg/redis"
)

// Bag is the raw session cart: product ID to quantity.
type Bag map[uuid.UUID]int

type keyValueStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CartKey(sessionID string) string
}

// Store persists session cart bags in Redis as JSON with a sliding TTL.
type Store struct {
	kv  keyValueStore
	ttl time.Duration
}

// NewStore builds a cart store. TTL bounds how long an idle cart survives.
func NewStore(kv keyValueStore, ttl time.Duration) (*Store, error) {
	if kv == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &Store{kv: kv, ttl: ttl}, nil
}

// Load returns the session's bag. A missing key is an empty cart.
func (s *Store) Load(ctx context.Context, sessionID string) (Bag, error) {
	raw, err := s.kv.Get(ctx, s.kv.CartKey(sessionID))
	if errors.Is(err, pkgredis.Nil) {
		return Bag{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading cart: %w", err)
	}

	var bag Bag
	if err := json.Unmarshal([]byte(raw), &bag); err != nil {
		return nil, fmt.Errorf("decoding cart: %w", err)
	}
	if bag == nil {
		bag = Bag{}
	}
	return bag, nil
}

// Save writes the bag back, refreshing the TTL. An empty bag deletes the key.
func (s *Store) Save(ctx context.Context, sessionID string, bag Bag) error {
	key := s.kv.CartKey(sessionID)
	if len(bag) == 0 {
		if err := s.kv.Del(ctx, key); err != nil {
			return fmt.Errorf("clearing cart: %w", err)
		}
		return nil
	}

	payload, err := json.Marshal(bag)
	if err != nil {
		return fmt.Errorf("encoding cart: %w", err)
	}
	if err := s.kv.Set(ctx, key, string(payload), s.ttl); err != nil {
		return fmt.Errorf("saving cart: %w", err)
	}
	return nil
}

// Clear removes the session's bag.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if err := s.kv.Del(ctx, s.kv.CartKey(sessionID)); err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}
