package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/pkg/database"
)

const (
	keyPrefix    = "storefront:"
	fieldVersion = "version"
	fieldPayload = "payload"
)

// SlotStore implements repository.SlotStore on Redis hashes. Saves use
// WATCH/MULTI so a concurrent writer makes the transaction fail instead of
// overwriting.
type SlotStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSlotStore creates a Redis-backed slot store. Every save refreshes the
// key's TTL; a zero TTL leaves keys without expiry.
func NewSlotStore(client *redis.Client, ttl time.Duration) *SlotStore {
	return &SlotStore{client: client, ttl: ttl}
}

func slotKey(sessionID, slot string) string {
	return keyPrefix + sessionID + ":" + slot
}

// Load implements repository.SlotStore.
func (s *SlotStore) Load(ctx context.Context, sessionID, slot string) (payload []byte, version int64, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemRedis, "LoadSlot", "HMGET")
	defer func() { end(err) }()

	vals, err := s.client.HMGet(ctx, slotKey(sessionID, slot), fieldVersion, fieldPayload).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("redis hmget %s: %w", slot, err)
	}
	rawVersion, ok1 := vals[0].(string)
	rawPayload, ok2 := vals[1].(string)
	if !ok1 || !ok2 {
		return nil, 0, nil
	}

	version, err = strconv.ParseInt(rawVersion, 10, 64)
	if err != nil {
		return nil, 0, fmt.Errorf("parse %s version: %w", slot, err)
	}
	return []byte(rawPayload), version, nil
}

// Save implements repository.SlotStore.
func (s *SlotStore) Save(ctx context.Context, sessionID, slot string, payload []byte, expected int64) (version int64, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemRedis, "SaveSlot", "WATCH/MULTI")
	defer func() { end(err) }()

	key := slotKey(sessionID, slot)
	txn := func(tx *redis.Tx) error {
		cur, err := tx.HGet(ctx, key, fieldVersion).Int64()
		switch {
		case errors.Is(err, redis.Nil):
			cur = 0
		case err != nil:
			return fmt.Errorf("redis hget version: %w", err)
		}
		if cur != expected {
			return domain.ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, key, fieldVersion, expected+1, fieldPayload, payload)
			if s.ttl > 0 {
				p.Expire(ctx, key, s.ttl)
			}
			return nil
		})
		return err
	}

	if err := s.client.Watch(ctx, txn, key); err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return 0, domain.ErrVersionConflict
		}
		if errors.Is(err, domain.ErrVersionConflict) {
			return 0, err
		}
		return 0, fmt.Errorf("redis save %s: %w", slot, err)
	}
	return expected + 1, nil
}

// Ping implements repository.SlotStore.
func (s *SlotStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
