package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/EcommerceGo/storefront/internal/domain"
	"github.com/utafrali/EcommerceGo/storefront/pkg/database"
)

const (
	loadSlotQuery = `
		SELECT version, payload
		FROM storefront_slots
		WHERE session_id = $1 AND slot = $2
		  AND (expires_at IS NULL OR expires_at > NOW())`

	// An expired row counts as absent, so a first save may replace it.
	insertSlotQuery = `
		INSERT INTO storefront_slots (session_id, slot, version, payload, updated_at, expires_at)
		VALUES ($1, $2, 1, $3, NOW(), $4)
		ON CONFLICT (session_id, slot) DO UPDATE
		SET version = 1, payload = EXCLUDED.payload, updated_at = NOW(), expires_at = EXCLUDED.expires_at
		WHERE storefront_slots.expires_at IS NOT NULL AND storefront_slots.expires_at <= NOW()`

	updateSlotQuery = `
		UPDATE storefront_slots
		SET version = version + 1, payload = $4, updated_at = NOW(), expires_at = $5
		WHERE session_id = $1 AND slot = $2 AND version = $3
		  AND (expires_at IS NULL OR expires_at > NOW())`
)

// SlotStore implements repository.SlotStore on a PostgreSQL table. The
// version column is the compare-and-swap guard.
type SlotStore struct {
	db  database.DBTX
	ttl time.Duration
	now func() time.Time
}

// NewSlotStore creates a PostgreSQL-backed slot store. A zero TTL stores
// rows without expiry.
func NewSlotStore(db database.DBTX, ttl time.Duration) *SlotStore {
	return &SlotStore{db: db, ttl: ttl, now: time.Now}
}

func (s *SlotStore) expiresAt() *time.Time {
	if s.ttl <= 0 {
		return nil
	}
	t := s.now().Add(s.ttl).UTC()
	return &t
}

// Load implements repository.SlotStore.
func (s *SlotStore) Load(ctx context.Context, sessionID, slot string) (payload []byte, version int64, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "LoadSlot", "SELECT storefront_slots")
	defer func() { end(err) }()

	err = s.db.QueryRow(ctx, loadSlotQuery, sessionID, slot).Scan(&version, &payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("query %s slot: %w", slot, err)
	}
	return payload, version, nil
}

// Save implements repository.SlotStore.
func (s *SlotStore) Save(ctx context.Context, sessionID, slot string, payload []byte, expected int64) (version int64, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "SaveSlot", "UPSERT storefront_slots")
	defer func() { end(err) }()

	var affected int64
	if expected == 0 {
		tag, err := s.db.Exec(ctx, insertSlotQuery, sessionID, slot, payload, s.expiresAt())
		if err != nil {
			return 0, fmt.Errorf("insert %s slot: %w", slot, err)
		}
		affected = tag.RowsAffected()
	} else {
		tag, err := s.db.Exec(ctx, updateSlotQuery, sessionID, slot, expected, payload, s.expiresAt())
		if err != nil {
			return 0, fmt.Errorf("update %s slot: %w", slot, err)
		}
		affected = tag.RowsAffected()
	}

	if affected == 0 {
		return 0, domain.ErrVersionConflict
	}
	return expected + 1, nil
}

// Ping runs a trivial query.
func (s *SlotStore) Ping(ctx context.Context) error {
	var one int
	return s.db.QueryRow(ctx, "SELECT 1").Scan(&one)
}

// PurgeExpired deletes expired rows and returns how many were removed.
func (s *SlotStore) PurgeExpired(ctx context.Context) (n int64, err error) {
	ctx, end := database.TraceQuery(ctx, database.SystemPostgres, "PurgeExpired", "DELETE storefront_slots")
	defer func() { end(err) }()

	tag, err := s.db.Exec(ctx, `DELETE FROM storefront_slots WHERE expires_at IS NOT NULL AND expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("purge expired slots: %w", err)
	}
	return tag.RowsAffected(), nil
}
