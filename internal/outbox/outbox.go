// Package outbox stores domain events in the same transaction as the state
// change that produced them and relays them to a publisher afterwards.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"order-service/internal/logging"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Record is one persisted event.
type Record struct {
	ID        int64           `json:"id"`
	EventID   uuid.UUID       `json:"event_id"`
	EventType string          `json:"event_type"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at,omitempty"`
}

// Execer is satisfied by pgx.Tx, *pgxpool.Pool and *pgx.Conn.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Insert writes an event row using q. Pass the caller's transaction so the
// event commits or rolls back with the state change it describes.
func Insert(ctx context.Context, q Execer, eventType, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", eventType, err)
	}
	_, err = q.Exec(ctx,
		`INSERT INTO outbox (event_id, event_type, key, payload) VALUES ($1, $2, $3, $4)`,
		uuid.New(), eventType, key, data,
	)
	if err != nil {
		return fmt.Errorf("failed to insert %s event: %w", eventType, err)
	}
	return nil
}

// Store reads and acknowledges pending events.
type Store interface {
	FetchPending(ctx context.Context, limit int) ([]Record, error)
	MarkSent(ctx context.Context, id int64) error
}

// Publisher delivers one event to the outside world.
type Publisher interface {
	Publish(ctx context.Context, rec Record) error
}

type pgStore struct {
	pool *pgxpool.Pool
}

// NewStore returns a Store backed by the outbox table.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) FetchPending(ctx context.Context, limit int) ([]Record, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, event_id, event_type, key, payload, created_at, sent_at
		FROM outbox
		WHERE sent_at IS NULL
		ORDER BY id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending events: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var payload []byte
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.EventType, &rec.Key, &payload, &rec.CreatedAt, &rec.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		rec.Payload = payload
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *pgStore) MarkSent(ctx context.Context, id int64) error {
	if _, err := s.pool.Exec(ctx, `UPDATE outbox SET sent_at = NOW() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to mark event %d sent: %w", id, err)
	}
	return nil
}

// Relay moves pending events from a Store to a Publisher. Delivery is
// at-least-once: a crash between Publish and MarkSent republishes the event,
// so consumers deduplicate on EventID.
type Relay struct {
	store     Store
	publisher Publisher
	logger    *zap.Logger
	interval  time.Duration
	batchSize int
}

func NewRelay(store Store, publisher Publisher, logger *zap.Logger, interval time.Duration, batchSize int) *Relay {
	logger = logging.OrNop(logger)
	if interval <= 0 {
		interval = time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Relay{store: store, publisher: publisher, logger: logger, interval: interval, batchSize: batchSize}
}

// RelayOnce publishes one batch in id order and returns how many events were sent.
// It stops at the first publish failure so later events never overtake earlier ones.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	pending, err := r.store.FetchPending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, rec := range pending {
		if err := r.publisher.Publish(ctx, rec); err != nil {
			return sent, fmt.Errorf("failed to publish event %s: %w", rec.EventID, err)
		}
		if err := r.store.MarkSent(ctx, rec.ID); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// Run relays on every tick until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("outbox relay started", zap.Duration("interval", r.interval), zap.Int("batch_size", r.batchSize))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
			n, err := r.RelayOnce(ctx)
			if err != nil {
				r.logger.Warn("outbox relay failed", zap.Int("sent", n), zap.Error(err))
				continue
			}
			if n > 0 {
				r.logger.Debug("outbox events relayed", zap.Int("sent", n))
			}
		}
	}
}
