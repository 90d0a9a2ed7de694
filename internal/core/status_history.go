package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Genesis values recorded when an order is created.
const (
	GenesisActor = "system"
	GenesisNotes = "order created"
)

// appendStatusHistory adds one ledger row. changed_at never moves backwards
// within an order, even if the database clock does; seq breaks ties.
func appendStatusHistory(ctx context.Context, q pgxQuerier, orderID, statusID uuid.UUID, actor, notes string) (*StatusHistoryEntry, error) {
	var e StatusHistoryEntry
	err := q.QueryRow(ctx, `
		INSERT INTO order_status_history (id, order_id, status_id, changed_at, actor_details, notes)
		SELECT $1::uuid, $2::uuid, $3::uuid,
			GREATEST(clock_timestamp(), COALESCE(MAX(h.changed_at), '-infinity'::timestamptz)),
			$4::text, $5::text
		FROM order_status_history h
		WHERE h.order_id = $2::uuid
		RETURNING id, order_id, status_id, changed_at, actor_details, notes
	`, uuid.New(), orderID, statusID, actor, notes).Scan(
		&e.ID, &e.OrderID, &e.StatusID, &e.ChangedAt, &e.ActorDetails, &e.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to append status history: %w", err)
	}
	return &e, nil
}

// listStatusHistory returns an order's ledger oldest first.
func listStatusHistory(ctx context.Context, q pgxQuerier, orderID uuid.UUID) ([]StatusHistoryEntry, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, status_id, changed_at, actor_details, notes
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY changed_at, seq
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	entries := []StatusHistoryEntry{}
	for rows.Next() {
		var e StatusHistoryEntry
		if err := rows.Scan(&e.ID, &e.OrderID, &e.StatusID, &e.ChangedAt, &e.ActorDetails, &e.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan status history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read status history: %w", err)
	}
	return entries, nil
}
