package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ── Report types ─────────────────────────────────────────────────────────────

// OrderStats counts orders by current status. Every catalog status appears in
// StatusBreakdown, zero or not, and the counts sum to TotalOrders.
type OrderStats struct {
	TotalOrders      int            `json:"total_orders"`
	NewOrders        int            `json:"new_orders"`
	PendingOrders    int            `json:"pending_orders"`
	ProcessingOrders int            `json:"processing_orders"`
	ShippedOrders    int            `json:"shipped_orders"`
	DeliveredOrders  int            `json:"delivered_orders"`
	CancelledOrders  int            `json:"cancelled_orders"`
	StatusBreakdown  map[string]int `json:"status_breakdown"`
}

// ── Interface ────────────────────────────────────────────────────────────────

// StatsService provides read-only aggregate queries over orders.
type StatsService interface {
	// GetOrderStats reads all counts in a single statement so they describe one snapshot.
	GetOrderStats(ctx context.Context) (*OrderStats, error)
}

type statsService struct {
	pool *pgxpool.Pool
}

func NewStatsService(pool *pgxpool.Pool) StatsService {
	return &statsService{pool: pool}
}

func (s *statsService) GetOrderStats(ctx context.Context) (*OrderStats, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT st.code, COUNT(o.id)
		FROM order_statuses st
		LEFT JOIN orders o ON o.status_id = st.id
		GROUP BY st.code
		ORDER BY st.code
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query order stats: %w", err)
	}
	defer rows.Close()

	breakdown := make(map[string]int)
	for rows.Next() {
		var code string
		var n int
		if err := rows.Scan(&code, &n); err != nil {
			return nil, fmt.Errorf("failed to scan order stats: %w", err)
		}
		breakdown[code] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read order stats: %w", err)
	}
	return buildOrderStats(breakdown), nil
}

// buildOrderStats derives the named counters from a per-code breakdown.
func buildOrderStats(breakdown map[string]int) *OrderStats {
	st := &OrderStats{StatusBreakdown: breakdown}
	for _, n := range breakdown {
		st.TotalOrders += n
	}
	st.NewOrders = breakdown[StatusNew]
	st.PendingOrders = breakdown[StatusPendingPayment]
	st.ProcessingOrders = breakdown[StatusProcessing]
	st.ShippedOrders = breakdown[StatusShipped]
	st.DeliveredOrders = breakdown[StatusDelivered]
	st.CancelledOrders = breakdown[StatusCancelled]
	return st
}
