package app

import (
	"context"

	"order-service/internal/core"
)

// ApplicationService is the single interface all adapters (CLI, Web) call.
// Implementations hold no display logic.
//
// Order refs accept either the order UUID or its order number.
type ApplicationService interface {
	// ListReferenceData returns one catalog sorted by name.
	ListReferenceData(ctx context.Context, kind core.CatalogKind, activeOnly bool) (*ReferenceListResult, error)

	// SeedReferenceData inserts the built-in catalog rows that are missing and reloads the catalog.
	SeedReferenceData(ctx context.Context) error

	// CreateOrder validates the request and creates the order with its items,
	// shipping address, payment details and genesis history row.
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error)

	// TransitionOrderStatus moves an order to a new status and appends a history row.
	TransitionOrderStatus(ctx context.Context, ref string, req TransitionStatusRequest) (*OrderResult, error)

	// UpdateOrder applies a partial update to the order's customer and delivery fields.
	UpdateOrder(ctx context.Context, ref string, patch core.OrderPatch) (*OrderResult, error)

	// GetOrder returns the full aggregate.
	GetOrder(ctx context.Context, ref string) (*OrderResult, error)

	// ListOrders returns one page of order summaries, newest first.
	ListOrders(ctx context.Context, req ListOrdersRequest) (*OrderListResult, error)

	// GetStatusHistory returns the order's status ledger, oldest first.
	GetStatusHistory(ctx context.Context, ref string) (*StatusHistoryResult, error)

	// GetOrderStats returns counts of orders by current status.
	GetOrderStats(ctx context.Context) (*core.OrderStats, error)

	// CheckHealth verifies the database is reachable.
	CheckHealth(ctx context.Context) error
}
