package app

import (
	"order-service/internal/core"

	"github.com/google/uuid"
)

// OrderResult is returned by order lifecycle operations.
type OrderResult struct {
	Order *core.Order
}

// OrderListResult is returned by ListOrders. Total counts every match, not just this page.
type OrderListResult struct {
	Orders []core.OrderSummary
	Total  int
	Skip   int
	Limit  int
}

// StatusHistoryResult is returned by GetStatusHistory.
type StatusHistoryResult struct {
	OrderID uuid.UUID
	Entries []core.StatusHistoryEntry
}

// ReferenceListResult is returned by ListReferenceData.
type ReferenceListResult struct {
	Kind    core.CatalogKind
	Entries []core.ReferenceEntry
}
