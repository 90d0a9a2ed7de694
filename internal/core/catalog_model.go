package core

import (
	"time"

	"github.com/google/uuid"
)

// CatalogKind names one of the three reference catalogs.
type CatalogKind string

const (
	CatalogOrderStatus    CatalogKind = "order_status"
	CatalogDeliveryMethod CatalogKind = "delivery_method"
	CatalogPaymentMethod  CatalogKind = "payment_method"
)

// AllCatalogs lists every catalog in seeding order.
var AllCatalogs = []CatalogKind{CatalogOrderStatus, CatalogDeliveryMethod, CatalogPaymentMethod}

func (k CatalogKind) table() string {
	switch k {
	case CatalogOrderStatus:
		return "order_statuses"
	case CatalogDeliveryMethod:
		return "delivery_methods"
	case CatalogPaymentMethod:
		return "payment_methods"
	}
	return ""
}

// Label is the human-readable catalog name used in error messages.
func (k CatalogKind) Label() string {
	switch k {
	case CatalogOrderStatus:
		return "order status"
	case CatalogDeliveryMethod:
		return "delivery method"
	case CatalogPaymentMethod:
		return "payment method"
	}
	return string(k)
}

// ReferenceEntry is one row of a reference catalog. Code is immutable once
// seeded because orders reference it by foreign key.
type ReferenceEntry struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Well-known order status codes.
const (
	StatusNew            = "NEW"
	StatusPendingPayment = "PENDING_PAYMENT"
	StatusProcessing     = "PROCESSING"
	StatusShipped        = "SHIPPED"
	StatusDelivered      = "DELIVERED"
	StatusCancelled      = "CANCELLED"
)

// PaymentStatusPending is the payment status every new order starts with.
const PaymentStatusPending = "PENDING"

// seedEntries holds the stable ids and codes written by Catalog.Seed.
var seedEntries = map[CatalogKind][]ReferenceEntry{
	CatalogOrderStatus: {
		{ID: uuid.MustParse("f7661699-0081-4b93-b227-f51c2a188936"), Code: StatusNew, Name: "New", Description: "Order created"},
		{ID: uuid.MustParse("d5ee11b3-2dc2-4eeb-81fd-ebeeb7fa35cd"), Code: StatusPendingPayment, Name: "Awaiting payment", Description: "Order is waiting for payment confirmation"},
		{ID: uuid.MustParse("e87d2783-d80f-4a42-a7e4-a7302f6b7510"), Code: StatusProcessing, Name: "Processing", Description: "Order accepted for processing"},
		{ID: uuid.MustParse("823f3c37-200e-4a7c-9466-84ea031e3af3"), Code: StatusShipped, Name: "Shipped", Description: "Order handed to the carrier"},
		{ID: uuid.MustParse("823d75db-b9c6-4f58-a2f0-1bbc294cc910"), Code: StatusDelivered, Name: "Delivered", Description: "Order delivered to the customer"},
		{ID: uuid.MustParse("0a455718-3182-4366-a857-94ada249ed11"), Code: StatusCancelled, Name: "Cancelled", Description: "Order cancelled"},
	},
	CatalogDeliveryMethod: {
		{ID: uuid.MustParse("fad12742-f0f9-4873-952e-3bd25cfdc562"), Code: "PICKUP_STORE", Name: "Store pickup", Description: "Pick up at the store counter"},
		{ID: uuid.MustParse("3898bb05-83dd-473f-ad5b-3a80ae68b5e0"), Code: "PICKUP_POST", Name: "Post office pickup", Description: "Pick up at the nearest post office"},
		{ID: uuid.MustParse("7cd59a83-1d98-450b-abef-b55a9838d3e3"), Code: "COURIER_HOME", Name: "Courier delivery", Description: "Courier delivery to the shipping address"},
	},
	CatalogPaymentMethod: {
		{ID: uuid.MustParse("7ed3c963-8440-4b57-9ca5-f80e8b150b74"), Code: "CASH", Name: "Cash", Description: "Cash on delivery"},
		{ID: uuid.MustParse("d9dceffc-29d6-41e8-b861-2f5daf5a498b"), Code: "CARD", Name: "Card", Description: "Bank card on delivery"},
		{ID: uuid.MustParse("2cba9518-21a4-4e4d-9dbb-b395cc10a40c"), Code: "ONLINE", Name: "Online", Description: "Online payment on the website"},
	},
}

// SeedEntries returns a copy of the built-in reference data for kind.
func SeedEntries(kind CatalogKind) []ReferenceEntry {
	src := seedEntries[kind]
	out := make([]ReferenceEntry, len(src))
	for i, e := range src {
		e.IsActive = true
		out[i] = e
	}
	return out
}
