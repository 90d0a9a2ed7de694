package core

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is the aggregate root. Items, ShippingAddress and Payment are written
// in the same transaction as the header and never exist without it.
type Order struct {
	ID                uuid.UUID        `json:"id"`
	OrderNumber       string           `json:"order_number"`
	StatusID          uuid.UUID        `json:"status_id"`
	Status            *ReferenceEntry  `json:"status,omitempty"` // resolved from the catalog
	TotalAmount       decimal.Decimal  `json:"total_amount"`
	Currency          string           `json:"currency"`
	CustomerName      string           `json:"customer_name"`
	CustomerPhone     string           `json:"customer_phone"`
	CustomerEmail     *string          `json:"customer_email"`
	DeliveryMethodID  uuid.UUID        `json:"delivery_method_id"`
	DeliveryMethod    *ReferenceEntry  `json:"delivery_method,omitempty"`
	ShippingAddressID *uuid.UUID       `json:"shipping_address_id"`
	ShippingAddress   *ShippingAddress `json:"shipping_address"`
	CustomerNotes     *string          `json:"customer_notes"`
	Items             []OrderItem      `json:"order_items"`
	Payment           *PaymentDetail   `json:"payment_details"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// OrderItem is one line of an order. Name and price are copied from the
// product at order time and are not affected by later catalog changes.
type OrderItem struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"order_id"`
	LineNumber  int             `json:"line_number"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_snapshot_name"`
	UnitPrice   decimal.Decimal `json:"product_snapshot_price"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

type ShippingAddress struct {
	ID             uuid.UUID `json:"id"`
	RecipientName  string    `json:"recipient_name"`
	RecipientPhone string    `json:"recipient_phone"`
	Country        string    `json:"country"`
	City           string    `json:"city"`
	StreetAddress  string    `json:"street_address"`
	Apartment      string    `json:"apartment"`
	PostalCode     string    `json:"postal_code"`
	Notes          string    `json:"address_notes"`
	CreatedAt      time.Time `json:"created_at"`
}

// PaymentDetail records how an order is paid. DetailsSnapshot is an opaque
// client-supplied JSON document stored as-is.
type PaymentDetail struct {
	ID              uuid.UUID       `json:"id"`
	OrderID         uuid.UUID       `json:"order_id"`
	PaymentMethodID uuid.UUID       `json:"payment_method_id"`
	PaymentMethod   *ReferenceEntry `json:"payment_method,omitempty"`
	StatusCode      string          `json:"payment_status_code"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	DetailsSnapshot json.RawMessage `json:"details_snapshot,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// StatusHistoryEntry is one immutable row of an order's status ledger.
type StatusHistoryEntry struct {
	ID           uuid.UUID       `json:"id"`
	OrderID      uuid.UUID       `json:"order_id"`
	StatusID     uuid.UUID       `json:"status_id"`
	Status       *ReferenceEntry `json:"status,omitempty"`
	ChangedAt    time.Time       `json:"changed_at"`
	ActorDetails string          `json:"actor_details"`
	Notes        string          `json:"notes"`
}

// OrderSummary is the list projection of an order.
type OrderSummary struct {
	ID            uuid.UUID       `json:"id"`
	OrderNumber   string          `json:"order_number"`
	StatusID      uuid.UUID       `json:"status_id"`
	Status        *ReferenceEntry `json:"status,omitempty"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	CustomerEmail *string         `json:"customer_email"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// OrderPage is one page of OrderSummary rows plus the unpaged match count.
type OrderPage struct {
	Orders []OrderSummary `json:"orders"`
	Total  int            `json:"total"`
	Skip   int            `json:"skip"`
	Limit  int            `json:"limit"`
}

// ── Inputs ───────────────────────────────────────────────────────────────────

// CreateOrderInput carries a new order. DeliveryMethod and PaymentMethod
// accept either a catalog id or a code.
type CreateOrderInput struct {
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	CustomerNotes   string
	Currency        string // empty means the service default
	DeliveryMethod  string
	PaymentMethod   string
	Items           []OrderItemInput
	ShippingAddress *ShippingAddressInput
	PaymentDetails  json.RawMessage
}

type OrderItemInput struct {
	ProductID   uuid.UUID
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// ShippingAddressInput is optional on create. Blank recipient fields default
// to the customer's name and phone; a blank country defaults to DefaultCountry.
type ShippingAddressInput struct {
	RecipientName  string
	RecipientPhone string
	Country        string
	City           string
	StreetAddress  string
	Apartment      string
	PostalCode     string
	Notes          string
}

// DefaultCountry fills ShippingAddressInput.Country when the caller leaves it blank.
const DefaultCountry = "Russia"

// StatusTransitionInput moves an order to Status, given as a catalog id or code.
type StatusTransitionInput struct {
	Status string
	Actor  string
	Notes  string
}

// OrderPatch is a partial update of mutable header fields. Absent fields are
// left untouched; explicit nulls clear optional fields.
type OrderPatch struct {
	CustomerName   Field[string] `json:"customer_name"`
	CustomerPhone  Field[string] `json:"customer_phone"`
	CustomerEmail  Field[string] `json:"customer_email"`
	CustomerNotes  Field[string] `json:"customer_notes"`
	DeliveryMethod Field[string] `json:"delivery_method"`
}

// Empty reports whether the patch changes nothing.
func (p OrderPatch) Empty() bool {
	return !p.CustomerName.Set && !p.CustomerPhone.Set && !p.CustomerEmail.Set &&
		!p.CustomerNotes.Set && !p.DeliveryMethod.Set
}

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// OrderFilter narrows ListOrders. Search matches order number, customer name
// or email case-insensitively. DateFrom and DateTo are both inclusive.
type OrderFilter struct {
	Skip     int
	Limit    int
	Search   string
	StatusID *uuid.UUID
	DateFrom *time.Time
	DateTo   *time.Time
}

func (f OrderFilter) normalized() OrderFilter {
	if f.Skip < 0 {
		f.Skip = 0
	}
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}
