package app

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CreateOrderRequest is the input for creating a new order. Delivery and
// payment methods may be given by id or by code; one of each is required.
type CreateOrderRequest struct {
	CustomerName       string                  `json:"customer_name" validate:"required,max=255"`
	CustomerPhone      string                  `json:"customer_phone" validate:"required,max=50"`
	CustomerEmail      string                  `json:"customer_email,omitempty" validate:"omitempty,email,max=255"`
	CustomerNotes      string                  `json:"customer_notes,omitempty"`
	Currency           string                  `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	DeliveryMethodID   string                  `json:"delivery_method_id,omitempty" validate:"required_without=DeliveryMethodCode"`
	DeliveryMethodCode string                  `json:"delivery_method_code,omitempty"`
	PaymentMethodID    string                  `json:"payment_method_id,omitempty" validate:"required_without=PaymentMethodCode"`
	PaymentMethodCode  string                  `json:"payment_method_code,omitempty"`
	Items              []OrderItemRequest      `json:"order_items" validate:"required,min=1,dive"`
	ShippingAddress    *ShippingAddressRequest `json:"shipping_address,omitempty"`
	PaymentDetails     json.RawMessage         `json:"payment_details_client,omitempty"`
}

// OrderItemRequest is a single line within a CreateOrderRequest.
type OrderItemRequest struct {
	ProductID   string          `json:"product_id" validate:"required,uuid"`
	ProductName string          `json:"product_snapshot_name" validate:"required,max=255"`
	UnitPrice   decimal.Decimal `json:"product_snapshot_price" validate:"gte=0"`
	Quantity    int             `json:"quantity" validate:"gt=0,lte=2147483647"`
}

type ShippingAddressRequest struct {
	RecipientName  string `json:"recipient_name,omitempty" validate:"max=255"`
	RecipientPhone string `json:"recipient_phone,omitempty" validate:"max=50"`
	Country        string `json:"country,omitempty" validate:"max=100"`
	City           string `json:"city" validate:"required,max=100"`
	StreetAddress  string `json:"street_address" validate:"required,max=255"`
	Apartment      string `json:"apartment,omitempty" validate:"max=50"`
	PostalCode     string `json:"postal_code,omitempty" validate:"max=20"`
	Notes          string `json:"address_notes,omitempty"`
}

// TransitionStatusRequest names the target status by id or code.
type TransitionStatusRequest struct {
	StatusID     string `json:"status_id,omitempty" validate:"required_without=StatusCode"`
	StatusCode   string `json:"status_code,omitempty"`
	ActorDetails string `json:"actor_details,omitempty" validate:"max=255"`
	Notes        string `json:"notes,omitempty"`
}

// ListOrdersRequest filters and pages ListOrders. Status accepts an id or a code.
// A zero Limit selects the default page size. Both date bounds are inclusive.
type ListOrdersRequest struct {
	Skip     int        `validate:"gte=0"`
	Limit    int        `validate:"omitempty,min=1,max=1000"`
	Search   string     `validate:"max=255"`
	Status   string
	DateFrom *time.Time
	DateTo   *time.Time
}

// ParseTimeBound parses a date filter given as an RFC 3339 timestamp or a
// plain YYYY-MM-DD date. A plain date used as an upper bound extends to the
// last microsecond of that day. Blank input yields nil.
func ParseTimeBound(raw string, upper bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	d, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, err
	}
	if upper {
		d = d.AddDate(0, 0, 1).Add(-time.Microsecond)
	}
	return &d, nil
}
