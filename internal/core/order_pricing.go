package core

import (
	"encoding/json"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxItemQuantity is the largest quantity order_items.quantity (INT) can hold.
const MaxItemQuantity = math.MaxInt32

// Column widths of the customer fields on orders.
const (
	maxCustomerName  = 255
	maxCustomerPhone = 50
	maxCustomerEmail = 255
)

var (
	// NUMERIC(10,2) for unit prices and NUMERIC(12,2) for amounts.
	maxUnitPrice = decimal.New(1, 8)
	maxAmount    = decimal.New(1, 10)
)

// pricedItem is an OrderItemInput with its server-computed subtotal.
type pricedItem struct {
	OrderItemInput
	LineNumber int
	Subtotal   decimal.Decimal
}

// priceItems computes subtotal = unit price x quantity per line and the order
// total as the exact sum of subtotals. Inputs must already be validated.
func priceItems(items []OrderItemInput) ([]pricedItem, decimal.Decimal) {
	priced := make([]pricedItem, len(items))
	total := decimal.Zero
	for i, it := range items {
		sub := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		priced[i] = pricedItem{OrderItemInput: it, LineNumber: i + 1, Subtotal: sub}
		total = total.Add(sub)
	}
	return priced, total
}

func (in *CreateOrderInput) normalize() {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	in.DeliveryMethod = strings.TrimSpace(in.DeliveryMethod)
	in.PaymentMethod = strings.TrimSpace(in.PaymentMethod)
	for i := range in.Items {
		in.Items[i].ProductName = strings.TrimSpace(in.Items[i].ProductName)
	}
}

// validate rejects inputs the store would refuse or silently round.
func (in CreateOrderInput) validate() error {
	if in.CustomerName == "" {
		return invalidOrder("customer name is required")
	}
	if in.CustomerPhone == "" {
		return invalidOrder("customer phone is required")
	}
	if in.DeliveryMethod == "" {
		return invalidOrder("delivery method is required")
	}
	if in.PaymentMethod == "" {
		return invalidOrder("payment method is required")
	}
	if err := checkCustomerLengths(in.CustomerName, in.CustomerPhone, in.CustomerEmail); err != nil {
		return err
	}
	if in.Currency != "" && len(in.Currency) != 3 {
		return invalidOrder("currency must be a 3-letter code, got %q", in.Currency)
	}
	if len(in.Items) == 0 {
		return invalidOrder("order must have at least one item")
	}
	total := decimal.Zero
	for i, it := range in.Items {
		line := i + 1
		if it.ProductName == "" {
			return invalidOrder("item %d: product name is required", line)
		}
		if it.Quantity <= 0 {
			return invalidOrder("item %d: quantity must be positive, got %d", line, it.Quantity)
		}
		if it.Quantity > MaxItemQuantity {
			return invalidOrder("item %d: quantity must be at most %d, got %d", line, MaxItemQuantity, it.Quantity)
		}
		if it.UnitPrice.IsNegative() {
			return invalidOrder("item %d: price must not be negative", line)
		}
		if !it.UnitPrice.Equal(it.UnitPrice.Round(2)) {
			return invalidOrder("item %d: price %s has more than 2 decimal places", line, it.UnitPrice)
		}
		if it.UnitPrice.GreaterThanOrEqual(maxUnitPrice) {
			return invalidOrder("item %d: price %s is out of range", line, it.UnitPrice)
		}
		sub := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(sub)
		if total.GreaterThanOrEqual(maxAmount) {
			return invalidOrder("order total is out of range")
		}
	}
	if a := in.ShippingAddress; a != nil {
		if strings.TrimSpace(a.City) == "" || strings.TrimSpace(a.StreetAddress) == "" {
			return invalidOrder("shipping address requires city and street address")
		}
	}
	if len(in.PaymentDetails) > 0 && !json.Valid(in.PaymentDetails) {
		return invalidOrder("payment details must be valid JSON")
	}
	return nil
}

// withDefaults fills blank recipient fields from the customer and a blank country with DefaultCountry.
func (a ShippingAddressInput) withDefaults(customerName, customerPhone string) ShippingAddressInput {
	for _, f := range []*string{&a.RecipientName, &a.RecipientPhone, &a.Country, &a.City,
		&a.StreetAddress, &a.Apartment, &a.PostalCode, &a.Notes} {
		*f = strings.TrimSpace(*f)
	}
	if a.RecipientName == "" {
		a.RecipientName = customerName
	}
	if a.RecipientPhone == "" {
		a.RecipientPhone = customerPhone
	}
	if a.Country == "" {
		a.Country = DefaultCountry
	}
	return a
}

// validate checks a patch against the same rules as create.
func (p OrderPatch) validate() error {
	if p.CustomerName.Set && (p.CustomerName.Null || strings.TrimSpace(p.CustomerName.Value) == "") {
		return invalidOrder("customer name cannot be cleared")
	}
	if p.CustomerPhone.Set && (p.CustomerPhone.Null || strings.TrimSpace(p.CustomerPhone.Value) == "") {
		return invalidOrder("customer phone cannot be cleared")
	}
	if p.DeliveryMethod.Set && (p.DeliveryMethod.Null || strings.TrimSpace(p.DeliveryMethod.Value) == "") {
		return invalidOrder("delivery method cannot be cleared")
	}
	return checkCustomerLengths(
		strings.TrimSpace(p.CustomerName.Value),
		strings.TrimSpace(p.CustomerPhone.Value),
		strings.TrimSpace(p.CustomerEmail.Value),
	)
}

// checkCustomerLengths bounds the customer fields to their column widths in characters.
func checkCustomerLengths(name, phone, email string) error {
	if utf8.RuneCountInString(name) > maxCustomerName {
		return invalidOrder("customer name must be at most %d characters", maxCustomerName)
	}
	if utf8.RuneCountInString(phone) > maxCustomerPhone {
		return invalidOrder("customer phone must be at most %d characters", maxCustomerPhone)
	}
	if utf8.RuneCountInString(email) > maxCustomerEmail {
		return invalidOrder("customer email must be at most %d characters", maxCustomerEmail)
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
