package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared query helpers.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const orderColumns = `o.id, o.order_number, o.status_id, o.total_amount, o.currency,
	o.customer_name, o.customer_phone, o.customer_email, o.delivery_method_id,
	o.shipping_address_id, o.customer_notes, o.created_at, o.updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.StatusID, &o.TotalAmount, &o.Currency,
		&o.CustomerName, &o.CustomerPhone, &o.CustomerEmail, &o.DeliveryMethodID,
		&o.ShippingAddressID, &o.CustomerNotes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Currency = strings.TrimSpace(o.Currency)
	return &o, nil
}

// ── Writes ───────────────────────────────────────────────────────────────────

func insertShippingAddress(ctx context.Context, q pgxQuerier, a ShippingAddressInput) (uuid.UUID, error) {
	id := uuid.New()
	_, err := q.Exec(ctx, `
		INSERT INTO shipping_addresses (id, recipient_name, recipient_phone, country, city,
			street_address, apartment, postal_code, address_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, id, a.RecipientName, a.RecipientPhone, a.Country, a.City,
		a.StreetAddress, a.Apartment, a.PostalCode, a.Notes)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert shipping address: %w", err)
	}
	return id, nil
}

// insertOrderHeader writes the orders row. The driver error stays in the chain
// so isOrderNumberConflict can classify it.
func insertOrderHeader(ctx context.Context, q pgxQuerier, o *Order) error {
	err := q.QueryRow(ctx, `
		INSERT INTO orders (id, order_number, status_id, total_amount, currency,
			customer_name, customer_phone, customer_email, delivery_method_id,
			shipping_address_id, customer_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`, o.ID, o.OrderNumber, o.StatusID, o.TotalAmount, o.Currency,
		o.CustomerName, o.CustomerPhone, o.CustomerEmail, o.DeliveryMethodID,
		o.ShippingAddressID, o.CustomerNotes).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order %s: %w", o.OrderNumber, err)
	}
	return nil
}

func insertOrderItems(ctx context.Context, q pgxQuerier, orderID uuid.UUID, items []pricedItem) error {
	for _, it := range items {
		_, err := q.Exec(ctx, `
			INSERT INTO order_items (id, order_id, line_number, product_id,
				product_snapshot_name, product_snapshot_price, quantity, subtotal_amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, uuid.New(), orderID, it.LineNumber, it.ProductID,
			it.ProductName, it.UnitPrice, it.Quantity, it.Subtotal)
		if err != nil {
			return fmt.Errorf("failed to insert order item %d: %w", it.LineNumber, err)
		}
	}
	return nil
}

func insertPaymentDetail(ctx context.Context, q pgxQuerier, p *PaymentDetail) error {
	var snapshot []byte
	if len(p.DetailsSnapshot) > 0 {
		snapshot = []byte(p.DetailsSnapshot)
	}
	_, err := q.Exec(ctx, `
		INSERT INTO payment_details (id, order_id, payment_method_id, payment_status_code,
			amount, currency, details_snapshot)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.OrderID, p.PaymentMethodID, p.StatusCode, p.Amount, p.Currency, snapshot)
	if err != nil {
		return fmt.Errorf("failed to insert payment details: %w", err)
	}
	return nil
}

// lockOrder takes a row lock on the order for the rest of the transaction.
func lockOrder(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) (*Order, error) {
	o, err := scanOrder(tx.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		WHERE o.id = $1
		FOR UPDATE
	`, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to lock order %s: %w", orderID, err)
	}
	return o, nil
}

func updateOrderStatus(ctx context.Context, q pgxQuerier, orderID, statusID uuid.UUID) error {
	_, err := q.Exec(ctx, `
		UPDATE orders SET status_id = $1, updated_at = NOW() WHERE id = $2
	`, statusID, orderID)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return nil
}

// ── Reads ────────────────────────────────────────────────────────────────────

func loadOrder(ctx context.Context, q pgxQuerier, orderID uuid.UUID) (*Order, error) {
	o, err := scanOrder(q.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders o
		WHERE o.id = $1
	`, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to get order %s: %w", orderID, err)
	}
	if err := loadOrderDependents(ctx, q, o); err != nil {
		return nil, err
	}
	return o, nil
}

func findOrderIDByNumber(ctx context.Context, q pgxQuerier, orderNumber string) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.QueryRow(ctx, "SELECT id FROM orders WHERE order_number = $1", orderNumber).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderNumber)
		}
		return uuid.Nil, fmt.Errorf("failed to find order %s: %w", orderNumber, err)
	}
	return id, nil
}

func orderExists(ctx context.Context, q pgxQuerier, orderID uuid.UUID) error {
	var exists bool
	err := q.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)", orderID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check order %s: %w", orderID, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return nil
}

func loadOrderDependents(ctx context.Context, q pgxQuerier, o *Order) error {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, line_number, product_id, product_snapshot_name,
			product_snapshot_price, quantity, subtotal_amount, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY line_number
	`, o.ID)
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	o.Items = []OrderItem{}
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.LineNumber, &it.ProductID, &it.ProductName,
			&it.UnitPrice, &it.Quantity, &it.Subtotal, &it.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read order items: %w", err)
	}

	if o.ShippingAddressID != nil {
		var a ShippingAddress
		err := q.QueryRow(ctx, `
			SELECT id, recipient_name, recipient_phone, country, city, street_address,
				apartment, postal_code, address_notes, created_at
			FROM shipping_addresses
			WHERE id = $1
		`, *o.ShippingAddressID).Scan(&a.ID, &a.RecipientName, &a.RecipientPhone, &a.Country, &a.City,
			&a.StreetAddress, &a.Apartment, &a.PostalCode, &a.Notes, &a.CreatedAt)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to get shipping address: %w", err)
		}
		if err == nil {
			o.ShippingAddress = &a
		}
	}

	var p PaymentDetail
	var snapshot []byte
	err = q.QueryRow(ctx, `
		SELECT id, order_id, payment_method_id, payment_status_code, amount, currency,
			details_snapshot, created_at
		FROM payment_details
		WHERE order_id = $1
	`, o.ID).Scan(&p.ID, &p.OrderID, &p.PaymentMethodID, &p.StatusCode, &p.Amount, &p.Currency,
		&snapshot, &p.CreatedAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to get payment details: %w", err)
	}
	if err == nil {
		p.Currency = strings.TrimSpace(p.Currency)
		p.DetailsSnapshot = snapshot
		o.Payment = &p
	}
	return nil
}

// orderFilterClause renders f as a WHERE clause with positional args.
func orderFilterClause(f OrderFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(args))))
	}
	if f.Search != "" {
		add(`(o.order_number ILIKE ? OR o.customer_name ILIKE ? OR COALESCE(o.customer_email, '') ILIKE ?)`,
			"%"+escapeLike(f.Search)+"%")
	}
	if f.StatusID != nil {
		add("o.status_id = ?", *f.StatusID)
	}
	if f.DateFrom != nil {
		add("o.created_at >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		add("o.created_at <= ?", *f.DateTo)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func listOrderSummaries(ctx context.Context, q pgxQuerier, f OrderFilter) ([]OrderSummary, error) {
	where, args := orderFilterClause(f)
	args = append(args, f.Limit, f.Skip)
	rows, err := q.Query(ctx, fmt.Sprintf(`
		SELECT o.id, o.order_number, o.status_id, o.customer_name, o.customer_phone,
			o.customer_email, o.total_amount, o.currency, o.created_at, o.updated_at
		FROM orders o
		%s
		ORDER BY o.created_at DESC, o.id
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	summaries := []OrderSummary{}
	for rows.Next() {
		var s OrderSummary
		if err := rows.Scan(&s.ID, &s.OrderNumber, &s.StatusID, &s.CustomerName, &s.CustomerPhone,
			&s.CustomerEmail, &s.TotalAmount, &s.Currency, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		s.Currency = strings.TrimSpace(s.Currency)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}
	return summaries, nil
}

func countOrders(ctx context.Context, q pgxQuerier, f OrderFilter) (int, error) {
	where, args := orderFilterClause(f)
	var n int
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM orders o "+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return n, nil
}
