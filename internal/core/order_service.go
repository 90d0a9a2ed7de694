package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"order-service/internal/logging"
	"order-service/internal/outbox"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderService owns the order aggregate: creation, status transitions, header
// edits and reads. Every write runs in a single database transaction.
type OrderService interface {
	// Order lifecycle
	CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error)
	TransitionStatus(ctx context.Context, orderID uuid.UUID, in StatusTransitionInput) (*Order, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, patch OrderPatch) (*Order, error)

	// Queries
	GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) (*OrderPage, error)
	GetStatusHistory(ctx context.Context, orderID uuid.UUID) ([]StatusHistoryEntry, error)
}

// OrderServiceConfig tunes an OrderService. Zero values select defaults.
type OrderServiceConfig struct {
	DefaultCurrency     string
	OrderNumberAttempts int
	NewOrderNumber      OrderNumberGenerator
	Now                 func() time.Time
	Logger              *zap.Logger
	Observer            LifecycleObserver
}

const (
	defaultCurrency            = "RUB"
	defaultOrderNumberAttempts = 3
)

type orderService struct {
	pool      *pgxpool.Pool
	catalog   ReferenceCatalog
	currency  string
	attempts  int
	newNumber OrderNumberGenerator
	now       func() time.Time
	log       *zap.Logger
	observer  LifecycleObserver
}

func NewOrderService(pool *pgxpool.Pool, catalog ReferenceCatalog, cfg OrderServiceConfig) OrderService {
	s := &orderService{
		pool:      pool,
		catalog:   catalog,
		currency:  strings.ToUpper(cfg.DefaultCurrency),
		attempts:  cfg.OrderNumberAttempts,
		newNumber: cfg.NewOrderNumber,
		now:       cfg.Now,
		log:       logging.OrNop(cfg.Logger),
		observer:  cfg.Observer,
	}
	if s.currency == "" {
		s.currency = defaultCurrency
	}
	if s.attempts <= 0 {
		s.attempts = defaultOrderNumberAttempts
	}
	if s.newNumber == nil {
		s.newNumber = NewOrderNumber
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	return s
}

// ── Order Lifecycle ──────────────────────────────────────────────────────────

func (s *orderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	initial, err := s.catalog.LookupByCode(CatalogOrderStatus, StatusNew)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogNotSeeded, err)
	}

	items, total := priceItems(in.Items)
	currency := in.Currency
	if currency == "" {
		currency = s.currency
	}

	for attempt := 1; ; attempt++ {
		number := s.newNumber(s.now())
		order, err := s.createOrderTx(ctx, in, initial, number, items, currency, total)
		if err == nil {
			s.observer.OrderCreated()
			s.log.Info("order created",
				zap.String("order_id", order.ID.String()),
				zap.String("order_number", order.OrderNumber),
				zap.String("total_amount", order.TotalAmount.StringFixed(2)),
				zap.Int("items", len(items)),
			)
			return s.GetOrder(ctx, order.ID)
		}
		if !isOrderNumberConflict(err) {
			return nil, err
		}
		s.observer.OrderNumberCollision()
		s.log.Warn("order number collision",
			zap.String("order_number", number),
			zap.Int("attempt", attempt),
		)
		if attempt >= s.attempts {
			return nil, fmt.Errorf("%w: %d attempts, last candidate %s", ErrOrderNumberExhausted, attempt, number)
		}
	}
}

func (s *orderService) createOrderTx(ctx context.Context, in CreateOrderInput, initial *ReferenceEntry,
	number string, items []pricedItem, currency string, total decimal.Decimal) (*Order, error) {

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	delivery, err := s.resolveInput(CatalogDeliveryMethod, in.DeliveryMethod)
	if err != nil {
		return nil, err
	}
	payment, err := s.resolveInput(CatalogPaymentMethod, in.PaymentMethod)
	if err != nil {
		return nil, err
	}

	order := &Order{
		ID:               uuid.New(),
		OrderNumber:      number,
		StatusID:         initial.ID,
		TotalAmount:      total,
		Currency:         currency,
		CustomerName:     in.CustomerName,
		CustomerPhone:    in.CustomerPhone,
		CustomerEmail:    nullIfEmpty(in.CustomerEmail),
		DeliveryMethodID: delivery.ID,
		CustomerNotes:    nullIfEmpty(strings.TrimSpace(in.CustomerNotes)),
	}

	if in.ShippingAddress != nil {
		addrID, err := insertShippingAddress(ctx, tx, in.ShippingAddress.withDefaults(in.CustomerName, in.CustomerPhone))
		if err != nil {
			return nil, err
		}
		order.ShippingAddressID = &addrID
	}

	if err := insertOrderHeader(ctx, tx, order); err != nil {
		return nil, err
	}
	if err := insertOrderItems(ctx, tx, order.ID, items); err != nil {
		return nil, err
	}
	if err := insertPaymentDetail(ctx, tx, &PaymentDetail{
		ID:              uuid.New(),
		OrderID:         order.ID,
		PaymentMethodID: payment.ID,
		StatusCode:      PaymentStatusPending,
		Amount:          total,
		Currency:        currency,
		DetailsSnapshot: in.PaymentDetails,
	}); err != nil {
		return nil, err
	}

	genesis, err := appendStatusHistory(ctx, tx, order.ID, initial.ID, GenesisActor, GenesisNotes)
	if err != nil {
		return nil, err
	}

	if err := outbox.Insert(ctx, tx, EventOrderCreated, order.ID.String(), OrderEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		StatusID:    initial.ID,
		StatusCode:  initial.Code,
		TotalAmount: total,
		Currency:    currency,
		Actor:       GenesisActor,
		Notes:       GenesisNotes,
		OccurredAt:  genesis.ChangedAt,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}
	return order, nil
}

// resolveInput resolves a caller-supplied catalog reference. A miss is the
// caller's fault, so it is reported as ErrInvalidReference.
func (s *orderService) resolveInput(kind CatalogKind, ref string) (*ReferenceEntry, error) {
	e, err := s.catalog.Resolve(kind, ref)
	if err != nil {
		if errors.Is(err, ErrReferenceNotFound) {
			return nil, &ReferenceError{Kind: kind, Ref: ref, Err: ErrInvalidReference}
		}
		return nil, err
	}
	return e, nil
}

func (s *orderService) TransitionStatus(ctx context.Context, orderID uuid.UUID, in StatusTransitionInput) (*Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	target, err := s.catalog.Resolve(CatalogOrderStatus, in.Status)
	if err != nil {
		return nil, err
	}

	actor := strings.TrimSpace(in.Actor)
	notes := strings.TrimSpace(in.Notes)

	if err := updateOrderStatus(ctx, tx, orderID, target.ID); err != nil {
		return nil, err
	}
	entry, err := appendStatusHistory(ctx, tx, orderID, target.ID, actor, notes)
	if err != nil {
		return nil, err
	}

	var previous string
	if prev, err := s.catalog.LookupByID(CatalogOrderStatus, current.StatusID); err == nil {
		previous = prev.Code
	}
	if err := outbox.Insert(ctx, tx, EventOrderStatusChanged, orderID.String(), OrderEvent{
		OrderID:        orderID,
		OrderNumber:    current.OrderNumber,
		StatusID:       target.ID,
		StatusCode:     target.Code,
		PreviousStatus: previous,
		TotalAmount:    current.TotalAmount,
		Currency:       current.Currency,
		Actor:          actor,
		Notes:          notes,
		OccurredAt:     entry.ChangedAt,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit status change: %w", err)
	}

	s.observer.StatusChanged(target.Code)
	s.log.Info("order status changed",
		zap.String("order_id", orderID.String()),
		zap.String("from", previous),
		zap.String("to", target.Code),
		zap.String("actor", actor),
	)
	return s.GetOrder(ctx, orderID)
}

func (s *orderService) UpdateOrder(ctx context.Context, orderID uuid.UUID, patch OrderPatch) (*Order, error) {
	if err := patch.validate(); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := lockOrder(ctx, tx, orderID); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return s.GetOrder(ctx, orderID)
	}

	var sets []string
	var args []any
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.CustomerName.Set {
		set("customer_name", strings.TrimSpace(patch.CustomerName.Value))
	}
	if patch.CustomerPhone.Set {
		set("customer_phone", strings.TrimSpace(patch.CustomerPhone.Value))
	}
	if patch.CustomerEmail.Set {
		set("customer_email", nullIfEmpty(strings.TrimSpace(patch.CustomerEmail.Value)))
	}
	if patch.CustomerNotes.Set {
		set("customer_notes", nullIfEmpty(strings.TrimSpace(patch.CustomerNotes.Value)))
	}
	if patch.DeliveryMethod.Set {
		ref := strings.TrimSpace(patch.DeliveryMethod.Value)
		delivery, err := s.resolveInput(CatalogDeliveryMethod, ref)
		if err != nil {
			return nil, err
		}
		set("delivery_method_id", delivery.ID)
	}
	args = append(args, orderID)
	_, err = tx.Exec(ctx, fmt.Sprintf(
		"UPDATE orders SET %s, updated_at = NOW() WHERE id = $%d",
		strings.Join(sets, ", "), len(args),
	), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update order %s: %w", orderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order update: %w", err)
	}
	s.log.Info("order updated", zap.String("order_id", orderID.String()), zap.Int("fields", len(sets)))
	return s.GetOrder(ctx, orderID)
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *orderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	o, err := loadOrder(ctx, s.pool, orderID)
	if err != nil {
		return nil, err
	}
	s.attachReferences(o)
	return o, nil
}

func (s *orderService) GetOrderByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	id, err := findOrderIDByNumber(ctx, s.pool, strings.TrimSpace(orderNumber))
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, id)
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderFilter) (*OrderPage, error) {
	f := filter.normalized()
	summaries, err := listOrderSummaries(ctx, s.pool, f)
	if err != nil {
		return nil, err
	}
	total, err := countOrders(ctx, s.pool, f)
	if err != nil {
		return nil, err
	}
	for i := range summaries {
		summaries[i].Status = s.reference(CatalogOrderStatus, summaries[i].StatusID)
	}
	return &OrderPage{Orders: summaries, Total: total, Skip: f.Skip, Limit: f.Limit}, nil
}

func (s *orderService) GetStatusHistory(ctx context.Context, orderID uuid.UUID) ([]StatusHistoryEntry, error) {
	if err := orderExists(ctx, s.pool, orderID); err != nil {
		return nil, err
	}
	entries, err := listStatusHistory(ctx, s.pool, orderID)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Status = s.reference(CatalogOrderStatus, entries[i].StatusID)
	}
	return entries, nil
}

func (s *orderService) attachReferences(o *Order) {
	o.Status = s.reference(CatalogOrderStatus, o.StatusID)
	o.DeliveryMethod = s.reference(CatalogDeliveryMethod, o.DeliveryMethodID)
	if o.Payment != nil {
		o.Payment.PaymentMethod = s.reference(CatalogPaymentMethod, o.Payment.PaymentMethodID)
	}
}

// reference returns nil when id is not in the current snapshot.
func (s *orderService) reference(kind CatalogKind, id uuid.UUID) *ReferenceEntry {
	e, err := s.catalog.LookupByID(kind, id)
	if err != nil {
		return nil
	}
	return e
}
