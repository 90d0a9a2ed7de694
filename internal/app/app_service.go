package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"order-service/internal/core"
	"order-service/internal/logging"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type appService struct {
	pool         *pgxpool.Pool
	catalog      core.ReferenceCatalog
	orderService core.OrderService
	statsService core.StatsService
	validate     *validatorv10.Validate
	log          *zap.Logger
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	pool *pgxpool.Pool,
	catalog core.ReferenceCatalog,
	orderService core.OrderService,
	statsService core.StatsService,
	logger *zap.Logger,
) ApplicationService {
	return &appService{
		pool:         pool,
		catalog:      catalog,
		orderService: orderService,
		statsService: statsService,
		validate:     newValidator(),
		log:          logging.OrNop(logger),
	}
}

// ── Reference data ───────────────────────────────────────────────────────────

func (s *appService) ListReferenceData(ctx context.Context, kind core.CatalogKind, activeOnly bool) (*ReferenceListResult, error) {
	switch kind {
	case core.CatalogOrderStatus, core.CatalogDeliveryMethod, core.CatalogPaymentMethod:
	default:
		return nil, fmt.Errorf("%w: unknown catalog %q", core.ErrInvalidOrder, kind)
	}
	return &ReferenceListResult{Kind: kind, Entries: s.catalog.ListAll(kind, activeOnly)}, nil
}

func (s *appService) SeedReferenceData(ctx context.Context) error {
	if err := s.catalog.Seed(ctx); err != nil {
		return err
	}
	s.log.Info("reference data seeded")
	return nil
}

// ── Order lifecycle ──────────────────────────────────────────────────────────

func (s *appService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	items := make([]core.OrderItemInput, len(req.Items))
	for i, it := range req.Items {
		productID, err := uuid.Parse(it.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: product_id must be a UUID", core.ErrInvalidOrder, i+1)
		}
		items[i] = core.OrderItemInput{
			ProductID:   productID,
			ProductName: it.ProductName,
			UnitPrice:   it.UnitPrice,
			Quantity:    it.Quantity,
		}
	}

	in := core.CreateOrderInput{
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		CustomerEmail:  req.CustomerEmail,
		CustomerNotes:  req.CustomerNotes,
		Currency:       req.Currency,
		DeliveryMethod: firstNonEmpty(req.DeliveryMethodID, req.DeliveryMethodCode),
		PaymentMethod:  firstNonEmpty(req.PaymentMethodID, req.PaymentMethodCode),
		Items:          items,
		PaymentDetails: req.PaymentDetails,
	}
	if a := req.ShippingAddress; a != nil {
		in.ShippingAddress = &core.ShippingAddressInput{
			RecipientName:  a.RecipientName,
			RecipientPhone: a.RecipientPhone,
			Country:        a.Country,
			City:           a.City,
			StreetAddress:  a.StreetAddress,
			Apartment:      a.Apartment,
			PostalCode:     a.PostalCode,
			Notes:          a.Notes,
		}
	}

	order, err := s.orderService.CreateOrder(ctx, in)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) TransitionOrderStatus(ctx context.Context, ref string, req TransitionStatusRequest) (*OrderResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	id, err := s.resolveOrderID(ctx, ref)
	if err != nil {
		return nil, err
	}
	order, err := s.orderService.TransitionStatus(ctx, id, core.StatusTransitionInput{
		Status: firstNonEmpty(req.StatusID, req.StatusCode),
		Actor:  req.ActorDetails,
		Notes:  req.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) UpdateOrder(ctx context.Context, ref string, patch core.OrderPatch) (*OrderResult, error) {
	if err := s.validatePatch(patch); err != nil {
		return nil, err
	}
	id, err := s.resolveOrderID(ctx, ref)
	if err != nil {
		return nil, err
	}
	order, err := s.orderService.UpdateOrder(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

// validatePatch applies the create-time field rules to the fields a patch sets.
func (s *appService) validatePatch(patch core.OrderPatch) error {
	fields := map[string]string{}
	check := func(name string, f core.Field[string], tag, msg string) {
		if !f.Set || f.Null || strings.TrimSpace(f.Value) == "" {
			return
		}
		if err := s.validate.Var(strings.TrimSpace(f.Value), tag); err != nil {
			fields[name] = msg
		}
	}
	check("customer_name", patch.CustomerName, "max=255", "must be at most 255 characters")
	check("customer_phone", patch.CustomerPhone, "max=50", "must be at most 50 characters")
	check("customer_email", patch.CustomerEmail, "email,max=255", "must be a valid email address")
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *appService) GetOrder(ctx context.Context, ref string) (*OrderResult, error) {
	ref = strings.TrimSpace(ref)
	var (
		order *core.Order
		err   error
	)
	if id, perr := uuid.Parse(ref); perr == nil {
		order, err = s.orderService.GetOrder(ctx, id)
	} else {
		order, err = s.orderService.GetOrderByNumber(ctx, ref)
	}
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) ListOrders(ctx context.Context, req ListOrdersRequest) (*OrderListResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if req.DateFrom != nil && req.DateTo != nil && req.DateTo.Before(*req.DateFrom) {
		return nil, &ValidationError{Fields: map[string]string{"date_to": "must not be before date_from"}}
	}

	filter := core.OrderFilter{
		Skip:     req.Skip,
		Limit:    req.Limit,
		Search:   req.Search,
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
	}
	if status := strings.TrimSpace(req.Status); status != "" {
		entry, err := s.catalog.Resolve(core.CatalogOrderStatus, status)
		if err != nil {
			if errors.Is(err, core.ErrReferenceNotFound) {
				return nil, &core.ReferenceError{Kind: core.CatalogOrderStatus, Ref: status, Err: core.ErrInvalidReference}
			}
			return nil, err
		}
		filter.StatusID = &entry.ID
	}

	page, err := s.orderService.ListOrders(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &OrderListResult{Orders: page.Orders, Total: page.Total, Skip: page.Skip, Limit: page.Limit}, nil
}

func (s *appService) GetStatusHistory(ctx context.Context, ref string) (*StatusHistoryResult, error) {
	id, err := s.resolveOrderID(ctx, ref)
	if err != nil {
		return nil, err
	}
	entries, err := s.orderService.GetStatusHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	return &StatusHistoryResult{OrderID: id, Entries: entries}, nil
}

func (s *appService) GetOrderStats(ctx context.Context) (*core.OrderStats, error) {
	return s.statsService.GetOrderStats(ctx)
}

func (s *appService) CheckHealth(ctx context.Context) error {
	if s.pool == nil {
		return errors.New("database pool not configured")
	}
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// resolveOrderID accepts an order UUID or an order number.
func (s *appService) resolveOrderID(ctx context.Context, ref string) (uuid.UUID, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return uuid.Nil, fmt.Errorf("%w: empty reference", core.ErrOrderNotFound)
	}
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	order, err := s.orderService.GetOrderByNumber(ctx, ref)
	if err != nil {
		return uuid.Nil, err
	}
	return order.ID, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
