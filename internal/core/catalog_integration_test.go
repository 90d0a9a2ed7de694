package core_test

import (
	"context"
	"errors"
	"testing"

	"order-service/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestCatalog_SeedIsIdempotent(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	catalog := seedCatalog(t, pool)

	// A renamed entry must survive a re-seed.
	if _, err := pool.Exec(ctx, "UPDATE delivery_methods SET name = 'Courier (renamed)' WHERE code = 'COURIER_HOME'"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if err := catalog.Seed(ctx); err != nil {
		t.Fatalf("second Seed failed: %v", err)
	}

	for table, want := range map[string]int{"order_statuses": 6, "delivery_methods": 3, "payment_methods": 3} {
		if n := countRows(t, pool, table); n != want {
			t.Errorf("Expected %d rows in %s, got %d", want, table, n)
		}
	}

	courier, err := catalog.LookupByCode(core.CatalogDeliveryMethod, "COURIER_HOME")
	if err != nil {
		t.Fatalf("LookupByCode failed: %v", err)
	}
	if courier.Name != "Courier (renamed)" {
		t.Errorf("Seed overwrote existing row, name is %q", courier.Name)
	}
}

func TestCatalog_ReloadPicksUpNewEntries(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()
	catalog := seedCatalog(t, pool)

	id := uuid.New()
	_, err := pool.Exec(ctx, `
		INSERT INTO delivery_methods (id, code, name, is_active) VALUES ($1, 'DRONE', 'Drone delivery', false)
	`, id)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if _, err := catalog.LookupByCode(core.CatalogDeliveryMethod, "DRONE"); !errors.Is(err, core.ErrReferenceNotFound) {
		t.Errorf("Snapshot should not see rows before Reload, got %v", err)
	}
	if err := catalog.Reload(ctx); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	e, err := catalog.Resolve(core.CatalogDeliveryMethod, id.String())
	if err != nil {
		t.Fatalf("Resolve by id failed: %v", err)
	}
	if e.Code != "DRONE" || e.IsActive {
		t.Errorf("Unexpected entry: %+v", e)
	}
	if got := len(catalog.ListAll(core.CatalogDeliveryMethod, true)); got != 3 {
		t.Errorf("Expected 3 active delivery methods, got %d", got)
	}
}

func TestStatsService_GetOrderStats(t *testing.T) {
	pool, svc, ctx := setupOrderTestDB(t, core.OrderServiceConfig{})
	stats := core.NewStatsService(pool)

	empty, err := stats.GetOrderStats(ctx)
	if err != nil {
		t.Fatalf("GetOrderStats failed: %v", err)
	}
	if empty.TotalOrders != 0 {
		t.Errorf("Expected 0 orders, got %d", empty.TotalOrders)
	}
	if len(empty.StatusBreakdown) != 6 {
		t.Errorf("Expected every status in breakdown, got %v", empty.StatusBreakdown)
	}
	for code, n := range empty.StatusBreakdown {
		if n != 0 {
			t.Errorf("Expected 0 for %s, got %d", code, n)
		}
	}

	in := sampleOrder()
	in.Items = []core.OrderItemInput{{ProductID: uuid.New(), ProductName: "Kettle", UnitPrice: decimal.NewFromInt(10), Quantity: 1}}
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		o, err := svc.CreateOrder(ctx, in)
		if err != nil {
			t.Fatalf("CreateOrder failed: %v", err)
		}
		ids = append(ids, o.ID)
	}
	if _, err := svc.TransitionStatus(ctx, ids[0], core.StatusTransitionInput{Status: core.StatusCancelled}); err != nil {
		t.Fatalf("TransitionStatus failed: %v", err)
	}

	st, err := stats.GetOrderStats(ctx)
	if err != nil {
		t.Fatalf("GetOrderStats failed: %v", err)
	}
	if st.TotalOrders != 3 || st.NewOrders != 2 || st.CancelledOrders != 1 {
		t.Errorf("Unexpected stats: %+v", st)
	}
	sum := 0
	for _, n := range st.StatusBreakdown {
		sum += n
	}
	if sum != st.TotalOrders {
		t.Errorf("Breakdown sums to %d, total is %d", sum, st.TotalOrders)
	}
}
