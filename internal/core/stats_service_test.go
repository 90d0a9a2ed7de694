package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildOrderStats(t *testing.T) {
	st := buildOrderStats(map[string]int{
		StatusNew:            3,
		StatusPendingPayment: 1,
		StatusProcessing:     0,
		StatusShipped:        2,
		StatusDelivered:      4,
		StatusCancelled:      1,
		"ON_HOLD":            5,
	})

	assert.Equal(t, 16, st.TotalOrders)
	assert.Equal(t, 3, st.NewOrders)
	assert.Equal(t, 1, st.PendingOrders)
	assert.Equal(t, 0, st.ProcessingOrders)
	assert.Equal(t, 2, st.ShippedOrders)
	assert.Equal(t, 4, st.DeliveredOrders)
	assert.Equal(t, 1, st.CancelledOrders)
	assert.Equal(t, 5, st.StatusBreakdown["ON_HOLD"])
}

func TestBuildOrderStats_Empty(t *testing.T) {
	st := buildOrderStats(map[string]int{StatusNew: 0, StatusCancelled: 0})
	assert.Zero(t, st.TotalOrders)
	assert.Len(t, st.StatusBreakdown, 2)
}
