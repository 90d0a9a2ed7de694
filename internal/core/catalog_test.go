package core

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededCatalog() ReferenceCatalog {
	entries := make(map[CatalogKind][]ReferenceEntry)
	for _, kind := range AllCatalogs {
		entries[kind] = SeedEntries(kind)
	}
	return NewStaticCatalog(entries)
}

func TestCatalog_LookupByCode(t *testing.T) {
	c := seededCatalog()

	e, err := c.LookupByCode(CatalogOrderStatus, StatusNew)
	require.NoError(t, err)
	assert.Equal(t, uuid.MustParse("f7661699-0081-4b93-b227-f51c2a188936"), e.ID)

	_, err = c.LookupByCode(CatalogDeliveryMethod, "EXPRESS")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReferenceNotFound))

	var refErr *ReferenceError
	require.True(t, errors.As(err, &refErr))
	assert.Equal(t, CatalogDeliveryMethod, refErr.Kind)
	assert.Equal(t, "EXPRESS", refErr.Ref)
	assert.Equal(t, `unknown delivery method "EXPRESS"`, err.Error())
}

func TestCatalog_CodesAreScopedPerKind(t *testing.T) {
	c := seededCatalog()
	_, err := c.LookupByCode(CatalogPaymentMethod, StatusNew)
	assert.ErrorIs(t, err, ErrReferenceNotFound)
}

func TestCatalog_Resolve(t *testing.T) {
	c := seededCatalog()

	byCode, err := c.Resolve(CatalogPaymentMethod, "CARD")
	require.NoError(t, err)

	byID, err := c.Resolve(CatalogPaymentMethod, byCode.ID.String())
	require.NoError(t, err)
	assert.Equal(t, byCode.Code, byID.Code)

	_, err = c.Resolve(CatalogPaymentMethod, uuid.NewString())
	assert.ErrorIs(t, err, ErrReferenceNotFound)
}

func TestCatalog_ListAll(t *testing.T) {
	inactive := ReferenceEntry{ID: uuid.New(), Code: "DRONE", Name: "Drone delivery", IsActive: false}
	entries := map[CatalogKind][]ReferenceEntry{
		CatalogDeliveryMethod: append(SeedEntries(CatalogDeliveryMethod), inactive),
	}
	c := NewStaticCatalog(entries)

	all := c.ListAll(CatalogDeliveryMethod, false)
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].Name, all[i].Name, "entries must be sorted by name")
	}

	active := c.ListAll(CatalogDeliveryMethod, true)
	assert.Len(t, active, 3)
	for _, e := range active {
		assert.NotEqual(t, "DRONE", e.Code)
	}

	assert.Empty(t, c.ListAll(CatalogOrderStatus, false))
}

func TestSeedEntries_StableAndActive(t *testing.T) {
	statuses := SeedEntries(CatalogOrderStatus)
	require.Len(t, statuses, 6)
	codes := make(map[string]bool)
	for _, e := range statuses {
		assert.True(t, e.IsActive)
		codes[e.Code] = true
	}
	for _, code := range []string{StatusNew, StatusPendingPayment, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
		assert.True(t, codes[code], "missing status %s", code)
	}
	assert.Len(t, SeedEntries(CatalogDeliveryMethod), 3)
	assert.Len(t, SeedEntries(CatalogPaymentMethod), 3)

	// Callers must not be able to mutate the built-in table.
	statuses[0].Code = "MUTATED"
	assert.Equal(t, StatusNew, SeedEntries(CatalogOrderStatus)[0].Code)
}
