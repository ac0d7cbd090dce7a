package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manuid/manuid/internal/vendor"
)

func seedRegistry(t *testing.T) (*vendor.MemoryStore, *vendor.ProductType) {
	t.Helper()
	ctx := context.Background()
	store := vendor.NewMemory()

	pt := &vendor.ProductType{Slug: "gelatin_capsules", Name: "Gelatin Capsules",
		Keywords: []string{"capsule", "gelatin"}}
	require.NoError(t, store.CreateProductType(ctx, pt))

	now := time.Now().UTC()
	fresh := now.AddDate(0, 0, -5)
	old := now.AddDate(0, 0, -500)

	vendors := []*vendor.Record{
		{Name: "FreshCo", HQCountry: "Germany", VendorType: vendor.TypeManufacturer,
			Status: vendor.StatusActive, ConfidenceScore: 0.8, LastVerifiedAt: &fresh,
			RegionsServed:  []string{"EU"},
			Certifications: []string{"GMP"}},
		{Name: "StaleCo", HQCountry: "Germany", VendorType: vendor.TypeDistributor,
			Status: vendor.StatusActive, ConfidenceScore: 0.8, LastVerifiedAt: &old},
	}
	for _, v := range vendors {
		require.NoError(t, store.CreateVendor(ctx, v))
		require.NoError(t, store.CreateProductLink(ctx, &vendor.ProductLink{
			ProductTypeID: pt.ID, VendorID: v.ID, Role: vendor.RolePrimaryManufacturer,
		}))
	}
	return store, pt
}

func TestSearchResolvesQueryAndRanks(t *testing.T) {
	store, pt := seedRegistry(t)
	svc := New(store)

	resp, err := svc.Search(context.Background(), Request{ProductTypeQuery: "gelatin capsules"})
	require.NoError(t, err)

	require.NotNil(t, resp.ResolvedProductType)
	assert.Equal(t, pt.ID, resp.ResolvedProductType.ID)
	assert.Equal(t, "Gelatin Capsules", resp.NormalizedQuery)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, "FreshCo", resp.Results[0].Vendor.Name, "fresher verification ranks first")
	assert.Greater(t, resp.Results[0].Score, resp.Results[1].Score)
}

func TestSearchInMemoryFilters(t *testing.T) {
	store, _ := seedRegistry(t)
	svc := New(store)
	ctx := context.Background()

	resp, err := svc.Search(ctx, Request{ProductTypeQuery: "capsule", Region: "EU"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "FreshCo", resp.Results[0].Vendor.Name)

	resp, err = svc.Search(ctx, Request{ProductTypeQuery: "capsule", Certifications: []string{"gmp"}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "FreshCo", resp.Results[0].Vendor.Name)

	resp, err = svc.Search(ctx, Request{ProductTypeQuery: "capsule",
		Role: vendor.RoleAuthorizedDistributor})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestSearchUnmatchedQueryFallsBackToSubstring(t *testing.T) {
	store, _ := seedRegistry(t)
	svc := New(store)

	// Below the match threshold but still a substring of the catalog name.
	resp, err := svc.Search(context.Background(), Request{ProductTypeQuery: "gel"})
	require.NoError(t, err)

	assert.Nil(t, resp.ResolvedProductType)
	assert.Equal(t, "gel", resp.NormalizedQuery)
	assert.Len(t, resp.Results, 2)
}

func TestSearchLimitClamped(t *testing.T) {
	store, _ := seedRegistry(t)
	svc := New(store)

	resp, err := svc.Search(context.Background(), Request{
		ProductTypeQuery: "gelatin capsules", Limit: 1,
	})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
}
