package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manuid/manuid/internal/vendor"
)

func catalog() []vendor.ProductType {
	return []vendor.ProductType{
		{ID: 1, Slug: "gelatin_capsules", Name: "Gelatin Capsules",
			Keywords: []string{"capsule", "gelatin", "hard shell"}},
		{ID: 2, Slug: "excipients", Name: "Excipients",
			Keywords: []string{"binder", "filler"}},
		{ID: 3, Slug: "api_intermediates", Name: "API Intermediates",
			Keywords: []string{"api", "intermediate"}},
	}
}

func TestNormalizeExactName(t *testing.T) {
	res := Normalize("Gelatin Capsules", catalog())

	require.NotNil(t, res.ProductType)
	assert.Equal(t, int64(1), res.ProductType.ID)
	assert.Equal(t, "Gelatin Capsules", res.NormalizedQuery)
	assert.GreaterOrEqual(t, res.Score, 0.99)
}

func TestNormalizeKeywordMatch(t *testing.T) {
	res := Normalize("capsule", catalog())

	require.NotNil(t, res.ProductType)
	assert.Equal(t, "Gelatin Capsules", res.ProductType.Name)
}

func TestNormalizeNoMatch(t *testing.T) {
	res := Normalize("zzzzqqqq", catalog())

	assert.Nil(t, res.ProductType)
	assert.Equal(t, "zzzzqqqq", res.NormalizedQuery)
	assert.Less(t, res.Score, MatchThreshold)
}

func TestNormalizeEmptyQueryAndCatalog(t *testing.T) {
	res := Normalize("   ", catalog())
	assert.Nil(t, res.ProductType)

	res = Normalize("capsules", nil)
	assert.Nil(t, res.ProductType)
	assert.Equal(t, "capsules", res.NormalizedQuery)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "gelatin_capsules", Slugify("Gelatin Capsules"))
	assert.Equal(t, "usp_grade_lactose", Slugify("  USP-grade (lactose)! "))
	assert.Equal(t, "custom_product_type", Slugify("!!!"))

	long := ""
	for i := 0; i < 200; i++ {
		long += "a"
	}
	assert.Len(t, Slugify(long), 120)
}

func TestTitleName(t *testing.T) {
	assert.Equal(t, "Sterile Vials", TitleName("  sterile vials "))
}
