package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/fault"
)

func TestProductFilter_NormalizeDefaults(t *testing.T) {
	var f ProductFilter
	require.NoError(t, f.Normalize())

	assert.Equal(t, DefaultOrdering, f.Ordering)
	assert.Equal(t, DefaultLimit, f.Limit)
	require.NotNil(t, f.IsActive)
	assert.True(t, *f.IsActive)
}

func TestProductFilter_NormalizeKeepsExplicitInactive(t *testing.T) {
	inactive := false
	f := ProductFilter{IsActive: &inactive, Limit: 500, Search: "  drill "}
	require.NoError(t, f.Normalize())

	assert.False(t, *f.IsActive)
	assert.Equal(t, MaxLimit, f.Limit)
	assert.Equal(t, "drill", f.Search)
}

func TestProductFilter_NormalizeErrors(t *testing.T) {
	low := decimal.NewFromInt(10)
	high := decimal.NewFromInt(5)

	tests := []struct {
		name  string
		f     ProductFilter
		field string
	}{
		{"bad ordering", ProductFilter{Ordering: "title"}, "ordering"},
		{"price range", ProductFilter{MinPrice: &low, MaxPrice: &high}, "min_price"},
		{"negative limit", ProductFilter{Limit: -1}, "limit"},
		{"negative offset", ProductFilter{Offset: -1}, "offset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.f.Normalize()

			var vErr *fault.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := ParseIDs("category", "1, 2,,3")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	ids, err = ParseIDs("category", " ")
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = ParseIDs("category", "1,x")
	assert.True(t, fault.IsValidation(err))
}
