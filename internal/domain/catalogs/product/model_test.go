package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/types"
)

func TestBestTier_InclusiveBoundary(t *testing.T) {
	tiers := []PriceTier{
		{MinQuantity: 10, Price: types.MustMoney("85")},
		{MinQuantity: 5, Price: types.MustMoney("90")},
	}

	_, ok := BestTier(tiers, 4)
	assert.False(t, ok)

	tier, ok := BestTier(tiers, 5)
	require.True(t, ok)
	assert.Equal(t, int64(5), tier.MinQuantity)

	tier, ok = BestTier(tiers, 10)
	require.True(t, ok)
	assert.True(t, tier.Price.Equal(types.MustMoney("85")))
}

func TestBestTier_EqualMinQuantityPicksLowerPrice(t *testing.T) {
	tiers := []PriceTier{
		{MinQuantity: 5, Price: types.MustMoney("90")},
		{MinQuantity: 5, Price: types.MustMoney("80")},
	}

	tier, ok := BestTier(tiers, 7)
	require.True(t, ok)
	assert.True(t, tier.Price.Equal(types.MustMoney("80")))
}

func TestToBaseQuantity(t *testing.T) {
	p := &Product{Name: "Mì gói", BaseUnit: "gói", SaleUnit: "thùng", SaleUnitRatio: 30}

	qty, err := p.ToBaseQuantity(2, true)
	require.NoError(t, err)
	assert.Equal(t, int64(60), qty)
	assert.Equal(t, "thùng", p.UnitLabel(true))

	qty, err = p.ToBaseQuantity(2, false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), qty)
	assert.Equal(t, "gói", p.UnitLabel(false))

	plain := &Product{Name: "Nước", BaseUnit: "chai"}
	_, err = plain.ToBaseQuantity(1, true)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestSortTiers(t *testing.T) {
	tiers := []PriceTier{{MinQuantity: 20}, {MinQuantity: 1}, {MinQuantity: 5}}
	SortTiers(tiers)
	assert.Equal(t, []int64{1, 5, 20}, []int64{tiers[0].MinQuantity, tiers[1].MinQuantity, tiers[2].MinQuantity})
}
