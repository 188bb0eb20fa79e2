package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YusovID/storefront/internal/models"
)

func TestBasePrice(t *testing.T) {
	rates := models.DefaultRates()

	tests := []struct {
		name string
		kind models.Kind
		sel  Selection
		want int64
	}{
		{name: "movie", kind: models.KindMovie, want: 80},
		{name: "series without seasons counts as one", kind: models.KindSeries, want: 300},
		{name: "series two seasons", kind: models.KindSeries, sel: Selection{Seasons: []int{1, 2}}, want: 600},
		{name: "series duplicate seasons", kind: models.KindSeries, sel: Selection{Seasons: []int{3, 3, 4}}, want: 600},
		{name: "novela", kind: models.KindNovela, sel: Selection{Chapters: 100}, want: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BasePrice(tt.kind, tt.sel, rates)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBasePrice_InvalidSelection(t *testing.T) {
	rates := models.DefaultRates()

	tests := []struct {
		name string
		kind models.Kind
		sel  Selection
	}{
		{name: "zero chapters", kind: models.KindNovela},
		{name: "negative chapters", kind: models.KindNovela, sel: Selection{Chapters: -3}},
		{name: "zero season", kind: models.KindSeries, sel: Selection{Seasons: []int{0}}},
		{name: "negative season", kind: models.KindSeries, sel: Selection{Seasons: []int{1, -2}}},
		{name: "unknown kind", kind: models.Kind("documentary")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BasePrice(tt.kind, tt.sel, rates)
			require.ErrorIs(t, err, ErrInvalidSelection)
		})
	}
}

func TestBasePrice_SeriesMonotonic(t *testing.T) {
	rates := models.DefaultRates()

	var prev int64
	seasons := []int{}

	for n := 1; n <= 12; n++ {
		seasons = append(seasons, n)

		got, err := BasePrice(models.KindSeries, Selection{Seasons: seasons}, rates)
		require.NoError(t, err)
		assert.Greater(t, got, prev, "seasons=%d", n)

		prev = got
	}
}

func TestFinalPrice_CashIdentity(t *testing.T) {
	for _, base := range []int64{0, 1, 80, 925, 123457} {
		for _, p := range []int64{0, 10, 33, 250} {
			assert.Equal(t, base, FinalPrice(base, models.PaymentCash, p))
		}
	}
}

func TestFinalPrice_TransferSurcharge(t *testing.T) {
	for base := int64(0); base <= 2000; base += 7 {
		for _, p := range []int64{0, 1, 5, 10, 15, 33, 50, 100} {
			got := FinalPrice(base, models.PaymentTransfer, p)
			want := int64(math.Floor(float64(base*p)/100 + 0.5))

			require.Equal(t, want, got-base, "base=%d p=%d", base, p)
		}
	}
}

func TestFinalPrice_RoundsHalfUp(t *testing.T) {
	// 925 * 10% = 92.5
	assert.Equal(t, int64(1018), FinalPrice(925, models.PaymentTransfer, 10))
	// 490 * 10% = 49
	assert.Equal(t, int64(539), FinalPrice(490, models.PaymentTransfer, 10))
	// 15 * 10% = 1.5
	assert.Equal(t, int64(17), FinalPrice(15, models.PaymentTransfer, 10))
	// 14 * 10% = 1.4
	assert.Equal(t, int64(15), FinalPrice(14, models.PaymentTransfer, 10))
}

func TestFinalPrice_ZeroPercentIsNoop(t *testing.T) {
	assert.Equal(t, int64(600), FinalPrice(600, models.PaymentTransfer, 0))
}

func TestQuoteLine(t *testing.T) {
	line := models.CartLine{
		Item:          models.CatalogItemRef{ID: 2, Kind: models.KindSeries, Title: "B"},
		PaymentMethod: models.PaymentTransfer,
		Series:        &models.SeriesSelection{Seasons: []int{1, 2}},
	}

	q, err := QuoteLine(line, models.DefaultRates())
	require.NoError(t, err)
	assert.Equal(t, models.PriceQuote{Base: 600, Surcharge: 60, Final: 660}, q)
}

func TestDivRoundHalfUp(t *testing.T) {
	assert.Equal(t, int64(-1), divRoundHalfUp(-15, 10))
	assert.Equal(t, int64(-2), divRoundHalfUp(-16, 10))
	assert.Equal(t, int64(2), divRoundHalfUp(15, 10))
}
