package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YusovID/storefront/internal/cart"
	"github.com/YusovID/storefront/internal/delivery"
	"github.com/YusovID/storefront/internal/models"
	"github.com/YusovID/storefront/internal/storage/memory"
	"github.com/YusovID/storefront/lib/logger/slogdiscard"
)

var fixedNow = time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

type fixture struct {
	rates models.Rates
	zones []models.DeliveryZone
	cart  *cart.Store
	o     *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		rates: models.DefaultRates(),
		zones: []models.DeliveryZone{{Name: "Vista Alegre", Cost: 150}},
	}

	ratesFn := func() models.Rates { return f.rates }

	f.cart = cart.Open(context.Background(), memory.New(), "s", ratesFn, slogdiscard.NewDiscardLogger())

	seq := 0
	o, err := New(Deps{
		Rates:    ratesFn,
		Delivery: delivery.New(delivery.ZonesFunc(func() []models.DeliveryZone { return f.zones })),
		NewOrderID: func(time.Time) string {
			seq++
			return fmt.Sprintf("ORD-TEST-%d", seq)
		},
		Clock:  func() time.Time { return fixedNow },
		Logger: slogdiscard.NewDiscardLogger(),
	})
	require.NoError(t, err)

	f.o = o

	return f
}

func (f *fixture) add(t *testing.T, ref models.CatalogItemRef, method models.PaymentMethod, opts ...cart.LineOption) {
	t.Helper()

	_, err := f.cart.AddLine(context.Background(), ref, method, opts...)
	require.NoError(t, err)
}

func validInput(option string) Input {
	return Input{
		Customer: models.CustomerInfo{
			FullName: "Juan Pérez",
			Phone:    "+53 5469 0878",
			Address:  "Calle 5ta #123",
		},
		DeliveryOption: option,
	}
}

func (f *fixture) movieAndSeries(t *testing.T) {
	f.add(t, models.CatalogItemRef{ID: 1, Kind: models.KindMovie, Title: "A"}, models.PaymentCash)
	f.add(t, models.CatalogItemRef{ID: 2, Kind: models.KindSeries, Title: "B"}, models.PaymentTransfer, cart.WithSeasons(1, 2))
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Deps{})
	require.Error(t, err)

	_, err = New(Deps{Rates: models.DefaultRates})
	require.Error(t, err)
}

func TestSubmit_PickupScenario(t *testing.T) {
	f := newFixture(t)
	f.movieAndSeries(t)

	order, err := f.o.Submit(context.Background(), f.cart, validInput("pickup"))
	require.NoError(t, err)

	assert.Equal(t, int64(80), order.CashSubtotal)
	assert.Equal(t, int64(660), order.TransferSubtotal)
	assert.Equal(t, int64(740), order.ContentSubtotal)
	assert.Zero(t, order.DeliveryCost)
	assert.Equal(t, int64(740), order.GrandTotal)
	assert.True(t, order.DeliveryOption.Pickup)

	require.Len(t, order.Lines, 2)
	assert.Equal(t, models.PriceQuote{Base: 80, Final: 80}, order.Lines[0].Quote)
	assert.Equal(t, models.PriceQuote{Base: 600, Surcharge: 60, Final: 660}, order.Lines[1].Quote)

	assert.Equal(t, "ORD-TEST-1", order.OrderID)
	assert.Equal(t, fixedNow, order.CreatedAt)
	assert.Equal(t, int64(10), order.TransferFeePercentage)
}

func TestSubmit_ZoneScenario(t *testing.T) {
	f := newFixture(t)
	f.movieAndSeries(t)

	order, err := f.o.Submit(context.Background(), f.cart, validInput("Vista Alegre"))
	require.NoError(t, err)

	assert.Equal(t, int64(150), order.DeliveryCost)
	assert.Equal(t, int64(890), order.GrandTotal)
	assert.Equal(t, order.CashSubtotal+order.TransferSubtotal+order.DeliveryCost, order.GrandTotal)
}

func TestSubmit_NovelaScenario(t *testing.T) {
	f := newFixture(t)
	f.add(t, models.CatalogItemRef{ID: 3, Kind: models.KindNovela, Title: "Rubí"}, models.PaymentCash, cart.WithChapters(100))

	order, err := f.o.Submit(context.Background(), f.cart, validInput("pickup"))
	require.NoError(t, err)

	assert.Equal(t, models.PriceQuote{Base: 500, Final: 500}, order.Lines[0].Quote)
	assert.Equal(t, int64(500), order.GrandTotal)
}

func TestSubmit_TotalDecomposition(t *testing.T) {
	f := newFixture(t)
	f.rates.TransferFeePercentage = 15

	for i := int64(1); i <= 9; i++ {
		method := models.PaymentCash
		if i%2 == 0 {
			method = models.PaymentTransfer
		}

		switch i % 3 {
		case 0:
			f.add(t, models.CatalogItemRef{ID: i, Kind: models.KindMovie, Title: "m"}, method)
		case 1:
			f.add(t, models.CatalogItemRef{ID: i, Kind: models.KindSeries, Title: "s"}, method, cart.WithSeasons(int(i)))
		case 2:
			f.add(t, models.CatalogItemRef{ID: i, Kind: models.KindNovela, Title: "n"}, method, cart.WithChapters(int(i*7)))
		}
	}

	for _, option := range []string{"pickup", "Vista Alegre"} {
		order, err := f.o.Submit(context.Background(), f.cart, validInput(option))
		require.NoError(t, err)

		assert.Equal(t, order.ContentSubtotal, order.CashSubtotal+order.TransferSubtotal)
		assert.Equal(t, order.GrandTotal, order.CashSubtotal+order.TransferSubtotal+order.DeliveryCost)

		var sum int64
		for _, l := range order.Lines {
			sum += l.Quote.Final
		}
		assert.Equal(t, order.ContentSubtotal, sum)
		assert.Equal(t, f.cart.TotalByPaymentMethod(), models.Totals{Cash: order.CashSubtotal, Transfer: order.TransferSubtotal})
	}
}

func TestSubmit_GlobalPaymentMethodOverride(t *testing.T) {
	f := newFixture(t)
	f.movieAndSeries(t)

	in := validInput("pickup")
	in.PaymentMethod = models.PaymentTransfer

	order, err := f.o.Submit(context.Background(), f.cart, in)
	require.NoError(t, err)

	assert.Zero(t, order.CashSubtotal)
	assert.Equal(t, int64(88+660), order.TransferSubtotal)

	line, _ := f.cart.Line(models.LineKey{Kind: models.KindMovie, ID: 1})
	assert.Equal(t, models.PaymentCash, line.PaymentMethod)
}

func TestSubmit_SnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.movieAndSeries(t)

	order, err := f.o.Submit(ctx, f.cart, validInput("pickup"))
	require.NoError(t, err)

	seriesKey := models.LineKey{Kind: models.KindSeries, ID: 2}
	require.NoError(t, f.cart.SetSeasons(ctx, seriesKey, []int{1, 2, 3, 4}))
	require.NoError(t, f.cart.SetPaymentMethod(ctx, seriesKey, models.PaymentCash))
	f.cart.RemoveLine(ctx, models.LineKey{Kind: models.KindMovie, ID: 1})
	f.rates.SeriesPricePerSeason = 1000

	require.Len(t, order.Lines, 2)
	assert.Equal(t, []int{1, 2}, order.Lines[1].Seasons())
	assert.Equal(t, models.PaymentTransfer, order.Lines[1].PaymentMethod)
	assert.Equal(t, int64(740), order.GrandTotal)
}

func TestSubmit_FreshOrderIDs(t *testing.T) {
	f := newFixture(t)
	f.movieAndSeries(t)

	first, err := f.o.Submit(context.Background(), f.cart, validInput("pickup"))
	require.NoError(t, err)
	second, err := f.o.Submit(context.Background(), f.cart, validInput("pickup"))
	require.NoError(t, err)

	assert.NotEqual(t, first.OrderID, second.OrderID)
}

func TestNewOrderID(t *testing.T) {
	seen := make(map[string]struct{}, 1000)

	for range 1000 {
		id := NewOrderID(fixedNow)

		require.Regexp(t, `^ORD-[0-9A-HJKMNP-TV-Z]{26}$`, id)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestSubmit_ValidationGating(t *testing.T) {
	f := newFixture(t)
	f.movieAndSeries(t)

	in := validInput("pickup")
	in.Customer.FullName = "   "

	_, err := f.o.Submit(context.Background(), f.cart, in)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.ErrorIs(t, err, ErrValidationFailed)
	assert.Equal(t, map[string]string{FieldFullName: "el nombre completo es obligatorio"}, verr.Fields)
	assert.Equal(t, 2, f.cart.Len())

	in.Customer.FullName = "Juan Pérez"

	order, err := f.o.Submit(context.Background(), f.cart, in)
	require.NoError(t, err)
	assert.Equal(t, "Juan Pérez", order.Customer.FullName)
}

func TestSubmit_ValidationRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
		empty  bool
		want   []string
	}{
		{name: "missing phone", mutate: func(in *Input) { in.Customer.Phone = "" }, want: []string{FieldPhone}},
		{name: "bad phone", mutate: func(in *Input) { in.Customer.Phone = "123" }, want: []string{FieldPhone}},
		{name: "address required for zone", mutate: func(in *Input) {
			in.DeliveryOption = "Vista Alegre"
			in.Customer.Address = " "
		}, want: []string{FieldAddress}},
		{name: "no delivery option", mutate: func(in *Input) { in.DeliveryOption = "" }, want: []string{FieldDeliveryOption, FieldAddress}},
		{name: "unknown delivery option", mutate: func(in *Input) {
			in.DeliveryOption = "Atlantis"
			in.Customer.Address = "Calle 5ta #123"
		}, want: []string{FieldDeliveryOption}},
		{name: "bad payment method", mutate: func(in *Input) { in.PaymentMethod = "crypto" }, want: []string{FieldPaymentMethod}},
		{name: "empty cart", mutate: func(*Input) {}, empty: true, want: []string{FieldCart}},
		{name: "everything wrong", mutate: func(in *Input) {
			in.Customer = models.CustomerInfo{}
			in.DeliveryOption = ""
		}, empty: true, want: []string{FieldFullName, FieldPhone, FieldAddress, FieldDeliveryOption, FieldCart}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if !tt.empty {
				f.movieAndSeries(t)
			}

			in := validInput("pickup")
			in.Customer.Address = ""
			tt.mutate(&in)

			_, err := f.o.Submit(context.Background(), f.cart, in)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.ElementsMatch(t, tt.want, keys(verr.Fields))
		})
	}
}

func TestSubmit_PickupDoesNotNeedAddress(t *testing.T) {
	f := newFixture(t)
	f.movieAndSeries(t)

	in := validInput("pickup")
	in.Customer.Address = ""

	_, err := f.o.Submit(context.Background(), f.cart, in)
	require.NoError(t, err)
}

func TestSubmit_DeletedZoneIsRejected(t *testing.T) {
	f := newFixture(t)
	f.movieAndSeries(t)

	require.NoError(t, f.o.Validate(f.cart, validInput("Vista Alegre")))

	f.zones = nil

	err := f.o.Validate(f.cart, validInput("Vista Alegre"))
	require.ErrorIs(t, err, ErrValidationFailed)
}

func TestIsCubanPhone(t *testing.T) {
	accepted := []string{"+53 5469 0878", "54690878", "22345678", "5354690878", "(53) 5469-0878", "+53 7 123 4567", "2123456"}
	rejected := []string{"123", "abcdefgh", "", "+1 5469 0878", "14690878", "546908781", "+53"}

	for _, p := range accepted {
		assert.True(t, IsCubanPhone(p), p)
	}
	for _, p := range rejected {
		assert.False(t, IsCubanPhone(p), p)
	}
}

func TestSession_StateMachine(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.movieAndSeries(t)

	s := f.o.Open()
	assert.Equal(t, StateCollecting, s.State())

	bad := validInput("pickup")
	bad.Customer.Phone = "abcdefgh"

	_, err := s.Submit(ctx, f.cart, bad)
	require.ErrorIs(t, err, ErrValidationFailed)
	assert.Equal(t, StateInvalid, s.State())
	assert.Contains(t, s.FieldErrors(), FieldPhone)
	_, ok := s.Order()
	assert.False(t, ok)

	order, err := s.Submit(ctx, f.cart, validInput("pickup"))
	require.NoError(t, err)
	assert.Equal(t, StateSubmitted, s.State())
	assert.Empty(t, s.FieldErrors())

	got, ok := s.Order()
	require.True(t, ok)
	assert.Equal(t, order.OrderID, got.OrderID)

	_, err = s.Submit(ctx, f.cart, validInput("pickup"))
	require.ErrorIs(t, err, ErrAlreadySubmitted)

	s.Close()
	assert.Equal(t, StateSubmitted, s.State())
}

func TestSession_CloseDiscardsForm(t *testing.T) {
	f := newFixture(t)
	f.movieAndSeries(t)

	s := f.o.Open()

	_, err := s.Submit(context.Background(), f.cart, Input{})
	require.Error(t, err)

	s.Close()
	assert.Equal(t, StateClosed, s.State())
	assert.Empty(t, s.FieldErrors())

	_, err = s.Submit(context.Background(), f.cart, validInput("pickup"))
	require.True(t, errors.Is(err, ErrSessionClosed))
	assert.Equal(t, 2, f.cart.Len())
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}

	return out
}
