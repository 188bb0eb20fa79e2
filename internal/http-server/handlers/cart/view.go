package cart

import (
	"github.com/YusovID/storefront/internal/cart"
	"github.com/YusovID/storefront/internal/models"
)

// LineView - позиция корзины с ценой по текущим тарифам.
type LineView struct {
	models.CartLine
	Key   string            `json:"key"`
	Quote models.PriceQuote `json:"quote"`
}

type View struct {
	Lines       []LineView           `json:"lines"`
	Totals      models.Totals        `json:"totals"`
	GrandTotal  int64                `json:"grand_total"`
	Predominant models.PaymentMethod `json:"predominant_payment_method"`
	Counts      map[models.Kind]int  `json:"counts"`
	Rates       models.Rates         `json:"rates"`
}

func NewView(s *cart.Store) View {
	lines := s.Lines()

	v := View{
		Lines:  make([]LineView, 0, len(lines)),
		Counts: s.CountByKind(),
		Rates:  s.Rates(),
	}

	for _, l := range lines {
		// позиции проверяются при добавлении, ошибка здесь означает
		// повреждённый снапшот, такая позиция показывается без цены
		q, _ := s.Quote(l)
		v.Lines = append(v.Lines, LineView{CartLine: l, Key: l.Key().String(), Quote: q})
	}

	v.Totals = s.TotalByPaymentMethod()
	v.GrandTotal = v.Totals.Sum()
	v.Predominant = v.Totals.Predominant()

	return v
}

func messages(events []cart.Event) []string {
	if len(events) == 0 {
		return nil
	}

	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Message)
	}

	return out
}
