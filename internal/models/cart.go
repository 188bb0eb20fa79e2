package models

import (
	"slices"
)

type SeriesSelection struct {
	Seasons []int `json:"seasons"`
}

type NovelaSelection struct {
	Chapters int `json:"chapters"`
}

// CartLine - позиция каталога и выбор покупателя. Series заполняется только
// для сериалов, Novela только для новел, у фильмов нет ни того, ни другого.
type CartLine struct {
	Item          CatalogItemRef   `json:"item"`
	PaymentMethod PaymentMethod    `json:"payment_method"`
	Series        *SeriesSelection `json:"series,omitempty"`
	Novela        *NovelaSelection `json:"novela,omitempty"`
}

func (l CartLine) Key() LineKey {
	return l.Item.Key()
}

// Seasons возвращает выбранные сезоны по возрастанию.
func (l CartLine) Seasons() []int {
	if l.Series == nil {
		return nil
	}

	seasons := slices.Clone(l.Series.Seasons)
	slices.Sort(seasons)

	return seasons
}

func (l CartLine) Chapters() int {
	if l.Novela == nil {
		return 0
	}

	return l.Novela.Chapters
}

func (l CartLine) Clone() CartLine {
	c := l

	if l.Series != nil {
		c.Series = &SeriesSelection{Seasons: slices.Clone(l.Series.Seasons)}
	}

	if l.Novela != nil {
		n := *l.Novela
		c.Novela = &n
	}

	return c
}

type PriceQuote struct {
	Base      int64 `json:"base"`
	Surcharge int64 `json:"surcharge"`
	Final     int64 `json:"final"`
}

type Totals struct {
	Cash     int64 `json:"cash"`
	Transfer int64 `json:"transfer"`
}

func (t Totals) Sum() int64 {
	return t.Cash + t.Transfer
}

// Predominant - способ оплаты с большей суммой. При равенстве наличные.
func (t Totals) Predominant() PaymentMethod {
	if t.Transfer > t.Cash {
		return PaymentTransfer
	}

	return PaymentCash
}
