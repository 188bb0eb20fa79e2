// Package pricing содержит правила расчёта цены позиции корзины:
// базовая цена по типу контента и итоговая цена с учётом надбавки
// за оплату переводом. Все функции чистые и не имеют побочных эффектов.
package pricing

import (
	"errors"
	"fmt"

	"github.com/YusovID/storefront/internal/models"
)

var ErrInvalidSelection = errors.New("pricing: invalid selection")

// Selection - параметры выбора, влияющие на цену.
// Seasons учитывается только для сериалов, Chapters - только для новел.
type Selection struct {
	Seasons  []int
	Chapters int
}

func SelectionOf(line models.CartLine) Selection {
	sel := Selection{}

	if line.Series != nil {
		sel.Seasons = line.Series.Seasons
	}

	if line.Novela != nil {
		sel.Chapters = line.Novela.Chapters
	}

	return sel
}

// BasePrice возвращает цену позиции без надбавок:
//   - фильм: фиксированная цена за единицу;
//   - сериал: max(1, число выбранных сезонов) * цена сезона;
//   - новела: число глав * цена главы.
//
// Неположительный номер сезона, неположительное число глав или неизвестный
// тип контента возвращают ErrInvalidSelection.
func BasePrice(kind models.Kind, sel Selection, rates models.Rates) (int64, error) {
	const fn = "pricing.BasePrice"

	switch kind {
	case models.KindMovie:
		return rates.MoviePrice, nil

	case models.KindSeries:
		seasons, err := countSeasons(sel.Seasons)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", fn, err)
		}

		return int64(max(1, seasons)) * rates.SeriesPricePerSeason, nil

	case models.KindNovela:
		if sel.Chapters <= 0 {
			return 0, fmt.Errorf("%s: %w: chapter count %d", fn, ErrInvalidSelection, sel.Chapters)
		}

		return int64(sel.Chapters) * rates.NovelPricePerChapter, nil

	default:
		return 0, fmt.Errorf("%s: %w: unknown kind %q", fn, ErrInvalidSelection, kind)
	}
}

// countSeasons считает различные сезоны: выбор - это множество.
func countSeasons(seasons []int) (int, error) {
	seen := make(map[int]struct{}, len(seasons))

	for _, s := range seasons {
		if s <= 0 {
			return 0, fmt.Errorf("%w: season %d", ErrInvalidSelection, s)
		}

		seen[s] = struct{}{}
	}

	return len(seen), nil
}

// Surcharge - base*percentage/100 с округлением половины вверх.
func Surcharge(base, percentage int64) int64 {
	return divRoundHalfUp(base*percentage, 100)
}

// FinalPrice применяет надбавку за перевод. Для наличных цена не меняется.
func FinalPrice(base int64, method models.PaymentMethod, transferFeePercentage int64) int64 {
	switch method {
	case models.PaymentTransfer:
		return base + Surcharge(base, transferFeePercentage)
	default:
		return base
	}
}

func Quote(kind models.Kind, sel Selection, method models.PaymentMethod, rates models.Rates) (models.PriceQuote, error) {
	base, err := BasePrice(kind, sel, rates)
	if err != nil {
		return models.PriceQuote{}, err
	}

	final := FinalPrice(base, method, rates.TransferFeePercentage)

	return models.PriceQuote{
		Base:      base,
		Surcharge: final - base,
		Final:     final,
	}, nil
}

// QuoteLine считает позицию по её собственному способу оплаты.
func QuoteLine(line models.CartLine, rates models.Rates) (models.PriceQuote, error) {
	return Quote(line.Item.Kind, SelectionOf(line), line.PaymentMethod, rates)
}

// divRoundHalfUp делит с округлением половины в сторону +Inf.
func divRoundHalfUp(n, d int64) int64 {
	num := 2*n + d
	den := 2 * d

	q := num / den
	if num%den != 0 && (num < 0) != (den < 0) {
		q--
	}

	return q
}
