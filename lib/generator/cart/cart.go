// Package cartGen генерирует случайных покупателей для генератора заказов:
// содержимое корзины и данные формы оформления. Данные создаются
// библиотекой gofakeit и всегда проходят проверку формы, поэтому каждый
// покупатель доходит до оформленного заказа.
package cartGen

import (
	"github.com/brianvoe/gofakeit/v7"

	"github.com/YusovID/storefront/internal/cart"
	"github.com/YusovID/storefront/internal/checkout"
	"github.com/YusovID/storefront/internal/models"
)

// доля покупателей в процентах, выбирающих перевод для всего заказа
const overrideRate = 20

var (
	kinds   = []models.Kind{models.KindMovie, models.KindSeries, models.KindNovela}
	mobile  = []string{"5", "6"}
	novelas = []string{"Corazón Salvaje", "Rubí", "La Usurpadora", "Café con aroma de mujer", "Pasión de Gavilanes"}
	barrios = []string{"Reparto Sueño", "Vista Alegre", "Altamira", "San Pedrito", "Centro Histórico"}
)

// Pick - одна позиция, которую покупатель кладёт в корзину.
type Pick struct {
	Ref           models.CatalogItemRef
	PaymentMethod models.PaymentMethod
	Seasons       []int
	Chapters      int
}

func (p Pick) Options() []cart.LineOption {
	switch p.Ref.Kind {
	case models.KindSeries:
		return []cart.LineOption{cart.WithSeasons(p.Seasons...)}
	case models.KindNovela:
		return []cart.LineOption{cart.WithChapters(p.Chapters)}
	default:
		return nil
	}
}

// Picks возвращает от 1 до maxLines позиций. Новелы берутся из catalog,
// если он не пуст.
func Picks(maxLines int, catalog []models.Novela) []Pick {
	picks := make([]Pick, gofakeit.Number(1, max(1, maxLines)))

	for i := range picks {
		picks[i] = pick(catalog)
	}

	return picks
}

func pick(catalog []models.Novela) Pick {
	p := Pick{
		Ref: models.CatalogItemRef{
			ID:   int64(gofakeit.Number(1, 100000)),
			Kind: kinds[gofakeit.Number(0, len(kinds)-1)],
		},
		PaymentMethod: models.PaymentCash,
	}

	if gofakeit.Bool() {
		p.PaymentMethod = models.PaymentTransfer
	}

	switch p.Ref.Kind {
	case models.KindMovie:
		p.Ref.Title = gofakeit.MovieName()

	case models.KindSeries:
		p.Ref.Title = gofakeit.MovieName()
		for s := range gofakeit.Number(1, 5) {
			p.Seasons = append(p.Seasons, s+1)
		}

	case models.KindNovela:
		if len(catalog) > 0 {
			n := catalog[gofakeit.Number(0, len(catalog)-1)]
			p.Ref.ID, p.Ref.Title, p.Chapters = n.ID, n.Title, n.Chapters
			break
		}

		p.Ref.Title = gofakeit.RandomString(novelas)
		p.Chapters = gofakeit.Number(40, 200)
	}

	return p
}

// Customer заполняет форму оформления для одного из options.
func Customer(options []models.DeliveryOption) checkout.Input {
	in := checkout.Input{
		Customer: models.CustomerInfo{
			FullName: gofakeit.Name(),
			Phone:    "+53 " + gofakeit.RandomString(mobile) + gofakeit.DigitN(7),
		},
		DeliveryOption: models.PickupOption,
	}

	if gofakeit.Bool() {
		in.Customer.IDCard = gofakeit.DigitN(11)
	}

	if len(options) > 0 {
		opt := options[gofakeit.Number(0, len(options)-1)]
		in.DeliveryOption = opt.Name

		if !opt.Pickup {
			in.Customer.Address = gofakeit.Street() + ", " + gofakeit.RandomString(barrios)
		}
	}

	if gofakeit.Number(1, 100) <= overrideRate {
		in.PaymentMethod = models.PaymentTransfer
	}

	return in
}
