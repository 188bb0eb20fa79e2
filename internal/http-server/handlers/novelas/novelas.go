// Package novelas содержит публичные обработчики каталога новел.
package novelas

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/YusovID/storefront/internal/adminconfig"
	"github.com/YusovID/storefront/internal/formatter"
	"github.com/YusovID/storefront/internal/models"
	"github.com/YusovID/storefront/internal/pricing"
	resp "github.com/YusovID/storefront/lib/api/response"
)

const catalogFilename = "Catalogo_Novelas_TV_a_la_Carta.txt"

type Catalog interface {
	Search(f adminconfig.NovelaFilter) []models.Novela
	Rates() models.Rates
}

type NovelaView struct {
	models.Novela
	CashCost     int64 `json:"cash_cost"`
	TransferCost int64 `json:"transfer_cost"`
}

type Response struct {
	resp.Response
	Novelas []NovelaView `json:"novelas"`
}

// List возвращает новелы по фильтру из query-параметров q, genre,
// country, status и year вместе с их стоимостью.
func List(log *slog.Logger, catalog Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const fn = "handlers.novelas.List"

		log := log.With(
			slog.String("fn", fn),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		q := r.URL.Query()

		filter := adminconfig.NovelaFilter{
			Query:   q.Get("q"),
			Genre:   q.Get("genre"),
			Country: q.Get("country"),
			Status:  q.Get("status"),
		}

		if year := q.Get("year"); year != "" {
			y, err := strconv.Atoi(year)
			if err != nil {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("invalid year"))
				return
			}
			filter.Year = y
		}

		rates := catalog.Rates()
		found := catalog.Search(filter)

		views := make([]NovelaView, 0, len(found))
		for _, n := range found {
			base := int64(n.Chapters) * rates.NovelPricePerChapter
			views = append(views, NovelaView{
				Novela:       n,
				CashCost:     base,
				TransferCost: pricing.FinalPrice(base, models.PaymentTransfer, rates.TransferFeePercentage),
			})
		}

		log.Debug("novelas listed", slog.Int("count", len(views)))

		render.JSON(w, r, Response{Response: resp.OK(), Novelas: views})
	}
}

// CatalogText отдаёт каталог новел текстовым файлом.
func CatalogText(catalog Catalog, contact string, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		text := formatter.FormatCatalog(catalog.Search(adminconfig.NovelaFilter{}), catalog.Rates(), contact, now())

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+catalogFilename+`"`)
		_, _ = w.Write([]byte(text))
	}
}
