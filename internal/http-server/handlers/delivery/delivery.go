// Package delivery содержит HTTP-обработчик списка вариантов доставки.
package delivery

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/YusovID/storefront/internal/models"
	resp "github.com/YusovID/storefront/lib/api/response"
)

type Lister interface {
	ListOptions() []models.DeliveryOption
}

type Response struct {
	resp.Response
	Options []models.DeliveryOption `json:"options"`
}

func List(catalog Lister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, Response{
			Response: resp.OK(),
			Options:  catalog.ListOptions(),
		})
	}
}
