// Package session извлекает идентификатор сессии покупателя из заголовка
// X-Session-ID.
package session

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	resp "github.com/YusovID/storefront/lib/api/response"
)

const (
	Header = "X-Session-ID"

	maxLength = 128
)

type ctxKey struct{}

// Require отклоняет запросы без заголовка X-Session-ID.
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(Header))
		if id == "" || len(id) > maxLength {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("missing or invalid "+Header+" header"))

			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
