// Package adminauth закрывает административные маршруты basic-авторизацией.
package adminauth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	resp "github.com/YusovID/storefront/lib/api/response"
	"github.com/YusovID/storefront/lib/logger/sl"
)

const realm = "storefront-admin"

type Authenticator interface {
	Login(user, password string) error
}

func New(log *slog.Logger, auth Authenticator) func(next http.Handler) http.Handler {
	log = log.With(slog.String("component", "middleware/adminauth"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, password, ok := r.BasicAuth()
			if !ok {
				deny(w, r)
				return
			}

			if err := auth.Login(user, password); err != nil {
				log.Warn("admin login failed", slog.String("user", user), sl.Err(err))
				deny(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`"`)

	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, resp.Error("unauthorized"))
}
