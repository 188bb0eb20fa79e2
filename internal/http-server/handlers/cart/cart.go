// Package cart содержит HTTP-обработчики корзины покупателя.
package cart

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/YusovID/storefront/internal/cart"
	"github.com/YusovID/storefront/internal/http-server/middleware/session"
	"github.com/YusovID/storefront/internal/models"
	"github.com/YusovID/storefront/internal/pricing"
	"github.com/YusovID/storefront/lib/api/request"
	resp "github.com/YusovID/storefront/lib/api/response"
	"github.com/YusovID/storefront/lib/logger/sl"
)

type Sessions interface {
	With(ctx context.Context, sessionID string, fn func(s *cart.Store) error) ([]cart.Event, error)
}

type Response struct {
	resp.Response
	Added         *bool    `json:"added,omitempty"`
	Cart          View     `json:"cart"`
	Notifications []string `json:"notifications,omitempty"`
}

type AddLineRequest struct {
	ID            int64  `json:"id" validate:"required,gt=0"`
	Kind          string `json:"kind" validate:"required"`
	Title         string `json:"title" validate:"required"`
	Seasons       []int  `json:"seasons,omitempty" validate:"omitempty,dive,gt=0"`
	Chapters      int    `json:"chapters,omitempty" validate:"omitempty,gt=0"`
	PaymentMethod string `json:"payment_method,omitempty" validate:"omitempty,oneof=cash transfer"`
}

type SeasonsRequest struct {
	Seasons []int `json:"seasons" validate:"required,min=1,dive,gt=0"`
}

type PaymentMethodRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=cash transfer"`
}

func logger(log *slog.Logger, r *http.Request, fn string) *slog.Logger {
	return log.With(
		slog.String("fn", fn),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func Get(log *slog.Logger, sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const fn = "handlers.cart.Get"

		log := logger(log, r, fn)

		var view View
		_, err := sessions.With(r.Context(), session.FromContext(r.Context()), func(s *cart.Store) error {
			view = NewView(s)
			return nil
		})
		if err != nil {
			log.Error("failed to read cart", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("internal error"))
			return
		}

		render.JSON(w, r, Response{Response: resp.OK(), Cart: view})
	}
}

func AddLine(log *slog.Logger, sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const fn = "handlers.cart.AddLine"

		log := logger(log, r, fn)

		var req AddLineRequest
		if !request.Decode(w, r, log, &req) {
			return
		}

		kind, err := models.ParseKind(req.Kind)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.FieldErrors("invalid request", map[string]string{"kind": err.Error()}))
			return
		}

		ref := models.CatalogItemRef{ID: req.ID, Kind: kind, Title: req.Title}

		var opts []cart.LineOption
		if len(req.Seasons) > 0 {
			opts = append(opts, cart.WithSeasons(req.Seasons...))
		}
		if req.Chapters > 0 {
			opts = append(opts, cart.WithChapters(req.Chapters))
		}

		var (
			added bool
			view  View
		)

		events, err := sessions.With(r.Context(), session.FromContext(r.Context()), func(s *cart.Store) error {
			var err error

			added, err = s.AddLine(r.Context(), ref, models.PaymentMethod(req.PaymentMethod), opts...)
			if err != nil {
				return err
			}

			view = NewView(s)

			return nil
		})
		if err != nil {
			writeCartError(w, r, log, err)
			return
		}

		log.Info("cart line added", slog.String("line", ref.Key().String()), slog.Bool("added", added))

		render.JSON(w, r, Response{
			Response:      resp.OK(),
			Added:         &added,
			Cart:          view,
			Notifications: messages(events),
		})
	}
}

func RemoveLine(log *slog.Logger, sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const fn = "handlers.cart.RemoveLine"

		log := logger(log, r, fn)

		key, ok := lineKey(w, r)
		if !ok {
			return
		}

		var view View
		events, err := sessions.With(r.Context(), session.FromContext(r.Context()), func(s *cart.Store) error {
			s.RemoveLine(r.Context(), key)
			view = NewView(s)
			return nil
		})
		if err != nil {
			writeCartError(w, r, log, err)
			return
		}

		render.JSON(w, r, Response{Response: resp.OK(), Cart: view, Notifications: messages(events)})
	}
}

func SetSeasons(log *slog.Logger, sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const fn = "handlers.cart.SetSeasons"

		log := logger(log, r, fn)

		key, ok := lineKey(w, r)
		if !ok {
			return
		}

		var req SeasonsRequest
		if !request.Decode(w, r, log, &req) {
			return
		}

		var view View
		_, err := sessions.With(r.Context(), session.FromContext(r.Context()), func(s *cart.Store) error {
			if err := s.SetSeasons(r.Context(), key, req.Seasons); err != nil {
				return err
			}
			view = NewView(s)
			return nil
		})
		if err != nil {
			writeCartError(w, r, log, err)
			return
		}

		render.JSON(w, r, Response{Response: resp.OK(), Cart: view})
	}
}

func SetPaymentMethod(log *slog.Logger, sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const fn = "handlers.cart.SetPaymentMethod"

		log := logger(log, r, fn)

		key, ok := lineKey(w, r)
		if !ok {
			return
		}

		var req PaymentMethodRequest
		if !request.Decode(w, r, log, &req) {
			return
		}

		var view View
		_, err := sessions.With(r.Context(), session.FromContext(r.Context()), func(s *cart.Store) error {
			if err := s.SetPaymentMethod(r.Context(), key, models.PaymentMethod(req.PaymentMethod)); err != nil {
				return err
			}
			view = NewView(s)
			return nil
		})
		if err != nil {
			writeCartError(w, r, log, err)
			return
		}

		render.JSON(w, r, Response{Response: resp.OK(), Cart: view})
	}
}

func Clear(log *slog.Logger, sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const fn = "handlers.cart.Clear"

		log := logger(log, r, fn)

		var view View
		_, err := sessions.With(r.Context(), session.FromContext(r.Context()), func(s *cart.Store) error {
			s.Clear(r.Context())
			view = NewView(s)
			return nil
		})
		if err != nil {
			writeCartError(w, r, log, err)
			return
		}

		render.JSON(w, r, Response{Response: resp.OK(), Cart: view})
	}
}

func lineKey(w http.ResponseWriter, r *http.Request) (models.LineKey, bool) {
	kind, err := models.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.Error(err.Error()))
		return models.LineKey{}, false
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.Error("invalid line id"))
		return models.LineKey{}, false
	}

	return models.LineKey{Kind: kind, ID: id}, true
}

func writeCartError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, cart.ErrLineNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, resp.Error("cart line not found"))

	case errors.Is(err, pricing.ErrInvalidSelection):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, resp.Error(err.Error()))

	default:
		log.Error("cart operation failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, resp.Error("internal error"))
	}
}
