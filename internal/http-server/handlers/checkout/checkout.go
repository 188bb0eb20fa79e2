// Package checkout содержит HTTP-обработчик оформления заказа.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/YusovID/storefront/internal/cart"
	"github.com/YusovID/storefront/internal/checkout"
	"github.com/YusovID/storefront/internal/formatter"
	"github.com/YusovID/storefront/internal/http-server/middleware/session"
	"github.com/YusovID/storefront/internal/models"
	resp "github.com/YusovID/storefront/lib/api/response"
	"github.com/YusovID/storefront/lib/logger/sl"
)

type Sessions interface {
	With(ctx context.Context, sessionID string, fn func(s *cart.Store) error) ([]cart.Event, error)
}

type Orchestrator interface {
	Open() *checkout.Session
}

type Dispatcher interface {
	Dispatch(ctx context.Context, order models.OrderRecord) (formatter.Message, error)
	Link(msg formatter.Message) string
}

type Request struct {
	FullName       string `json:"full_name"`
	IDCard         string `json:"id_card,omitempty"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	DeliveryOption string `json:"delivery_option"`
	PaymentMethod  string `json:"payment_method,omitempty"`
}

type Response struct {
	resp.Response
	Order         models.OrderRecord `json:"order"`
	Message       string             `json:"message"`
	WhatsAppLink  string             `json:"whatsapp_link"`
	DispatchError string             `json:"dispatch_error,omitempty"`
}

// New проверяет форму и, если она верна, создаёт заказ из корзины сессии
// и передаёт его получателям. Ошибки полей формы возвращаются со статусом
// 422. Неудачная отправка не отменяет заказ: текст и ссылка возвращаются,
// а причина сообщается в dispatch_error.
func New(log *slog.Logger, sessions Sessions, orchestrator Orchestrator, dispatcher Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const fn = "handlers.checkout.New"

		log := log.With(
			slog.String("fn", fn),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode json body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("failed to decode request"))

			return
		}

		in := checkout.Input{
			Customer: models.CustomerInfo{
				FullName: req.FullName,
				IDCard:   req.IDCard,
				Phone:    req.Phone,
				Address:  req.Address,
			},
			DeliveryOption: req.DeliveryOption,
			PaymentMethod:  models.PaymentMethod(req.PaymentMethod),
		}

		form := orchestrator.Open()
		defer form.Close()

		var order models.OrderRecord
		_, err := sessions.With(r.Context(), session.FromContext(r.Context()), func(s *cart.Store) error {
			var err error
			order, err = form.Submit(r.Context(), s, in)
			return err
		})

		var verr *checkout.ValidationError
		switch {
		case errors.As(err, &verr):
			log.Info("checkout form rejected", slog.Any("fields", verr.Fields))

			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, resp.FieldErrors("validation failed", form.FieldErrors()))

			return

		case err != nil:
			log.Error("failed to create order", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("failed to create order"))

			return
		}

		msg, err := dispatcher.Dispatch(r.Context(), order)

		res := Response{
			Response:     resp.OK(),
			Order:        order,
			Message:      msg.Text,
			WhatsAppLink: dispatcher.Link(msg),
		}

		if err != nil {
			log.Warn("order created but not dispatched", slog.String("order_id", order.OrderID), sl.Err(err))
			res.DispatchError = err.Error()
		}

		log.Info("order created", slog.String("order_id", order.OrderID), slog.Int64("grand_total", order.GrandTotal))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, res)
	}
}
