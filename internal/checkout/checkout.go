// Package checkout собирает из корзины, формы покупателя и выбранной
// доставки неизменяемую запись заказа.
//
// Отправка даёт либо полный OrderRecord, либо ничего: ошибки проверки
// возвращаются как *ValidationError, по сообщению на поле формы, а корзина
// не меняется. Тарифы читаются один раз на отправку, поэтому все позиции
// заказа считаются по одной конфигурации.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"

	"github.com/YusovID/storefront/internal/models"
	"github.com/YusovID/storefront/internal/pricing"
)

const orderIDPrefix = "ORD-"

type CartReader interface {
	Lines() []models.CartLine
}

type DeliveryCatalog interface {
	Lookup(name string) (models.DeliveryOption, bool)
	CostOf(name string) int64
}

// Input - данные формы заказа. Если PaymentMethod задан, он заменяет
// способ оплаты всех позиций этого заказа.
type Input struct {
	Customer       models.CustomerInfo  `json:"customer"`
	DeliveryOption string               `json:"delivery_option"`
	PaymentMethod  models.PaymentMethod `json:"payment_method,omitempty"`
}

type Deps struct {
	Rates      func() models.Rates
	Delivery   DeliveryCatalog
	NewOrderID func(now time.Time) string
	Clock      func() time.Time
	Logger     *slog.Logger
}

type Orchestrator struct {
	rates      func() models.Rates
	delivery   DeliveryCatalog
	newOrderID func(now time.Time) string
	now        func() time.Time
	validate   *validator.Validate
	log        *slog.Logger
}

func New(deps Deps) (*Orchestrator, error) {
	if deps.Rates == nil {
		return nil, errors.New("checkout: rates source is required")
	}
	if deps.Delivery == nil {
		return nil, errors.New("checkout: delivery catalog is required")
	}

	newOrderID := deps.NewOrderID
	if newOrderID == nil {
		newOrderID = NewOrderID
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Orchestrator{
		rates:      deps.Rates,
		delivery:   deps.Delivery,
		newOrderID: newOrderID,
		now: func() time.Time {
			return clock().UTC()
		},
		validate: newValidator(),
		log:      log,
	}, nil
}

// NewOrderID возвращает "ORD-" и ULID: время в миллисекундах и 80
// случайных бит.
func NewOrderID(now time.Time) string {
	return orderIDPrefix + ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
}

// Validate проверяет форму и корзину, не создавая заказ.
func (o *Orchestrator) Validate(cart CartReader, in Input) error {
	_, err := o.validateInput(cart.Lines(), in)
	return err
}

// Submit проверяет форму и, если ошибок нет, считает копию корзины и
// возвращает запись заказа.
func (o *Orchestrator) Submit(ctx context.Context, cart CartReader, in Input) (models.OrderRecord, error) {
	const fn = "checkout.Submit"

	log := o.log.With(slog.String("fn", fn))

	lines := cart.Lines()

	in, err := o.validateInput(lines, in)
	if err != nil {
		log.InfoContext(ctx, "checkout rejected", slog.Any("error", err))
		return models.OrderRecord{}, err
	}

	option, ok := o.delivery.Lookup(in.DeliveryOption)
	if !ok {
		option = models.DeliveryOption{Name: in.DeliveryOption}
	}
	option.Cost = o.delivery.CostOf(in.DeliveryOption)

	order, err := o.price(lines, in.PaymentMethod, o.rates())
	if err != nil {
		return models.OrderRecord{}, fmt.Errorf("%s: %w", fn, err)
	}

	now := o.now()

	order.OrderID = o.newOrderID(now)
	order.CreatedAt = now
	order.Customer = in.Customer
	order.DeliveryOption = option
	order.DeliveryCost = option.Cost
	order.GrandTotal = order.ContentSubtotal + order.DeliveryCost

	log.InfoContext(ctx, "order created",
		slog.String("order_id", order.OrderID),
		slog.Int("lines", len(order.Lines)),
		slog.Int64("grand_total", order.GrandTotal),
	)

	return order, nil
}

// price считает цены позиций и подытоги. Позиции копируются, запись
// заказа не делит память с корзиной.
func (o *Orchestrator) price(lines []models.CartLine, override models.PaymentMethod, rates models.Rates) (models.OrderRecord, error) {
	order := models.OrderRecord{
		Lines:                 make([]models.OrderLine, 0, len(lines)),
		TransferFeePercentage: rates.TransferFeePercentage,
	}

	for _, line := range lines {
		line = line.Clone()

		if override != "" {
			line.PaymentMethod = override
		}
		if !line.PaymentMethod.Valid() {
			line.PaymentMethod = models.PaymentCash
		}

		q, err := pricing.QuoteLine(line, rates)
		if err != nil {
			return models.OrderRecord{}, fmt.Errorf("line %s: %w", line.Key(), err)
		}

		switch line.PaymentMethod {
		case models.PaymentTransfer:
			order.TransferSubtotal += q.Final
		case models.PaymentCash:
			order.CashSubtotal += q.Final
		}

		order.Lines = append(order.Lines, models.OrderLine{CartLine: line, Quote: q})
	}

	order.ContentSubtotal = order.CashSubtotal + order.TransferSubtotal

	return order, nil
}

func (o *Orchestrator) validateInput(lines []models.CartLine, in Input) (Input, error) {
	in.Customer = models.CustomerInfo{
		FullName: strings.TrimSpace(in.Customer.FullName),
		IDCard:   strings.TrimSpace(in.Customer.IDCard),
		Phone:    strings.TrimSpace(in.Customer.Phone),
		Address:  strings.TrimSpace(in.Customer.Address),
	}
	in.DeliveryOption = strings.TrimSpace(in.DeliveryOption)

	fields := make(map[string]string)

	err := o.validate.Struct(form{
		FullName:       in.Customer.FullName,
		Phone:          in.Customer.Phone,
		Address:        in.Customer.Address,
		DeliveryOption: in.DeliveryOption,
		PaymentMethod:  string(in.PaymentMethod),
	})

	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		fields = fieldErrors(verrs)
	case err != nil:
		return in, fmt.Errorf("checkout: can't validate input: %w", err)
	}

	if in.DeliveryOption != "" {
		if _, ok := o.delivery.Lookup(in.DeliveryOption); !ok {
			fields[FieldDeliveryOption] = "la opción de entrega ya no está disponible"
		}
	}

	if len(lines) == 0 {
		fields[FieldCart] = "el carrito está vacío"
	}

	if len(fields) > 0 {
		return in, &ValidationError{Fields: fields}
	}

	return in, nil
}
