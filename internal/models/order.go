package models

import "time"

const PickupOption = "pickup"

type DeliveryOption struct {
	Name   string `json:"name"`
	Cost   int64  `json:"cost"`
	Pickup bool   `json:"pickup"`
}

type CustomerInfo struct {
	FullName string `json:"full_name"`
	IDCard   string `json:"id_card,omitempty"`
	Phone    string `json:"phone"`
	Address  string `json:"address,omitempty"`
}

type OrderLine struct {
	CartLine
	Quote PriceQuote `json:"quote"`
}

// OrderRecord - неизменяемый результат одного оформления заказа.
type OrderRecord struct {
	OrderID   string    `json:"order_id"`
	CreatedAt time.Time `json:"created_at"`

	Customer       CustomerInfo   `json:"customer"`
	DeliveryOption DeliveryOption `json:"delivery_option"`
	DeliveryCost   int64          `json:"delivery_cost"`

	Lines []OrderLine `json:"lines"`

	TransferFeePercentage int64 `json:"transfer_fee_percentage"`
	CashSubtotal          int64 `json:"cash_subtotal"`
	TransferSubtotal      int64 `json:"transfer_subtotal"`
	ContentSubtotal       int64 `json:"content_subtotal"`
	GrandTotal            int64 `json:"grand_total"`
}
