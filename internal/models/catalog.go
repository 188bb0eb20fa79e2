package models

import (
	"fmt"
	"strconv"
	"strings"
)

type Kind string

const (
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
	KindNovela Kind = "novela"
)

func (k Kind) Valid() bool {
	switch k {
	case KindMovie, KindSeries, KindNovela:
		return true
	default:
		return false
	}
}

// Label - название типа для покупателя.
func (k Kind) Label() string {
	switch k {
	case KindMovie:
		return "Película"
	case KindSeries:
		return "Serie"
	case KindNovela:
		return "Novela"
	default:
		return string(k)
	}
}

// ParseKind принимает "tv" как синоним сериала, так его называет поставщик каталога.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie":
		return KindMovie, nil
	case "series", "tv":
		return KindSeries, nil
	case "novela":
		return KindNovela, nil
	default:
		return "", fmt.Errorf("unknown content kind %q", s)
	}
}

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentTransfer PaymentMethod = "transfer"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentTransfer
}

func (m PaymentMethod) Label() string {
	if m == PaymentTransfer {
		return "Transferencia"
	}

	return "Efectivo"
}

type CatalogItemRef struct {
	ID    int64  `json:"id" validate:"required,gt=0"`
	Kind  Kind   `json:"kind" validate:"required,oneof=movie series novela"`
	Title string `json:"title" validate:"required"`
}

// LineKey идентифицирует позицию корзины. Позиции с одинаковым ключом совпадают.
type LineKey struct {
	Kind Kind
	ID   int64
}

func (k LineKey) String() string {
	return string(k.Kind) + "-" + strconv.FormatInt(k.ID, 10)
}

func (r CatalogItemRef) Key() LineKey {
	return LineKey{Kind: r.Kind, ID: r.ID}
}
