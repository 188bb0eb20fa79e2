package models

import "slices"

type Rates struct {
	MoviePrice            int64 `json:"movie_price" yaml:"movie_price" env-default:"80" validate:"gte=0"`
	SeriesPricePerSeason  int64 `json:"series_price" yaml:"series_price" env-default:"300" validate:"gte=0"`
	NovelPricePerChapter  int64 `json:"novel_price_per_chapter" yaml:"novel_price_per_chapter" env-default:"5" validate:"gte=0"`
	TransferFeePercentage int64 `json:"transfer_fee_percentage" yaml:"transfer_fee_percentage" env-default:"10" validate:"gte=0"`
}

func DefaultRates() Rates {
	return Rates{
		MoviePrice:            80,
		SeriesPricePerSeason:  300,
		NovelPricePerChapter:  5,
		TransferFeePercentage: 10,
	}
}

const (
	NovelaStatusFinished     = "finalizada"
	NovelaStatusBroadcasting = "transmision"
)

type Novela struct {
	ID          int64  `json:"id"`
	Title       string `json:"title" validate:"required"`
	Genre       string `json:"genre"`
	Chapters    int    `json:"chapters" validate:"gt=0"`
	Year        int    `json:"year"`
	Country     string `json:"country"`
	Status      string `json:"status" validate:"omitempty,oneof=finalizada transmision"`
	Description string `json:"description,omitempty"`
}

type DeliveryZone struct {
	Name string `json:"name" yaml:"name" validate:"required"`
	Cost int64  `json:"cost" yaml:"cost" validate:"gte=0"`
}

type AdminConfig struct {
	Pricing Rates          `json:"pricing"`
	Novelas []Novela       `json:"novelas"`
	Zones   []DeliveryZone `json:"zones"`
}

func (c AdminConfig) Clone() AdminConfig {
	return AdminConfig{
		Pricing: c.Pricing,
		Novelas: slices.Clone(c.Novelas),
		Zones:   slices.Clone(c.Zones),
	}
}
