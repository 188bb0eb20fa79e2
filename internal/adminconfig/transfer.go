package adminconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/YusovID/storefront/internal/models"
)

const ExportVersion = "1.0"

// Document - формат файла экспорта конфигурации.
type Document struct {
	Config     models.AdminConfig `json:"config"`
	ExportDate time.Time          `json:"exportDate"`
	Version    string             `json:"version"`
}

// Export возвращает текущую конфигурацию в формате Document.
func (s *Store) Export() ([]byte, error) {
	const fn = "adminconfig.Export"

	doc := Document{
		Config:     s.Snapshot(),
		ExportDate: s.now().UTC(),
		Version:    ExportVersion,
	}

	blob, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%s: %v", fn, err)
	}

	return blob, nil
}

// Import заменяет конфигурацию содержимым документа экспорта. Документ
// без config.pricing или config.novelas отклоняется. Если в документе нет
// зон доставки, текущие зоны сохраняются.
func (s *Store) Import(ctx context.Context, blob []byte) error {
	const fn = "adminconfig.Import"

	var raw struct {
		Config *struct {
			Pricing json.RawMessage `json:"pricing"`
			Novelas json.RawMessage `json:"novelas"`
			Zones   json.RawMessage `json:"zones"`
		} `json:"config"`
	}

	if err := json.Unmarshal(blob, &raw); err != nil {
		return fmt.Errorf("%s: %w: %v", fn, ErrInvalidConfig, err)
	}

	if raw.Config == nil || isNull(raw.Config.Pricing) || isNull(raw.Config.Novelas) {
		return fmt.Errorf("%s: %w: config.pricing and config.novelas are required", fn, ErrInvalidConfig)
	}

	var cfg models.AdminConfig
	if err := json.Unmarshal(raw.Config.Pricing, &cfg.Pricing); err != nil {
		return fmt.Errorf("%s: %w: pricing: %v", fn, ErrInvalidConfig, err)
	}
	if err := json.Unmarshal(raw.Config.Novelas, &cfg.Novelas); err != nil {
		return fmt.Errorf("%s: %w: novelas: %v", fn, ErrInvalidConfig, err)
	}

	if isNull(raw.Config.Zones) {
		cfg.Zones = s.Zones()
	} else if err := json.Unmarshal(raw.Config.Zones, &cfg.Zones); err != nil {
		return fmt.Errorf("%s: %w: zones: %v", fn, ErrInvalidConfig, err)
	}

	if err := s.validate.Struct(cfg.Pricing); err != nil {
		return fmt.Errorf("%s: %w: pricing: %v", fn, ErrInvalidConfig, err)
	}

	cfg = s.normalize(cfg)

	s.mutate(ctx, EventImported, func(current *models.AdminConfig) {
		*current = cfg
	})

	return nil
}

// Reset возвращает конфигурацию по умолчанию.
func (s *Store) Reset(ctx context.Context) {
	defaults := s.defaults.Clone()

	s.mutate(ctx, EventReset, func(cfg *models.AdminConfig) {
		*cfg = defaults
	})
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
