package adminconfig

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/YusovID/storefront/internal/delivery"
	"github.com/YusovID/storefront/internal/models"
)

// PutZone добавляет зону доставки или меняет стоимость существующей.
func (s *Store) PutZone(ctx context.Context, zone models.DeliveryZone) error {
	const fn = "adminconfig.PutZone"

	zone.Name = strings.TrimSpace(zone.Name)

	if err := s.validateZone(zone); err != nil {
		return fmt.Errorf("%s: %w", fn, err)
	}

	s.mutate(ctx, EventZones, func(cfg *models.AdminConfig) {
		if i := slices.IndexFunc(cfg.Zones, sameZone(zone.Name)); i >= 0 {
			cfg.Zones[i] = zone
			return
		}

		cfg.Zones = append(cfg.Zones, zone)
	})

	return nil
}

func (s *Store) DeleteZone(ctx context.Context, name string) error {
	const fn = "adminconfig.DeleteZone"

	name = strings.TrimSpace(name)

	s.mu.RLock()
	exists := slices.ContainsFunc(s.cfg.Zones, sameZone(name))
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%s: %w: %q", fn, ErrZoneNotFound, name)
	}

	s.mutate(ctx, EventZones, func(cfg *models.AdminConfig) {
		cfg.Zones = slices.DeleteFunc(cfg.Zones, sameZone(name))
	})

	return nil
}

func (s *Store) validateZone(zone models.DeliveryZone) error {
	if delivery.IsPickup(zone.Name) {
		return fmt.Errorf("%w: %q", ErrReservedZone, zone.Name)
	}

	if err := s.validate.Struct(zone); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return nil
}

func sameZone(name string) func(models.DeliveryZone) bool {
	return func(z models.DeliveryZone) bool {
		return z.Name == name
	}
}
