// Package delivery перечисляет варианты доставки и их фиксированную
// стоимость. Зоны читаются из источника при каждом вызове: администратор
// может изменить их в любой момент.
package delivery

import (
	"strings"

	"github.com/YusovID/storefront/internal/models"
)

type ZoneSource interface {
	Zones() []models.DeliveryZone
}

type ZonesFunc func() []models.DeliveryZone

func (f ZonesFunc) Zones() []models.DeliveryZone {
	return f()
}

type Catalog struct {
	src ZoneSource
}

func New(src ZoneSource) *Catalog {
	return &Catalog{src: src}
}

func Pickup() models.DeliveryOption {
	return models.DeliveryOption{Name: models.PickupOption, Cost: 0, Pickup: true}
}

// ListOptions возвращает самовывоз, затем зоны в порядке конфигурации.
// Зоны с именем самовывоза или с повторным именем пропускаются.
func (c *Catalog) ListOptions() []models.DeliveryOption {
	zones := c.src.Zones()

	options := make([]models.DeliveryOption, 0, len(zones)+1)
	options = append(options, Pickup())

	seen := map[string]struct{}{models.PickupOption: {}}

	for _, z := range zones {
		name := strings.TrimSpace(z.Name)
		if name == "" || z.Cost < 0 {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		options = append(options, models.DeliveryOption{Name: name, Cost: z.Cost})
	}

	return options
}

// Lookup ищет вариант по имени.
func (c *Catalog) Lookup(name string) (models.DeliveryOption, bool) {
	name = strings.TrimSpace(name)

	for _, o := range c.ListOptions() {
		if o.Name == name {
			return o, true
		}
	}

	return models.DeliveryOption{}, false
}

// CostOf возвращает стоимость зоны. Для самовывоза и неизвестных имён - 0.
func (c *Catalog) CostOf(name string) int64 {
	o, ok := c.Lookup(name)
	if !ok {
		return 0
	}

	return o.Cost
}

func IsPickup(name string) bool {
	return strings.TrimSpace(name) == models.PickupOption
}
