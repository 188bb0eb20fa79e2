// Package adminconfig хранит конфигурацию, которую меняет администратор:
// тарифы, каталог новел и зоны доставки.
//
// Конфигурация держится в памяти и сохраняется в storage.KV целиком одним
// JSON-документом. Ошибки хранилища не прерывают работу: при чтении
// используется конфигурация по умолчанию, при записи изменение остаётся в
// памяти и пишется в лог. Подписчики получают Event после каждого изменения.
package adminconfig

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"

	"github.com/YusovID/storefront/internal/models"
	"github.com/YusovID/storefront/internal/storage"
	"github.com/YusovID/storefront/lib/logger/sl"
)

const (
	DefaultKey = "admin:config"

	DefaultUser     = "administrador"
	DefaultPassword = "root"
)

var (
	ErrUnauthorized   = errors.New("adminconfig: invalid credentials")
	ErrInvalidConfig  = errors.New("adminconfig: invalid config")
	ErrNovelaNotFound = errors.New("adminconfig: novela not found")
	ErrZoneNotFound   = errors.New("adminconfig: delivery zone not found")
	ErrReservedZone   = errors.New("adminconfig: zone name is reserved")
	ErrUnavailable    = errors.New("adminconfig: storage unavailable")
)

type EventType string

const (
	EventPricing  EventType = "pricing"
	EventNovelas  EventType = "novelas"
	EventZones    EventType = "zones"
	EventImported EventType = "imported"
	EventReset    EventType = "reset"
	EventReloaded EventType = "reloaded"
)

// Event сообщает об изменении конфигурации. Origin - идентификатор
// экземпляра Store, сделавшего изменение. Remote выставляется для
// изменений, пришедших из хранилища через Reload, а не сделанных локально.
type Event struct {
	Type   EventType `json:"type"`
	At     time.Time `json:"at"`
	Origin string    `json:"origin,omitempty"`
	Remote bool      `json:"-"`
}

type Store struct {
	kv       storage.KV
	key      string
	defaults models.AdminConfig

	user     string
	password string

	origin   string
	validate *validator.Validate
	now      func() time.Time
	log      *slog.Logger

	// writeMu держится на всё изменение, записи в хранилище идут в порядке изменений
	writeMu sync.Mutex

	mu     sync.RWMutex
	cfg    models.AdminConfig
	subs   map[int]func(Event)
	nextID int
}

type Option func(*Store)

func WithCredentials(user, password string) Option {
	return func(s *Store) {
		if user != "" {
			s.user = user
		}
		if password != "" {
			s.password = password
		}
	}
}

func WithKey(key string) Option {
	return func(s *Store) {
		s.key = key
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Defaults собирает конфигурацию по умолчанию из тарифов и зон.
func Defaults(rates models.Rates, zones []models.DeliveryZone) models.AdminConfig {
	return models.AdminConfig{
		Pricing: rates,
		Novelas: []models.Novela{},
		Zones:   slices.Clone(zones),
	}
}

// New создаёт хранилище и восстанавливает сохранённую конфигурацию.
func New(ctx context.Context, kv storage.KV, defaults models.AdminConfig, log *slog.Logger, opts ...Option) *Store {
	s := &Store{
		kv:       kv,
		key:      DefaultKey,
		defaults: defaults.Clone(),
		user:     DefaultUser,
		password: DefaultPassword,
		origin:   ulid.Make().String(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
		log:      log,
		subs:     make(map[int]func(Event)),
	}

	for _, opt := range opts {
		opt(s)
	}

	cfg, err := s.load(ctx)
	if err != nil {
		cfg = s.defaults.Clone()
	}
	s.cfg = cfg

	return s
}

// Origin возвращает идентификатор экземпляра, которым помечаются его события.
func (s *Store) Origin() string {
	return s.origin
}

func (s *Store) Snapshot() models.AdminConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.cfg.Clone()
}

func (s *Store) Rates() models.Rates {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.cfg.Pricing
}

func (s *Store) Zones() []models.DeliveryZone {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.cfg.Zones)
}

func (s *Store) Novelas() []models.Novela {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.cfg.Novelas)
}

func (s *Store) Novela(id int64) (models.Novela, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.novelaIndex(id)
	if i < 0 {
		return models.Novela{}, false
	}

	return s.cfg.Novelas[i], true
}

// Login проверяет пару логин/пароль администратора.
func (s *Store) Login(user, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.user)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) == 1

	if !userOK || !passOK {
		return ErrUnauthorized
	}

	return nil
}

func (s *Store) UpdatePricing(ctx context.Context, rates models.Rates) error {
	const fn = "adminconfig.UpdatePricing"

	if err := s.validate.Struct(rates); err != nil {
		return fmt.Errorf("%s: %w: %v", fn, ErrInvalidConfig, err)
	}

	s.mutate(ctx, EventPricing, func(cfg *models.AdminConfig) {
		cfg.Pricing = rates
	})

	return nil
}

// Subscribe регистрирует обработчик изменений. Возвращаемая функция
// отменяет подписку.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		delete(s.subs, id)
	}
}

// Reload перечитывает конфигурацию из хранилища. Используется, когда
// другой экземпляр сервиса сообщил об изменении.
func (s *Store) Reload(ctx context.Context) error {
	const fn = "adminconfig.Reload"

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cfg, err := s.load(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s: %w", fn, err)
	}
	if err != nil {
		cfg = s.defaults.Clone()
	}

	s.mu.Lock()
	s.cfg = cfg
	subs := s.subscribers()
	s.mu.Unlock()

	s.notify(subs, Event{Type: EventReloaded, At: s.now().UTC(), Origin: s.origin, Remote: true})

	return nil
}

// mutate применяет изменение, сохраняет результат и оповещает подписчиков.
// Изменения выполняются по одному, поэтому в хранилище всегда попадает
// последняя версия. Подписчики не должны изменять Store.
func (s *Store) mutate(ctx context.Context, typ EventType, apply func(cfg *models.AdminConfig)) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	cfg := s.cfg.Clone()
	apply(&cfg)
	s.cfg = cfg
	subs := s.subscribers()
	s.mu.Unlock()

	s.persist(ctx, cfg)
	s.notify(subs, Event{Type: typ, At: s.now().UTC(), Origin: s.origin})
}

func (s *Store) subscribers() []func(Event) {
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	subs := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		subs = append(subs, s.subs[id])
	}

	return subs
}

func (s *Store) notify(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}

func (s *Store) persist(ctx context.Context, cfg models.AdminConfig) {
	const fn = "adminconfig.persist"

	log := s.log.With(slog.String("fn", fn))

	blob, err := json.Marshal(cfg)
	if err != nil {
		log.Error("can't marshal config", sl.Err(err))
		return
	}

	if err := s.kv.Save(ctx, s.key, blob); err != nil {
		log.Error("can't save config, keeping it in memory", sl.Err(err))
	}
}

func (s *Store) load(ctx context.Context) (models.AdminConfig, error) {
	const fn = "adminconfig.load"

	log := s.log.With(slog.String("fn", fn))

	blob, err := s.kv.Load(ctx, s.key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		log.Debug("no saved config, using defaults")
		return models.AdminConfig{}, err

	case err != nil:
		log.Error("can't load config, using defaults", sl.Err(err))
		return models.AdminConfig{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	var cfg models.AdminConfig
	if err := json.Unmarshal(blob, &cfg); err != nil {
		log.Warn("saved config is corrupt, using defaults", sl.Err(err))
		return models.AdminConfig{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return s.normalize(cfg), nil
}

// normalize отбрасывает некорректные записи из сохранённой конфигурации.
func (s *Store) normalize(cfg models.AdminConfig) models.AdminConfig {
	if s.validate.Struct(cfg.Pricing) != nil {
		cfg.Pricing = s.defaults.Pricing
	}

	novelas := make([]models.Novela, 0, len(cfg.Novelas))
	seen := make(map[int64]struct{}, len(cfg.Novelas))
	for _, n := range cfg.Novelas {
		if _, dup := seen[n.ID]; dup || n.ID <= 0 || s.validate.Struct(n) != nil {
			continue
		}
		seen[n.ID] = struct{}{}
		novelas = append(novelas, n)
	}
	cfg.Novelas = novelas

	if cfg.Zones == nil {
		cfg.Zones = slices.Clone(s.defaults.Zones)
	}

	zones := make([]models.DeliveryZone, 0, len(cfg.Zones))
	for _, z := range cfg.Zones {
		z.Name = strings.TrimSpace(z.Name)
		if s.validateZone(z) != nil || slices.ContainsFunc(zones, sameZone(z.Name)) {
			continue
		}
		zones = append(zones, z)
	}
	cfg.Zones = zones

	return cfg
}
