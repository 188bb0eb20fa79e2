// Package redis реализует хранилище снапшотов корзин поверх Redis.
// Каждая корзина хранится как JSON-строка под ключом сессии и живёт
// не дольше настроенного TTL, после чего покупатель начинает с пустой корзиной.
package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/YusovID/storefront/internal/config"
	"github.com/YusovID/storefront/internal/storage"
)

// Client является обёрткой над `redis.Client` с префиксом ключей и TTL.
type Client struct {
	*redis.Client
	prefix string
	ttl    time.Duration
}

// New создаёт клиента и проверяет соединение командой PING.
func New(ctx context.Context, cfg config.Redis) (*Client, error) {
	address := net.JoinHostPort(cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("can't ping redis: %v", err)
	}

	return NewWithClient(client, cfg.KeyPrefix, cfg.CartTTL), nil
}

func NewWithClient(client *redis.Client, prefix string, ttl time.Duration) *Client {
	return &Client{
		Client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Load возвращает снапшот по ключу. Отсутствие ключа (`redis.Nil`)
// превращается в доменную ошибку `storage.ErrNotFound`.
func (c *Client) Load(ctx context.Context, key string) ([]byte, error) {
	const fn = "storage.redis.Load"

	blob, err := c.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: can't get key: %w: %v", fn, storage.ErrUnavailable, err)
	}

	return blob, nil
}

// Save перезаписывает снапшот целиком и продлевает TTL.
func (c *Client) Save(ctx context.Context, key string, blob []byte) error {
	const fn = "storage.redis.Save"

	if err := c.Set(ctx, c.prefix+key, blob, c.ttl).Err(); err != nil {
		return fmt.Errorf("%s: can't set key: %w: %v", fn, storage.ErrUnavailable, err)
	}

	return nil
}
