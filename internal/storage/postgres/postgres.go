package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/YusovID/storefront/internal/config"
	"github.com/YusovID/storefront/internal/storage"
)

const table = "kv_store"

type Storage struct {
	db *sqlx.DB
	qb sq.StatementBuilderType
}

func New(cfg config.Postgres, log *slog.Logger) (*Storage, error) {
	const fn = "storage.postgres.New"
	log = log.With("fn", fn)

	log.Info("starting storage initialization...")

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Username,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
	)

	// open database
	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("%s: can't open database: %v", fn, err)
	}

	// check if we can connect to database
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("%s: can't connect to database: %v", fn, err)
	}

	return NewWithDB(db), nil
}

func NewWithDB(db *sqlx.DB) *Storage {
	return &Storage{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (s *Storage) Load(ctx context.Context, key string) ([]byte, error) {
	const fn = "storage.postgres.Load"

	query, args, err := s.qb.Select("value").From(table).Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build query: %v", fn, err)
	}

	var blob []byte
	if err := s.db.GetContext(ctx, &blob, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("%s: can't select value: %w: %v", fn, storage.ErrUnavailable, err)
	}

	return blob, nil
}

func (s *Storage) Save(ctx context.Context, key string, blob []byte) error {
	const fn = "storage.postgres.Save"

	query, args, err := s.qb.Insert(table).
		Columns("key", "value", "updated_at").
		Values(key, blob, sq.Expr("now()")).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: can't build query: %v", fn, err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: can't upsert value: %w: %v", fn, storage.ErrUnavailable, err)
	}

	return nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}
