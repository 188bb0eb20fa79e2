package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YusovID/storefront/internal/storage"
)

func TestClient_Load(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewWithClient(db, "cart:", time.Hour)

	mock.ExpectGet("cart:s1").SetVal(`[{"item":{"id":1}}]`)

	blob, err := c.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, `[{"item":{"id":1}}]`, string(blob))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_LoadMissing(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewWithClient(db, "cart:", time.Hour)

	mock.ExpectGet("cart:s1").RedisNil()

	_, err := c.Load(context.Background(), "s1")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestClient_LoadError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewWithClient(db, "cart:", time.Hour)

	mock.ExpectGet("cart:s1").SetErr(errors.New("connection refused"))

	_, err := c.Load(context.Background(), "s1")
	require.ErrorIs(t, err, storage.ErrUnavailable)
}

func TestClient_Save(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewWithClient(db, "cart:", time.Hour)

	mock.ExpectSet("cart:s1", []byte(`[]`), time.Hour).SetVal("OK")

	require.NoError(t, c.Save(context.Background(), "s1", []byte(`[]`)))
	require.NoError(t, mock.ExpectationsWereMet())
}
