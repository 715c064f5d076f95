// internal/common/database/database_test.go
package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"line-parking-bot/internal/common/config"
)

func TestNewRedis_Ping(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()))
}

func TestNewRedis_EmptyAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}

func TestNewRedis_PingFailure(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	client, err := NewRedis(config.RedisConfig{Address: addr})
	require.NoError(t, err)
	defer client.Close()

	assert.Error(t, client.Ping(context.Background()))
}

func TestNewPostgres_DSN(t *testing.T) {
	cfg := config.PostgresConfig{
		Host: "localhost", Port: 5432, Database: "bot", User: "u", Password: "p",
		SSLMode: "disable", MaxConnections: 2, MaxIdle: 1,
	}
	assert.Equal(t, "host=localhost port=5432 user=u password=p dbname=bot sslmode=disable", cfg.GetDSN())

	client, err := NewPostgres(cfg)
	require.NoError(t, err)
	assert.NoError(t, client.Close())
}

func TestClose_NilSafe(t *testing.T) {
	var r *RedisClient
	var p *PostgresClient
	assert.NoError(t, r.Close())
	assert.NoError(t, p.Close())
}
