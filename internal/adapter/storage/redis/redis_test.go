package redis

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"fintech-ledger/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientOptions(t *testing.T) {
	opts := clientOptions(config.RedisConfig{
		Host:        "redis.example.com",
		Port:        6380,
		Password:    "secret",
		DB:          2,
		PoolSize:    25,
		DialTimeout: 2 * time.Second,
	})

	assert.Equal(t, "redis.example.com:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 25, opts.PoolSize)
	assert.Equal(t, 2*time.Second, opts.DialTimeout)
}

func TestClientOptions_ZeroKeepsDefaults(t *testing.T) {
	opts := clientOptions(config.RedisConfig{Host: "localhost", Port: 6379})

	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Zero(t, opts.PoolSize)
	assert.Zero(t, opts.DialTimeout)
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)
	host, portStr, ok := strings.Cut(mr.Addr(), ":")
	require.True(t, ok)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	client, err := NewClient(context.Background(), config.RedisConfig{Host: host, Port: port}, zerolog.Nop())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	mr.CheckGet(t, "k", "v")
}

func TestNewClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	host, portStr, _ := strings.Cut(mr.Addr(), ":")
	port, _ := strconv.Atoi(portStr)
	mr.Close()

	_, err := NewClient(context.Background(), config.RedisConfig{
		Host:        host,
		Port:        port,
		DialTimeout: 200 * time.Millisecond,
	}, zerolog.Nop())
	assert.ErrorContains(t, err, "pinging redis")
}
