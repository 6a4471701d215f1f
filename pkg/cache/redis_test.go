package cache

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/election-survey-api/pkg/config"
)

func TestNewRedisDisabled(t *testing.T) {
	client, err := NewRedis(context.Background(), config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewRedisPings(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedis(context.Background(), config.RedisConfig{
		Enabled: true,
		Host:    mr.Host(),
		Port:    mustPort(t, mr.Port()),
	})
	require.NoError(t, err)
	require.NotNil(t, client)
	defer client.Close()
}

func TestNewRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	port := mustPort(t, mr.Port())
	mr.Close()

	client, err := NewRedis(context.Background(), config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: port})
	assert.Nil(t, client)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
}

func mustPort(t *testing.T, raw string) int {
	t.Helper()
	port, err := strconv.Atoi(raw)
	require.NoError(t, err)
	return port
}
