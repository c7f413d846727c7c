package redis

import (
	"context"
	"strconv"
	"testing"

	"vertax/config"
	"vertax/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	s := miniredis.RunT(t)
	port, err := strconv.Atoi(s.Port())
	require.NoError(t, err)

	cfg := config.RedisConfig{Host: s.Host(), Port: port}
	client, err := NewClient(context.Background(), cfg, logger.New("error", false))
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
}

func TestNewClient_Unreachable(t *testing.T) {
	s := miniredis.RunT(t)
	port, _ := strconv.Atoi(s.Port())
	s.Close()

	cfg := config.RedisConfig{Host: "127.0.0.1", Port: port}
	_, err := NewClient(context.Background(), cfg, logger.New("error", false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connecting report cache")
}

func TestHealthCheck(t *testing.T) {
	_, client := setupMiniredis(t)

	hc := NewHealthCheck(client)
	assert.Equal(t, "report_cache", hc.Name())
	assert.NoError(t, hc.Ping(context.Background()))
}

func TestHealthCheck_Down(t *testing.T) {
	s, client := setupMiniredis(t)
	s.Close()

	err := NewHealthCheck(client).Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report cache")
}
