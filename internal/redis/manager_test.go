package redis_test

import (
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/clawtake/clawtake/internal/redis"
	"github.com/clawtake/clawtake/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestManagerGetClient(t *testing.T) {
	t.Parallel()

	server := miniredis.RunT(t)
	port, err := strconv.Atoi(server.Port())
	require.NoError(t, err)

	manager := redis.NewManager(&config.Redis{Host: server.Host(), Port: port}, zap.NewNop())
	t.Cleanup(manager.Close)

	client, err := manager.GetClient(redis.RatelimitDBIndex)
	require.NoError(t, err)

	again, err := manager.GetClient(redis.RatelimitDBIndex)
	require.NoError(t, err)
	assert.Same(t, client, again)

	require.NoError(t, client.Do(t.Context(), client.B().Set().Key("k").Value("v").Build()).Error())

	value, err := server.DB(redis.RatelimitDBIndex).Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)
}

func TestManagerGetClientUnreachable(t *testing.T) {
	t.Parallel()

	manager := redis.NewManager(&config.Redis{Host: "127.0.0.1", Port: 1}, zap.NewNop())

	_, err := manager.GetClient(redis.RatelimitDBIndex)
	require.Error(t, err)
}
