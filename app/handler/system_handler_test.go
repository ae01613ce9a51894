package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"hybridmcp/internal/plugin"
	"hybridmcp/internal/plugin/plugintest"
	"hybridmcp/pkg/config"
	redisstore "hybridmcp/pkg/store/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthOf(t *testing.T, h *SystemHandler) HealthResponse {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/health", h.Health)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealth_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	h := NewSystemHandler(config.Default(), plugintest.NewClient(), plugin.NewRegistry(), "test")

	resp := healthOf(t, h)
	assert.Nil(t, resp.RedisStatus)
	assert.Equal(t, "healthy", resp.Status)

	h.SetRedis(redisstore.NewRedisClientFrom(client))
	resp = healthOf(t, h)
	require.NotNil(t, resp.RedisStatus)
	assert.True(t, *resp.RedisStatus)
	assert.Equal(t, "healthy", resp.Status)

	mr.Close()
	resp = healthOf(t, h)
	require.NotNil(t, resp.RedisStatus)
	assert.False(t, *resp.RedisStatus)
	assert.Equal(t, "degraded", resp.Status)
}
