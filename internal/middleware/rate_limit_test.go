package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRateLimitPerMinute(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	app := fiber.New()
	app.Use(RateLimit(cache, 2))
	app.Post("/op", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/op", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	do := func(method string) int {
		resp, err := app.Test(httptest.NewRequest(method, "/op", nil))
		require.NoError(t, err)
		return resp.StatusCode
	}

	require.Equal(t, fiber.StatusOK, do(fiber.MethodPost))
	require.Equal(t, fiber.StatusOK, do(fiber.MethodPost))
	require.Equal(t, fiber.StatusTooManyRequests, do(fiber.MethodPost))
	require.Equal(t, fiber.StatusOK, do(fiber.MethodGet))

	mr.FastForward(61 * time.Second)
	require.Equal(t, fiber.StatusOK, do(fiber.MethodPost))
}

func TestRateLimitWithoutCacheIsNoop(t *testing.T) {
	app := fiber.New()
	app.Use(RateLimit(nil, 1))
	app.Post("/op", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/op", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}
