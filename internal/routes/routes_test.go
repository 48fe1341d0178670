package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/omnibus/internal/address"
	"github.com/congo-pay/omnibus/internal/auth"
	"github.com/congo-pay/omnibus/internal/config"
	"github.com/congo-pay/omnibus/internal/logging"
)

var admin = address.MustParse("0x00000000000000000000000000000000000000f0")

func testConfig() config.Config {
	return config.Config{
		AppName:            "omnibus-test",
		AppEnv:             "test",
		Admin:              admin,
		JWTSecret:          "test-secret",
		TokenTTL:           time.Hour,
		IdempotencyTTL:     time.Minute,
		RecordStream:       "omnibus:records",
		RateLimitPerMinute: 100,
	}
}

func TestSetupRequiresBackendsOutsideDev(t *testing.T) {
	cfg := testConfig()
	cfg.AppEnv = "production"
	err := Setup(fiber.New(), Deps{Cfg: cfg, Logger: logging.Discard()})
	require.Error(t, err)
}

func TestHealthWithoutBackends(t *testing.T) {
	app := fiber.New()
	require.NoError(t, Setup(app, Deps{Cfg: testConfig(), Logger: logging.Discard()}))

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Status map[string]string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "disabled", body.Status["postgres"])
	require.Equal(t, "disabled", body.Status["redis"])
}

func TestRecordsReachStream(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	cfg := testConfig()
	app := fiber.New()
	require.NoError(t, Setup(app, Deps{Cfg: cfg, Cache: cache, Logger: logging.Discard()}))

	token, _, err := auth.NewService(cfg.JWTSecret, cfg.TokenTTL).Issue(admin)
	require.NoError(t, err)

	body, err := json.Marshal(fiber.Map{"account": admin, "asset": admin, "amount": 10})
	require.NoError(t, err)
	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/ledger/balances", bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	req.Header.Set("Idempotency-Key", "seed-1")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	msgs, err := cache.XRange(context.Background(), cfg.RecordStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "RegisterToken", msgs[0].Values["name"])
}
