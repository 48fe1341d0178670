package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/omnibus/internal/allowlist"
	"github.com/congo-pay/omnibus/internal/api"
	"github.com/congo-pay/omnibus/internal/auth"
	"github.com/congo-pay/omnibus/internal/config"
	"github.com/congo-pay/omnibus/internal/middleware"
	"github.com/congo-pay/omnibus/internal/omnibus"
	"github.com/congo-pay/omnibus/internal/record"
	"github.com/congo-pay/omnibus/internal/store"
	"github.com/congo-pay/omnibus/internal/store/memory"
	"github.com/congo-pay/omnibus/internal/store/postgres"
)

const (
	ledgerBook    = "omnibus"
	allowListBook = "allowlist"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	ledgerStore, allowStore := stores(d.DB)
	emitter := emitters(d)

	ledger := omnibus.New(d.Cfg.Admin, ledgerStore, omnibus.WithEmitter(emitter), omnibus.WithLogger(d.Logger))
	allow := allowlist.New(d.Cfg.Admin, allowStore, allowlist.WithEmitter(emitter), allowlist.WithLogger(d.Logger))
	handler := api.NewHandler(ledger, allow, d.Logger)

	v1 := app.Group("/api/v1")
	v1.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"admin":      d.Cfg.Admin,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	tokens := auth.NewService(d.Cfg.JWTSecret, d.Cfg.TokenTTL)
	protected := v1.Group("", middleware.Caller(tokens), middleware.RateLimit(d.Cache, d.Cfg.RateLimitPerMinute))
	if d.Cache != nil {
		protected.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}
	handler.Register(protected)

	return nil
}

func stores(db *pgxpool.Pool) (store.Store, store.Store) {
	if db != nil {
		return postgres.New(db, ledgerBook), postgres.New(db, allowListBook)
	}
	return memory.New(), memory.New()
}

func emitters(d Deps) record.Emitter {
	out := record.Fanout{record.NewLogEmitter(d.Logger)}
	if d.Cache != nil && d.Cfg.RecordStream != "" {
		out = append(out, record.NewStreamEmitter(d.Cache, d.Cfg.RecordStream, d.Cfg.RecordStreamMaxLen))
	}
	return out
}
