package main

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/wanqqq29/monopoly-bank/internal/admin"
	"github.com/wanqqq29/monopoly-bank/internal/auth"
	apphttp "github.com/wanqqq29/monopoly-bank/internal/http"
	"github.com/wanqqq29/monopoly-bank/internal/ledger"
	"github.com/wanqqq29/monopoly-bank/internal/nfc"
	"github.com/wanqqq29/monopoly-bank/internal/reports"
	"github.com/wanqqq29/monopoly-bank/internal/router"
	"github.com/wanqqq29/monopoly-bank/internal/session"
	"github.com/wanqqq29/monopoly-bank/internal/store"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if strings.TrimSpace(os.Getenv("JWT_SECRET")) == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	ctx := context.Background()

	st, pool := buildStore(ctx, logger)
	if pool != nil {
		defer pool.Close()
	}

	bank, err := ledger.New(ctx, st)
	if err != nil {
		logger.Fatal("could not restore ledger", zap.Error(err))
	}
	logger.Info("ledger restored", zap.Int("cards", bank.Count()))

	dev := buildDevice(logger)
	gate, err := nfc.NewGate(ctx, dev)
	if err != nil {
		logger.Fatal("could not initialize nfc transport", zap.Error(err))
	}
	cardSession := session.New(gate, bank, logger)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "internal server error"

			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				code = fiberErr.Code
				message = fiberErr.Message
			}

			return c.Status(code).JSON(fiber.Map{"error": message})
		},
	})

	app.Use(router.CorsMiddleware())
	app.Use(requestLogger(logger))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	r := &router.Router{
		AuthHandler:    &apphttp.AuthHandler{Log: logger},
		CardsHandler:   &apphttp.CardsHandler{Ledger: bank, Pool: pool, Log: logger},
		NFCHandler:     &apphttp.NFCHandler{Session: cardSession, Log: logger},
		AdminHandler:   admin.NewHandler(bank, pool, logger),
		ReportsHandler: reports.NewHandler(bank),
		AuthMW:         auth.Middleware(),
	}
	r.RegisterRoutes(app)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info("listening", zap.String("port", port))
	if err := app.Listen(":" + port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// buildStore picks the persisted-store backend from STORE_BACKEND. The
// returned pool is non-nil only for Postgres, where it doubles as the audit
// log sink.
func buildStore(ctx context.Context, logger *zap.Logger) (store.Store, *pgxpool.Pool) {
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_BACKEND")))
	switch backend {
	case "", "file":
		dir := strings.TrimSpace(os.Getenv("STORE_DIR"))
		if dir == "" {
			dir = "data"
		}
		st, err := store.NewFile(dir)
		if err != nil {
			logger.Fatal("could not open file store", zap.String("dir", dir), zap.Error(err))
		}
		logger.Info("using file store", zap.String("dir", dir))
		return st, nil

	case "postgres":
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			logger.Fatal("DATABASE_URL is not set")
		}
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			logger.Fatal("could not create pgx pool", zap.Error(err))
		}
		if err := pool.Ping(ctx); err != nil {
			logger.Fatal("could not ping database", zap.Error(err))
		}
		logger.Info("using postgres store")
		return store.NewPostgres(pool), pool

	case "redis":
		addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
		if addr == "" {
			addr = "localhost:6379"
		}
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASS"),
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatal("could not ping redis", zap.String("addr", addr), zap.Error(err))
		}
		logger.Info("using redis store", zap.String("addr", addr))
		return store.NewRedis(client), nil

	case "memory":
		logger.Warn("using in-memory store, game state is lost on exit")
		return store.NewMemory(), nil

	default:
		logger.Fatal("unknown STORE_BACKEND", zap.String("backend", backend))
		return nil, nil
	}
}

// buildDevice wires the proximity reader. The real driver plugs in behind
// nfc.Device; the simulated device keeps the service fully usable on a
// laptop without a reader (taps injected through the UI's dev tools).
func buildDevice(logger *zap.Logger) nfc.Device {
	kind := strings.ToLower(strings.TrimSpace(os.Getenv("NFC_DEVICE")))
	switch kind {
	case "", "sim":
		logger.Info("using simulated nfc device")
		return nfc.NewSimDevice()
	default:
		logger.Fatal("unknown NFC_DEVICE", zap.String("device", kind))
		return nil
	}
}

func requestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Info("request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("took", time.Since(start)),
		)
		return err
	}
}
