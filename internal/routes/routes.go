package routes

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/parcelflow/parcelflow/internal/address"
	"github.com/parcelflow/parcelflow/internal/admin"
	"github.com/parcelflow/parcelflow/internal/auth"
	"github.com/parcelflow/parcelflow/internal/config"
	"github.com/parcelflow/parcelflow/internal/dashboard"
	"github.com/parcelflow/parcelflow/internal/identity"
	"github.com/parcelflow/parcelflow/internal/ledger"
	"github.com/parcelflow/parcelflow/internal/middleware"
	"github.com/parcelflow/parcelflow/internal/paystack"
	"github.com/parcelflow/parcelflow/internal/reconcile"
	"github.com/parcelflow/parcelflow/internal/shipment"
	"github.com/parcelflow/parcelflow/internal/terminal"
	"github.com/parcelflow/parcelflow/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger

	// Carrier and Gateway allow tests to substitute fakes. When nil, real
	// clients are built from Cfg.
	Carrier terminal.API
	Gateway paystack.Gateway
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !isDev(d.Cfg.AppEnv) {
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
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	carrier := d.Carrier
	if carrier == nil {
		carrier = terminal.NewClient(terminal.Config{
			SecretKey: d.Cfg.TerminalSecretKey,
			BaseURL:   d.Cfg.TerminalBaseURL,
			Timeout:   d.Cfg.UpstreamTimeout,
		})
	}
	gateway := d.Gateway
	if gateway == nil {
		gateway = paystack.NewClient(paystack.Config{
			SecretKey: d.Cfg.PaystackSecretKey,
			BaseURL:   d.Cfg.PaystackBaseURL,
			Timeout:   d.Cfg.UpstreamTimeout,
		})
	}
	recorder := reconcile.NewLoggerRecorder(d.Logger)

	var ledgerBackend ledger.Ledger
	var identityRepo identity.Repository
	var shipmentRepo shipment.Repository
	var addressRepo address.Repository
	if d.DB != nil {
		ledgerBackend = ledger.NewPostgresLedger(d.DB)
		identityRepo = identity.NewPostgresRepository(d.DB)
		shipmentRepo = shipment.NewPostgresRepository(d.DB)
		addressRepo = address.NewPostgresRepository(d.DB)
	} else {
		ledgerBackend = ledger.NewInMemory()
		identityRepo = identity.NewMemoryRepository()
		shipmentRepo = shipment.NewMemoryRepository()
		addressRepo = address.NewMemoryRepository()
	}

	identitySvc := identity.NewService(identityRepo)
	tokenSvc := auth.NewService(d.Cfg.JWTSecret, d.Cfg.AccessTokenTTL)
	shipmentSvc := shipment.NewService(shipmentRepo, ledgerBackend, carrier, recorder, d.Logger)
	addressSvc := address.NewService(addressRepo, carrier, recorder, d.Logger)
	walletSvc := wallet.NewService(ledgerBackend, gateway, identityRepo, d.Cfg.FrontendURL, d.Logger)
	dashboardSvc := dashboard.NewService(shipmentRepo, ledgerBackend)
	adminSvc := admin.NewService(identityRepo, identitySvc, shipmentRepo, ledgerBackend)

	authHandler := auth.NewHandler(identitySvc, tokenSvc, ledgerBackend)
	shipmentHandler := shipment.NewHandler(shipmentSvc)
	addressHandler := address.NewHandler(addressSvc)
	walletHandler := wallet.NewHandler(walletSvc)
	dashboardHandler := dashboard.NewHandler(dashboardSvc)
	adminHandler := admin.NewHandler(adminSvc)

	api := app.Group("/api")

	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, rateLimiter)

	jwtmw := middleware.JWTAuth(tokenSvc, identityRepo)
	protected := api.Group("", jwtmw)
	protected.Get("/me", authHandler.Me)

	RegisterShipmentRoutes(protected, shipmentHandler)
	RegisterWalletRoutes(protected, walletHandler)
	RegisterAddressRoutes(protected, addressHandler)
	RegisterCarrierRoutes(protected, carrier)
	RegisterDashboardRoutes(protected, dashboardHandler)

	adminGroup := protected.Group("/admin", middleware.RequireAdmin())
	RegisterAdminRoutes(adminGroup, adminHandler)

	return nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}
