package app

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stakehouse/internal/audit"
	"stakehouse/internal/config"
	"stakehouse/internal/crash"
	"stakehouse/internal/db"
	"stakehouse/internal/event"
	"stakehouse/internal/jobs"
	"stakehouse/internal/ledger"
	"stakehouse/internal/logger"
	"stakehouse/internal/monitoring"
	"stakehouse/internal/payment"
	"stakehouse/internal/progressive"
	"stakehouse/internal/ratelimit"
	"stakehouse/internal/security"
	"stakehouse/internal/settle"
	"stakehouse/internal/transfer"
	"stakehouse/internal/withdraw"
	"stakehouse/internal/ws"
)

type Server struct {
	app  *fiber.App
	jobs *jobs.Manager
	cfg  *config.Config
}

func NewServer() *Server {
	cfg := config.Load()
	logger.Init()
	monitoring.Init()

	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}

	bus := event.NewBus()

	ledgerService := ledger.New(conn)
	settleService := settle.New(conn, ledgerService, bus, settle.Limits{
		MinStake: cfg.MinStake,
		MaxStake: cfg.MaxStake,
	})
	player := settle.NewInstantPlayer(settleService, settle.NewSeedManager())

	crashEngine := crash.NewEngine(settleService, bus, nil, cfg.LobbyTimeout)
	boards := progressive.NewEngine(settleService)

	provider := withdraw.NewNowPaymentsProvider(cfg.ProviderURL, cfg.ProviderKey)
	withdrawService := withdraw.New(conn, ledgerService, bus, provider, withdraw.Limits{
		Min:              cfg.WithdrawMin,
		Max:              cfg.WithdrawMax,
		AutoApproveLimit: cfg.AutoApproveLimit,
		FeePercent:       cfg.FeePercent,
		FeeMin:           cfg.FeeMin,
		FeeMax:           cfg.FeeMax,
	})

	paymentService := payment.New(conn, ledgerService, bus, cfg.IPNSecret)
	transferService := transfer.New(conn, ledgerService, bus)

	audit.Subscribe(bus, audit.New(conn))

	feed := ws.NewHub()
	ws.Subscribe(bus, feed)

	limiter := ratelimit.New(cfg.RedisAddr, cfg.RateLimitPerMin)

	app := fiber.New()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	payment.RegisterRoutes(app, paymentService)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/feed", websocket.New(feed.Handler))

	api := app.Group("/api", security.APIKeyGuard(cfg.APIKey))
	ledger.RegisterRoutes(api, ledgerService)
	withdraw.RegisterRoutes(api, withdrawService)
	transfer.RegisterRoutes(api, transferService)

	bets := api.Group("", limiter.Middleware())
	settle.RegisterRoutes(bets, player, settleService)
	crash.RegisterRoutes(bets, crashEngine)
	progressive.RegisterRoutes(bets, boards)
	registerCallback(bets, player, crashEngine, boards, withdrawService)

	admin := app.Group("/admin", security.AdminGuard(cfg.AdminToken))
	withdraw.RegisterAdminRoutes(admin, withdrawService)

	manager := jobs.New()
	manager.Register("crash-lobby-scheduler", crash.NewScheduler(crashEngine))
	manager.Register("withdraw-poller", withdraw.NewPoller(withdrawService))

	return &Server{app: app, jobs: manager, cfg: cfg}
}

func (s *Server) Start(ctx context.Context) error {
	go s.jobs.Start(ctx)
	return s.app.Listen(":" + s.cfg.Port)
}
