package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/contact"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/search"
	"github.com/xenking/storefront/internal/domain/visitor"
	"github.com/xenking/storefront/internal/handler"
	"github.com/xenking/storefront/internal/notify"
	"github.com/xenking/storefront/internal/storage/postgres"
	"github.com/xenking/storefront/pkg/health"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories.
	catalogRepo := postgres.NewCatalogRepository(pool)
	cartRepo := postgres.NewCartRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	visitorRepo := postgres.NewVisitorRepository(pool)
	searchRepo := postgres.NewSearchRepository(pool)
	contactRepo := postgres.NewContactRepository(pool)

	// Order announcements.
	dispatcher, err := notify.NewDispatcher(newSender(lg, cfg.Notify), notify.DispatcherConfig{
		Currency: currencySuffix(cfg.Notify.Currency),
		AdminURL: cfg.Notify.AdminURL,
		Timeout:  cfg.Notify.Timeout,
	}, m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "create notification dispatcher")
	}

	// Domain services.
	orderService, err := order.NewService(orderRepo, dispatcher, m.TracerProvider(), m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "create order service")
	}
	visitorService := visitor.NewService(visitorRepo, catalogRepo, visitor.DedupeConfig{
		Capacity:          cfg.Views.Capacity,
		FalsePositiveRate: cfg.Views.FalsePositiveRate,
	})

	h := handler.New(
		handler.Config{MediaBaseURL: cfg.MediaBaseURL},
		catalogRepo,
		visitorService,
		cart.NewService(cartRepo),
		orderService,
		search.NewService(searchRepo),
		contact.NewService(contactRepo),
	)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.RequestID(),
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			Origins:          cfg.CORS.Origins,
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
		httpmiddleware.Labeler(),
		httpmiddleware.LogRequests(),
	)
	engine.GET("/livez", healthSvc.Live)
	engine.GET("/readyz", healthSvc.Ready)
	h.Register(engine)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           httpmiddleware.Instrument("storefront-api", engine, m.TracerProvider(), m.MeterProvider()),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		if err := dispatcher.Close(shutdownCtx); err != nil {
			lg.Warn("Pending order notifications abandoned", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// newSender selects the Telegram channel when a bot token is configured and
// the log otherwise.
func newSender(lg *zap.Logger, cfg NotifyConfig) notify.Sender {
	if cfg.BotToken == "" {
		lg.Warn("Notify bot token is not set, order notifications go to the log")
		return notify.LogSender{}
	}
	return notify.NewTelegramSender(cfg.BotToken, cfg.ChatID, cfg.Endpoint, &http.Client{
		Timeout: cfg.Timeout,
	})
}

func currencySuffix(currency string) string {
	if currency == "" {
		return ""
	}
	return " " + currency
}
