// Package web assembles the fiber application serving the shop api.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	mysqlstorage "github.com/gofiber/storage/mysql/v2"
	postgresstorage "github.com/gofiber/storage/postgres/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/kandinsky-studio/design-shop/internal/config"
	"github.com/kandinsky-studio/design-shop/internal/db/dsn"
	accesslog "github.com/kandinsky-studio/design-shop/internal/logger/adapter/fiber"
	"github.com/kandinsky-studio/design-shop/internal/web/handler"
	"github.com/kandinsky-studio/design-shop/internal/web/handler/admin/donation"
	"github.com/kandinsky-studio/design-shop/internal/web/handler/admin/order"
	"github.com/kandinsky-studio/design-shop/internal/web/handler/admin/settings/stripe"
	"github.com/kandinsky-studio/design-shop/internal/web/handler/auth/oidc"
	"github.com/kandinsky-studio/design-shop/internal/web/handler/catalog"
	"github.com/kandinsky-studio/design-shop/internal/web/handler/checkout"
	"github.com/kandinsky-studio/design-shop/internal/web/handler/dashboard"
	"github.com/kandinsky-studio/design-shop/internal/web/handler/login"
	"github.com/kandinsky-studio/design-shop/internal/web/handler/webhook"
	authmiddleware "github.com/kandinsky-studio/design-shop/internal/web/middleware/auth"
)

const (
	// CheckAlivePath answers load balancer health checks.
	CheckAlivePath = "/checkalive"
	// MetricsPath exposes prometheus metrics.
	MetricsPath = "/metrics"

	loginLimiterTable  = "login_limiter"
	loginLimiterWindow = time.Minute
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	storage      fiber.Storage // login limiter storage, nil when in memory
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	s.alive.Store(true)

	go func() {
		err := s.App.Listen(addr, fiber.ListenConfig{DisableStartupMessage: !s.cfg.DevMode})
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for a termination signal and shuts the server down gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	// stop fiber http server
	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close login limiter storage")
		}
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates the web service and registers all handlers. RequireAdmin and
// LoginLimiter are filled in when deps leaves them empty.
func New(cfg *config.Config, deps *handler.Deps) (*Service, error) {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if deps == nil || deps.Tokens == nil {
		return nil, handler.ErrNilDeps
	}

	deps.Cfg = cfg

	// create fiber app
	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Immutable:      true,
			ErrorHandler:   handler.ErrorHandler,
		},
	)

	if !cfg.Webserver.DisableRecover {
		app.Use(recoverer.New())
	}

	app.Use(accesslog.New(accesslog.Config{
		Config:        cfg.Log,
		ErrorHandler:  handler.ErrorHandler,
		CheckAliveURI: CheckAlivePath,
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.Webserver.ClientURL},
		AllowCredentials: true,
		AllowHeaders: []string{
			fiber.HeaderOrigin, fiber.HeaderContentType, fiber.HeaderAccept, fiber.HeaderAuthorization,
		},
		AllowMethods: []string{
			fiber.MethodGet, fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodOptions,
		},
	}))

	// init web service
	service := &Service{
		cfg:          cfg,
		App:          app,
		fastShutDown: cfg.DevMode,
	}

	service.alive.Store(true)

	app.Get(CheckAlivePath, service.checkAlive)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	if deps.RequireAdmin == nil {
		deps.RequireAdmin = authmiddleware.New(deps.Tokens)
	}

	if deps.LoginLimiter == nil && cfg.Auth.LoginRateLimit > 0 {
		service.storage = loginStorage(cfg)
		deps.LoginLimiter = newLoginLimiter(cfg.Auth.LoginRateLimit, service.storage)
	}

	api := app.Group(handler.APIPath)

	// init handlers, they register their own routes
	for _, h := range []handler.Service{
		&catalog.Handler,
		&checkout.Handler,
		&webhook.Handler,
		&login.Handler,
		&oidc.Handler,
		&order.Handler,
		&donation.Handler,
		&dashboard.Handler,
		&stripe.Handler,
	} {
		if err := h.Init(api, deps); err != nil {
			return nil, err
		}
	}

	return service, nil
}

// checkAlive fails while a graceful shutdown is in progress.
func (s *Service) checkAlive(c fiber.Ctx) error {
	if !s.alive.Load() {
		return c.Status(fiber.StatusServiceUnavailable).SendString("shutting down")
	}

	return c.SendString("OK")
}

// loginStorage shares limiter counters between replicas through the
// database server. SQLite deployments are single process and count in memory.
func loginStorage(cfg *config.Config) fiber.Storage {
	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		return mysqlstorage.New(mysqlstorage.Config{
			ConnectionURI: dsn.URI(cfg),
			Table:         loginLimiterTable,
		})
	case config.EnginePostgres:
		return postgresstorage.New(postgresstorage.Config{
			ConnectionURI: dsn.URI(cfg),
			Table:         loginLimiterTable,
		})
	default:
		return nil
	}
}

func newLoginLimiter(perMinute int, storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: loginLimiterWindow,
		Storage:    storage,
		LimitReached: func(c fiber.Ctx) error {
			log.Warn().Str("ip", c.IP()).Msg("login rate limit reached")

			return fiber.NewError(fiber.StatusTooManyRequests, "too many login attempts, try again later")
		},
	})
}
