package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/openpulpit/openpulpit/internal/authz"
	"github.com/openpulpit/openpulpit/internal/config"
	"github.com/openpulpit/openpulpit/internal/credential"
	fiberlogger "github.com/openpulpit/openpulpit/internal/logger/adapter/fiber"
	"github.com/openpulpit/openpulpit/internal/web/handler"
	"github.com/openpulpit/openpulpit/internal/web/handler/authorize"
	"github.com/openpulpit/openpulpit/internal/web/handler/credentials"
	"github.com/openpulpit/openpulpit/internal/web/handler/permissions"
	"github.com/openpulpit/openpulpit/internal/web/handler/role"
	"github.com/openpulpit/openpulpit/internal/web/middleware/apikey"
)

// CheckAlivePath is the liveness probe endpoint.
const CheckAlivePath = "/checkalive"

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
	authzService *authz.Service
	authority    *credential.Authority
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the web service.
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
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB, registry *authz.Registry) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	// create fiber app
	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        "OpenPulpit",
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			ErrorHandler:   handler.ErrorHandler,
		},
	)

	// access log middleware
	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
	}))

	// Initialize the authorization service and credential authority
	authzService := authz.NewService(db, registry)
	authority := credential.NewAuthority(db)

	// credential authentication middleware
	app.Use(apikey.Middleware(authority))

	// init web service
	service := &Service{
		cfg:          cfg,
		App:          app,
		db:           db,
		authzService: authzService,
		authority:    authority,
	}
	service.alive.Store(true)

	// init handlers (they register their own routes with permission checks)
	role.Handler.Init(app, cfg, db, authzService)
	authorize.Handler.Init(app, cfg, db, authzService)
	credentials.Handler.Init(app, cfg, db, authzService)
	permissions.Handler.Init(app, cfg, db, authzService)

	// liveness probe for load balancers
	app.Get(CheckAlivePath, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("OK")
	})

	return service
}
