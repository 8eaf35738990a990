package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"trackex/internal/amqp"
	"trackex/internal/backend"
	"trackex/internal/cache"
	"trackex/internal/cli"
	"trackex/internal/config"
	"trackex/internal/dashboard"
	apphttp "trackex/internal/http"
	"trackex/internal/identity"
	"trackex/internal/log"
	"trackex/internal/middleware/ratelimit"
	"trackex/internal/ports"
	"trackex/internal/services"
	"trackex/internal/session"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadConfig(logger, (*config.Config).Validate)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	beCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	be, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend)).CreateBackend(ctx, beCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}()

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		// Only the memory backend gets here; its sessions die with the process anyway.
		secret = randomSecret()
		logger.Warn("SESSION_SECRET not set, using a random secret for this process")
	}
	id, err := identity.New(be.Users, identity.Options{
		Secret:     secret,
		TTL:        cfg.SessionTTL,
		BcryptCost: bcrypt.DefaultCost,
		Logger:     logger.WithComponent(log.ComponentIdentity),
	})
	if err != nil {
		return err
	}

	known := session.NewContext(nil)
	known.Attach(id)
	resolver := session.NewResolver(id, known, cfg.SessionResolveWait, cfg.SessionResolveTimeout,
		logger.WithComponent(log.ComponentSession))

	loader := dashboard.NewLoader(be.Expenses, cfg.FetchTimeout, logger.WithComponent(log.ComponentDashboard))
	loader.Attach(id)

	var publisher ports.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger.WithComponent(log.ComponentAMQP))
		if err != nil {
			return err
		}
		defer client.Close()
		publisher = client
		logger.Info("Expense events enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("Expense events disabled - no AMQP_URL provided")
	}
	expenses := services.NewExpenseService(be.Expenses, publisher, logger.WithComponent(log.ComponentExpense))

	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.AuthRateLimit})
	janitor := cache.NewManager(logger.WithComponent(log.ComponentCache))
	janitor.Register(id.Revocations())
	janitor.Register(known)
	janitor.Register(limiter)

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Auth:      id,
		Sessions:  resolver,
		Dashboard: loader,
		Expenses:  expenses,
		Limiter:   limiter,
		Ready: func(ctx context.Context) error {
			if be.Ready == nil {
				return nil
			}
			return be.Ready(ctx)
		},
		Gauges: func() map[string]int {
			return map[string]int{
				"known_sessions":    known.Len(),
				"dashboard_fetches": loader.InFlight(),
			}
		},
		CookieSecure: cfg.CookieSecure,
		Logger:       logger.WithComponent(log.ComponentHTTP),
	})
	if err != nil {
		return err
	}
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting trackex server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return janitor.Run(gctx, time.Minute)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func randomSecret() []byte {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return []byte(hex.EncodeToString(b))
}
