// Command api runs the LocalKart REST API.
//
//	@title						LocalKart API
//	@version					1.0
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/localkart/localkart-api/internal/api"
	"github.com/localkart/localkart-api/internal/api/handler"
	"github.com/localkart/localkart-api/internal/core/ports"
	"github.com/localkart/localkart-api/internal/core/service"
	mongostore "github.com/localkart/localkart-api/internal/infrastructure/db/mongo"
	redisstore "github.com/localkart/localkart-api/internal/infrastructure/db/redis"
	"github.com/localkart/localkart-api/internal/infrastructure/gateway/razorpay"
	"github.com/localkart/localkart-api/internal/infrastructure/queue"
	"github.com/localkart/localkart-api/internal/pkg/config"
	"github.com/localkart/localkart-api/internal/pkg/token"
	"github.com/localkart/localkart-api/internal/pkg/validation"
	"github.com/localkart/localkart-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "localkart-api",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Stores ---
	mongoCfg := mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database, Timeout: cfg.Mongo.Timeout}
	mongoClient, db, err := mongostore.Connect(ctx, mongoCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := mongostore.Disconnect(mongoClient, mongoCfg); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	users := mongostore.NewUserRepository(db, cfg.Mongo.Timeout)
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}
	seed := ports.AdminSeed{
		Name:     cfg.Admin.Name,
		Username: cfg.Admin.Username,
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
		DOB:      cfg.Admin.DOB,
	}
	if err := service.EnsureAdmin(ctx, users, seed, logger.Component("bootstrap")); err != nil {
		return err
	}

	// --- Events ---
	var publisher ports.EventPublisher = queue.NoopPublisher{}
	if cfg.AMQP.URL != "" {
		rp, err := queue.NewRabbitPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return err
		}
		publisher = rp
	} else {
		log.Warn().Msg("AMQP_URL not set, domain events will be discarded")
	}
	defer publisher.Close()

	dispatcher := queue.NewDispatcher(cfg.AMQP.Workers, publisher, logger.Component("dispatcher"))
	dispatcher.Start(context.Background())

	// --- Services ---
	if cfg.Razorpay.KeyID == "" || cfg.Razorpay.KeySecret == "" {
		log.Warn().Msg("razorpay credentials not set, payment orders will fail")
	}
	gateway := razorpay.NewClient(razorpay.Config{
		BaseURL:   cfg.Razorpay.BaseURL,
		KeyID:     cfg.Razorpay.KeyID,
		KeySecret: cfg.Razorpay.KeySecret,
	}, nil)

	tokens := token.NewManager(cfg.JWTSecret)
	validator := validation.New()

	authSvc := service.NewAuthService(users, tokens, validator, dispatcher, logger.Component("auth"))
	paymentSvc := service.NewPaymentService(
		gateway,
		redisstore.NewOrderStateStore(rdb),
		validator,
		dispatcher,
		service.PaymentConfig{
			KeyID:          cfg.Razorpay.KeyID,
			KeySecret:      cfg.Razorpay.KeySecret,
			Currency:       cfg.Razorpay.Currency,
			GatewayTimeout: cfg.Razorpay.Timeout,
		},
		logger.Component("payment"),
	)

	e := api.NewRouter(api.Dependencies{
		Users:     users,
		Tokens:    tokens,
		Auth:      authSvc,
		Payments:  paymentSvc,
		Validator: validator,
		HealthChecks: map[string]handler.HealthCheck{
			"mongodb": handler.MongoCheck(mongoClient),
			"redis":   handler.RedisCheck(rdb),
		},
		Log: logger.Component("http"),
	})

	// --- Serve ---
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("dispatcher did not drain in time")
	}

	log.Info().Msg("server stopped")
	return nil
}
