package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/xavierca1/realty-crm/internal/config"
	"github.com/xavierca1/realty-crm/internal/infra/auth"
	"github.com/xavierca1/realty-crm/internal/infra/cache"
	"github.com/xavierca1/realty-crm/internal/infra/database"
	"github.com/xavierca1/realty-crm/internal/infra/http/handlers"
	"github.com/xavierca1/realty-crm/internal/infra/http/middleware"
	"github.com/xavierca1/realty-crm/internal/infra/mail"
	"github.com/xavierca1/realty-crm/internal/infra/queue"
	"github.com/xavierca1/realty-crm/internal/infra/worker"
	"github.com/xavierca1/realty-crm/internal/usecase"
	"github.com/xavierca1/realty-crm/pkg/logger"
)

func main() {
	cfg, cfgErr := config.Load()
	log := logger.New(cfg.Env)
	if cfgErr != nil {
		log.Fatal().Err(cfgErr).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.WithContext(ctx)

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	// 1. Storage
	db, err := database.NewDBConnection(ctx, cfg.MongoURL, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close(context.Background())

	if err := db.EnsureIndexes(ctx); err != nil {
		return err
	}
	stores := database.NewStores(db)

	hasher := auth.NewBcryptHasher()
	if cfg.SeedData {
		if err := database.Seed(ctx, stores, hasher.Hash, time.Now()); err != nil {
			return err
		}
	}

	// 2. Adapters
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)

	var mailer usecase.Mailer = mail.LogSender{}
	if cfg.SMTP.Enabled() {
		mailer = mail.NewEmailSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From, cfg.CompanyName)
	}
	delivery := usecase.NewEmailDelivery(stores.Emails, mailer, middleware.DeliveryMetrics{})

	health := handlers.NewHealthHandler(db, nil, nil)

	var dispatcher usecase.Dispatcher
	backend := "local"
	if cfg.AMQPURL != "" {
		rmq, err := queue.NewRabbitMQ(cfg.AMQPURL)
		if err != nil {
			return err
		}
		defer rmq.Close()

		consumeCh, err := rmq.ConsumerChannel()
		if err != nil {
			return err
		}
		w := queue.NewWorker(consumeCh, delivery, log)
		go func() {
			if err := w.Start(ctx, queue.QueueName); err != nil {
				log.Error().Err(err).Msg("delivery worker exited")
			}
		}()

		dispatcher = queue.NewProducer(rmq.Ch)
		backend = "amqp"
		health.Queue = rmq
	} else {
		local := queue.NewLocalDispatcher(delivery, 4)
		defer local.Wait()
		dispatcher = local
		log.Info().Msg("AMQP_URL not set, delivering emails in process")
	}

	var stats usecase.StatsCache
	if cfg.RedisURL != "" {
		c, err := cache.NewStatsCache(cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			log.Warn().Err(err).Msg("dashboard cache disabled")
		} else {
			defer c.Close()
			stats = c
			health.Cache = c
		}
	}

	go worker.NewDeliverySweeper(delivery, log).Start(ctx)

	// 3. Use cases
	uc := useCases{
		Auth:      usecase.NewAuthUseCase(stores.Users, hasher, tokens),
		Users:     usecase.NewUserUseCase(stores.Users, hasher),
		Leads:     usecase.NewLeadUseCase(stores.Leads, stores.Users),
		Calls:     usecase.NewCallUseCase(stores.Calls, stores.Leads, stores.Users),
		Viewings:  usecase.NewViewingUseCase(stores.Viewings, stores.Leads, stores.Users),
		Sales:     usecase.NewSaleUseCase(stores.Sales, stores.Leads, stores.Users),
		Emails:    usecase.NewEmailUseCase(stores.Emails, stores.Templates, stores.Viewings, stores.Leads, stores.Users, dispatcher, delivery, cfg.CompanyName),
		Templates: usecase.NewTemplateUseCase(stores.Templates),
		Dashboard: usecase.NewDashboardUseCase(stores.Leads, stores.Viewings, stores.Sales, stats),
	}

	uc.Emails.DispatchErrors = middleware.DispatchMetrics{Backend: backend}

	// 4. HTTP
	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: newRouter(routerDeps{
			Log:         log,
			Tokens:      tokens,
			UseCases:    uc,
			Health:      health,
			CORSOrigins: cfg.CORSOrigins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
