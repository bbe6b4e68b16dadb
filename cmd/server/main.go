package main // Entry point package

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/database"
	"github.com/iliyamo/event-ticketing/internal/gateway"
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/logger"
	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
	"github.com/iliyamo/event-ticketing/internal/router"
	"github.com/iliyamo/event-ticketing/internal/service"
)

func main() {
	cfg := config.Load()
	payCfg := config.LoadPaymentConfig()
	queueCfg := config.LoadQueueConfig()

	log, err := logger.New(cfg.Env)
	if err != nil {
		stdlog.Fatalf("build logger: %v", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer db.Close()
	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatal("migrate database", zap.Error(err))
		}
	}

	rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if err != nil {
		log.Warn("redis unavailable; rate limiting, caching and webhook counters disabled", zap.Error(err))
	} else {
		defer rdb.Close()
	}

	tx := repository.NewTxManager(db)
	payments := repository.NewPaymentRepo(db)
	tickets := repository.NewTicketRepo(db)
	events := repository.NewEventRepo(db)
	users := repository.NewUserRepo(db)

	gw := gateway.NewClient(payCfg.KeyID, payCfg.KeySecret)
	publisher := queue.NewPublisher(queueCfg.URL, log)
	issuer := service.NewTicketGenerator(tickets)
	counter := service.NewRedisCounter(rdb, "", log)

	orchestrator := service.NewOrchestrator(tx, events, users, issuer, publisher, payCfg.MaxTicketsPerBooking, log.Named("booking"))
	intents := service.NewIntentService(gw, payments, payCfg.Currency, log.Named("intent"))
	reconciler := service.NewReconciler(service.ReconcilerConfig{
		WebhookSecret:      payCfg.WebhookSecret,
		VerifyWithProvider: payCfg.VerifyWithProvider,
		RejectBadSignature: payCfg.RejectBadSignature,
	}, service.ReconcilerDeps{
		Tx:       tx,
		Payments: payments,
		Tickets:  tickets,
		Users:    users,
		Issuer:   issuer,
		Gateway:  gw,
		Notifier: publisher,
		Observer: service.Observers{service.LogObserver{Log: log.Named("webhook")}, counter},
	}, log.Named("reconciler"))

	if queueCfg.ConsumerEnabled {
		consumer := queue.NewConsumer(queueCfg.URL, queueCfg.LogDir, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("queue consumer stopped", zap.Error(err))
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(logger.RequestLogger(log))

	router.RegisterRoutes(e, counter)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users), cfg.JWTSecret)
	router.RegisterPublic(e, &handler.EventHandler{Events: events},
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log))
	router.RegisterTickets(e, router.TicketRoutes{
		Booking:      &handler.BookingHandler{Booker: orchestrator, Intents: intents},
		Payments:     &handler.PaymentHandler{Reconciler: reconciler},
		Tickets:      &handler.TicketHandler{Reports: service.NewReports(tickets, events, users), CheckIn: service.NewCheckIn(events, tickets)},
		JWTSecret:    cfg.JWTSecret,
		BookingLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(config.ScopeBooking), rdb, log),
		VerifyLimit:  middleware.NewTokenBucket(config.LoadRateLimitConfig(config.ScopeVerify), rdb, log),
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
