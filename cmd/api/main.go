package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/kasuwahq/kasuwa-backend/api/routes"
	"github.com/kasuwahq/kasuwa-backend/internal/cart"
	"github.com/kasuwahq/kasuwa-backend/internal/catalog"
	"github.com/kasuwahq/kasuwa-backend/internal/invite"
	"github.com/kasuwahq/kasuwa-backend/internal/ledger"
	"github.com/kasuwahq/kasuwa-backend/internal/mailer"
	"github.com/kasuwahq/kasuwa-backend/internal/orders"
	"github.com/kasuwahq/kasuwa-backend/internal/otp"
	"github.com/kasuwahq/kasuwa-backend/internal/referral"
	"github.com/kasuwahq/kasuwa-backend/internal/reviews"
	"github.com/kasuwahq/kasuwa-backend/internal/users"
	"github.com/kasuwahq/kasuwa-backend/pkg/config"
	"github.com/kasuwahq/kasuwa-backend/pkg/db"
	"github.com/kasuwahq/kasuwa-backend/pkg/logger"
	"github.com/kasuwahq/kasuwa-backend/pkg/metrics"
	"github.com/kasuwahq/kasuwa-backend/pkg/migrate"
	"github.com/kasuwahq/kasuwa-backend/pkg/paystack"
	"github.com/kasuwahq/kasuwa-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gateway, err := paystack.NewClient(cfg.Paystack, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create paystack client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	gormDB := dbClient.DB()
	usersRepo := users.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	ledgerRepo := ledger.NewRepository(gormDB)
	referralRepo := referral.NewRepository(gormDB)
	inviteRepo := invite.NewRepository(gormDB)
	reviewsRepo := reviews.NewRepository(gormDB)

	mailSender := mailer.NewLogSender(logg)

	referralService := referral.NewService(referralRepo, cfg.Checkout, logg)
	inviteService := invite.NewService(inviteRepo, usersRepo, mailSender, logg)
	usersService := users.NewService(users.Deps{
		DB:        dbClient,
		Repo:      usersRepo,
		Referrals: referralService,
		Codes:     referralRepo,
		Invites:   inviteService,
		Password:  cfg.Password,
		Logger:    logg,
	})
	catalogService := catalog.NewService(catalogRepo)
	cartService := cart.NewService(cartRepo, catalogRepo, logg)
	ledgerService := ledger.NewService(ledgerRepo, logg)
	ordersService := orders.NewService(orders.Deps{
		DB:        dbClient,
		Orders:    ordersRepo,
		Ledger:    ledgerRepo,
		Carts:     cartRepo,
		Addresses: usersRepo,
		Accounts:  usersRepo,
		Referrals: referralService,
		Gateway:   gateway,
		Checkout:  cfg.Checkout,
		Metrics:   paymentMetrics,
		Logger:    logg,
	})
	otpService := otp.NewService(redisClient, usersRepo, mailSender, cfg.OTP, logg)
	reviewsService := reviews.NewService(reviewsRepo, catalogRepo)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			DB:       dbClient,
			Redis:    redisClient,
			Registry: registry,
			Users:    usersService,
			Catalog:  catalogService,
			Cart:     cartService,
			Orders:   ordersService,
			OTP:      otpService,
			Invites:  inviteService,
			Reviews:  reviewsService,
			Ledger:   ledgerService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
