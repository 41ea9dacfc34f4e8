package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gamevault/gamevault-backend/api/routes"
	"github.com/gamevault/gamevault-backend/internal/listings"
	"github.com/gamevault/gamevault-backend/internal/notifications"
	"github.com/gamevault/gamevault-backend/internal/payments"
	"github.com/gamevault/gamevault-backend/internal/payouts"
	"github.com/gamevault/gamevault-backend/internal/platformledger"
	"github.com/gamevault/gamevault-backend/internal/purchases"
	"github.com/gamevault/gamevault-backend/internal/reconcile"
	"github.com/gamevault/gamevault-backend/internal/revsplit"
	"github.com/gamevault/gamevault-backend/internal/users"
	"github.com/gamevault/gamevault-backend/pkg/config"
	"github.com/gamevault/gamevault-backend/pkg/db"
	"github.com/gamevault/gamevault-backend/pkg/logger"
	"github.com/gamevault/gamevault-backend/pkg/migrate"
	"github.com/gamevault/gamevault-backend/pkg/storage"
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

	if cfg.FeatureFlags.AutoMigrate {
		if err := migrate.AutoRun(context.Background(), dbClient, logg); err != nil {
			logg.Error(context.Background(), "failed to run startup migrations", err)
			os.Exit(1)
		}
	}

	splitEngine, err := revsplit.NewEngine(cfg.Revenue.CommissionRate())
	if err != nil {
		logg.Error(context.Background(), "failed to build revenue split engine", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	listingRepo := listings.NewRepository(dbClient.DB())
	purchaseRepo := purchases.NewRepository(dbClient.DB())
	payoutRepo := payouts.NewRepository(dbClient.DB())
	ledgerRepo := platformledger.NewRepository(dbClient.DB())

	dispatcher := notifications.NewLogDispatcher(logg)
	gateway := payments.NewAutoCaptureGateway(logg)
	objectStore := storage.NewFSStore(cfg.Storage.Dir, cfg.Storage.BaseURL)

	ledgerService, err := platformledger.NewService(ledgerRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create platform ledger service", err)
		os.Exit(1)
	}

	payoutService, err := payouts.NewService(payoutRepo, dbClient, splitEngine, dispatcher, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create payouts service", err)
		os.Exit(1)
	}

	purchaseService, err := purchases.NewService(
		purchaseRepo,
		dbClient,
		userRepo,
		listingRepo,
		payoutService,
		ledgerService,
		gateway,
		dispatcher,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create purchases service", err)
		os.Exit(1)
	}

	listingService, err := listings.NewService(listingRepo, dbClient, userRepo, ledgerService, cfg.Revenue.ListingFeeAmount())
	if err != nil {
		logg.Error(context.Background(), "failed to create listings service", err)
		os.Exit(1)
	}

	reconciler, err := reconcile.NewRunner(dbClient, payoutRepo, ledgerRepo, purchaseRepo, listingRepo, userRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create account reconciler", err)
		os.Exit(1)
	}

	userService, err := users.NewService(userRepo, reconciler, dispatcher, cfg.Password, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

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
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			userService,
			listingService,
			purchaseService,
			payoutService,
			ledgerService,
			objectStore,
		),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		logg.Info(ctx, "shutting down api server")
		graceCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(graceCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
