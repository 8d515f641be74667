package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/spooltrack/spooltrack-backend/api/routes"
	"github.com/spooltrack/spooltrack-backend/internal/auth"
	"github.com/spooltrack/spooltrack-backend/internal/brands"
	"github.com/spooltrack/spooltrack-backend/internal/notifications"
	"github.com/spooltrack/spooltrack-backend/internal/notifier"
	"github.com/spooltrack/spooltrack-backend/internal/prints"
	"github.com/spooltrack/spooltrack-backend/internal/spools"
	"github.com/spooltrack/spooltrack-backend/internal/users"
	"github.com/spooltrack/spooltrack-backend/pkg/auth/session"
	"github.com/spooltrack/spooltrack-backend/pkg/config"
	"github.com/spooltrack/spooltrack-backend/pkg/db"
	"github.com/spooltrack/spooltrack-backend/pkg/logger"
	"github.com/spooltrack/spooltrack-backend/pkg/metrics"
	"github.com/spooltrack/spooltrack-backend/pkg/migrate"
	"github.com/spooltrack/spooltrack-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	inventoryMetrics := metrics.NewInventoryMetrics(registry)

	alertNotifier, err := notifier.New(notifier.Params{
		NotificationRepo: notifications.NewRepository(dbClient.DB()),
		Dedupe:           redisClient,
		Mailer:           notifier.NewMailer(cfg.SMTP),
		Metrics:          inventoryMetrics,
		Logger:           logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notifier", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		TxRunner:       dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	spoolsService, err := spools.NewService(spools.ServiceParams{
		SpoolRepo: spools.NewRepository(dbClient.DB()),
		BrandRepo: brands.NewRepository(dbClient.DB()),
		Notifier:  alertNotifier,
		Inventory: cfg.Inventory,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create spools service", err)
		os.Exit(1)
	}

	brandsService, err := brands.NewService(brands.ServiceParams{
		BrandRepo: brands.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create brands service", err)
		os.Exit(1)
	}

	printsService, err := prints.NewService(prints.ServiceParams{
		TxRunner:  dbClient,
		History:   prints.NewRepository(dbClient.DB()),
		Notifier:  alertNotifier,
		Inventory: cfg.Inventory,
		TxTimeout: cfg.DB.TxTimeout,
		Metrics:   inventoryMetrics,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create prints service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.ServiceParams{
		NotificationRepo: notifications.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Deps{
		Config:               cfg,
		Logger:               logg,
		DB:                   dbClient,
		Redis:                redisClient,
		SessionChecker:       sessionManager,
		HTTPMetrics:          httpMetrics,
		Registry:             registry,
		AuthService:          authService,
		RegisterService:      registerService,
		SpoolsService:        spoolsService,
		BrandsService:        brandsService,
		PrintsService:        printsService,
		NotificationsService: notificationsService,
	})

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
		Addr:    addr,
		Handler: router,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(timeoutCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
		// Let in-flight low-stock alerts land before the process exits.
		alertNotifier.Flush()
	}
}
