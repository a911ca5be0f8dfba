package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/debugly/debugly-backend/api/routes"
	"github.com/debugly/debugly-backend/internal/auth"
	"github.com/debugly/debugly-backend/internal/debugger"
	"github.com/debugly/debugly-backend/internal/history"
	"github.com/debugly/debugly-backend/internal/plans"
	"github.com/debugly/debugly-backend/internal/profiles"
	"github.com/debugly/debugly-backend/internal/subscriptions"
	"github.com/debugly/debugly-backend/internal/usage"
	"github.com/debugly/debugly-backend/internal/users"
	"github.com/debugly/debugly-backend/pkg/auth/session"
	"github.com/debugly/debugly-backend/pkg/config"
	"github.com/debugly/debugly-backend/pkg/db"
	"github.com/debugly/debugly-backend/pkg/logger"
	"github.com/debugly/debugly-backend/pkg/metrics"
	"github.com/debugly/debugly-backend/pkg/migrate"
	"github.com/debugly/debugly-backend/pkg/nebius"
	"github.com/debugly/debugly-backend/pkg/razorpay"
	"github.com/debugly/debugly-backend/pkg/redis"
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
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
		DB:             dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	catalog := plans.NewCatalog(cfg.Razorpay)

	usageService, err := usage.NewService(usage.ServiceParams{
		Store:  usage.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create usage service", err)
		os.Exit(1)
	}

	historyService, err := history.NewService(history.ServiceParams{
		Repo: history.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create history service", err)
		os.Exit(1)
	}

	profileService, err := profiles.NewService(profiles.ServiceParams{
		Repo: profiles.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create profile service", err)
		os.Exit(1)
	}

	subscriptionParams := subscriptions.ServiceParams{
		Repo:        subscriptions.NewRepository(dbClient.DB()),
		UserRepo:    users.NewRepository(dbClient.DB()),
		ProfileRepo: profiles.NewRepository(dbClient.DB()),
		Usage:       usageService,
		Catalog:     catalog,
		Razorpay:    cfg.Razorpay,
		Metrics:     metrics.NewBillingMetrics(prometheus.DefaultRegisterer),
		Logger:      logg,
	}
	if cfg.Razorpay.Configured() {
		gatewayClient, err := razorpay.NewClient(cfg.Razorpay)
		if err != nil {
			logg.Error(context.Background(), "failed to create razorpay client", err)
			os.Exit(1)
		}
		subscriptionParams.Gateway = gatewayClient
	} else {
		logg.Warn(context.Background(), "razorpay credentials missing, checkout disabled")
	}

	subscriptionService, err := subscriptions.NewService(subscriptionParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription service", err)
		os.Exit(1)
	}

	modelClient, err := nebius.NewClient(cfg.Nebius)
	if err != nil {
		logg.Error(context.Background(), "failed to create nebius client", err)
		os.Exit(1)
	}

	debugService, err := debugger.NewService(debugger.ServiceParams{
		Quota:   usageService,
		Plans:   subscriptionService,
		Model:   modelClient,
		History: historyService,
		Metrics: metrics.NewDebugMetrics(prometheus.DefaultRegisterer),
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create debug service", err)
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
		Handler: routes.NewRouter(routes.Deps{
			Config:              cfg,
			Logger:              logg,
			DB:                  dbClient,
			Redis:               redisClient,
			SessionChecker:      sessionManager,
			AuthService:         authService,
			RegisterService:     registerService,
			DebugService:        debugService,
			HistoryService:      historyService,
			ProfileService:      profileService,
			SubscriptionService: subscriptionService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
