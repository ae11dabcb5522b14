package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"framing-command-center/internal/activity"
	"framing-command-center/internal/apps"
	"framing-command-center/internal/auth"
	"framing-command-center/internal/config"
	"framing-command-center/internal/db/migrate"
	"framing-command-center/internal/httpapi"
	"framing-command-center/internal/kanban"
	"framing-command-center/internal/notify"
	"framing-command-center/internal/orders"
	"framing-command-center/internal/payments"
	"framing-command-center/internal/reporting"
	"framing-command-center/internal/suppliers"
	"framing-command-center/internal/telephony"
	"framing-command-center/pkg/logger"
	"framing-command-center/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("vendor credentials",
		"twilio_account_sid", logger.Masked(cfg.Twilio.AccountSID),
		"twilio_auth_token", logger.Masked(cfg.Twilio.AuthToken),
		"twilio_phone_number", logger.Masked(cfg.Twilio.PhoneNumber),
		"twilio_twiml_app_sid", logger.Masked(cfg.Twilio.TwimlAppSID),
		"stripe_secret_key", logger.Masked(cfg.Stripe.SecretKey),
		"stripe_webhook_secret", logger.Masked(cfg.Stripe.WebhookSecret),
	)

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}
	admin, err := auth.NewAdmin(cfg.Auth.AdminUsername, cfg.Auth.AdminPasswordHash)
	if err != nil {
		log.Error("admin credentials invalid", "err", err)
		os.Exit(1)
	}

	if cfg.DB.MigrateOnStart {
		if err := migrate.Run(cfg.PostgresURL(), migrate.DirectionUp); err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}
		log.Info("migrations applied")
	}

	db, err := utils.OpenPostgres(rootCtx, cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	provider := newTelephonyProvider(cfg, log)
	dispatcher := notify.NewDispatcher(provider, notify.Options{
		Enabled: cfg.Notify.Enabled,
		Timeout: cfg.Notify.Timeout,
		Logger:  log,
	})

	activitySvc := activity.NewService(activity.NewPostgresRepo(db))
	orderSvc := orders.NewService(orders.NewPostgresRepo(db), dispatcher, activitySvc, log)
	paymentSvc := payments.NewService(
		payments.NewStripeGateway(cfg.Stripe.SecretKey),
		orderSvc,
		payments.NewRedisDeduper(rdb),
		activitySvc,
		payments.Options{
			WebhookSecret: cfg.Stripe.WebhookSecret,
			Currency:      cfg.Stripe.Currency,
			PublicURL:     cfg.App.PublicURL,
			Logger:        log,
		},
	)

	board := kanban.NewClient(kanban.Options{
		BaseURL: cfg.Kanban.BaseURL,
		Timeout: cfg.Kanban.Timeout,
		Logger:  log,
	})

	appList := apps.DefaultApplications
	if len(cfg.App.Applications) > 0 {
		appList = apps.FromMap(cfg.App.Applications)
	}

	deps := routeDeps{
		API: httpapi.Handlers{
			Auth:      authManager,
			Admin:     admin,
			Orders:    orderSvc,
			Activity:  activitySvc,
			Reporting: reporting.NewService(orderSvc, provider, board, log),
			Scorecard: reporting.NewScorecard(reporting.NewPostgresMetricsRepo(db)),
			Board:     board,
			Apps:      apps.NewMonitor(appList, apps.Options{Logger: log}),
			Suppliers: suppliers.NewDirectory(nil),
		},
		Telephony: telephony.Handler{
			Provider: provider,
			Tokens:   telephony.NewAccessTokenIssuer(cfg.Twilio),
			Orders:   orderSvc,
			Activity: activitySvc,
			CallerID: cfg.Twilio.PhoneNumber,
		},
		Payments:      payments.Handler{Service: paymentSvc},
		PublicLimiter: httpapi.NewRedisLimiter(rdb, "ratelimit:public-orders:", cfg.Redis.PublicLookupsPerMinute, time.Minute),
		Health: func(ctx context.Context) error {
			return utils.HealthCheck(ctx, db, 2*time.Second)
		},
	}
	if admin != nil {
		deps.AdminAuth = auth.RequireAccessToken(authManager)
	} else {
		log.Warn("ADMIN_PASSWORD_HASH not set; admin API is unauthenticated")
	}
	if cfg.Twilio.ValidateWebhooks && cfg.Twilio.AuthToken != "" {
		deps.TwilioSignature = telephony.RequireSignature(cfg.Twilio.AuthToken, cfg.App.PublicURL)
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	registerRoutes(r, deps)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "telephony", provider.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		log.Error("pending notifications abandoned", "err", err)
	}
}

// newTelephonyProvider falls back to a provider that answers every call with
// ErrNotConfigured so the dashboard still starts without Twilio credentials.
func newTelephonyProvider(cfg config.Config, log *slog.Logger) telephony.Provider {
	opts := telephony.TwilioOptions{
		AccountSID:  cfg.Twilio.AccountSID,
		AuthToken:   cfg.Twilio.AuthToken,
		PhoneNumber: cfg.Twilio.PhoneNumber,
	}
	if cfg.App.PublicURL != "" {
		opts.VoiceURL = cfg.App.PublicURL + "/webhook/voice"
		opts.StatusCallbackURL = cfg.App.PublicURL + "/webhook/call-status"
	}
	p, err := telephony.NewTwilioProvider(opts)
	if err != nil {
		log.Warn("twilio not configured; telephony endpoints will report unavailable", "err", err)
		return telephony.UnconfiguredProvider{}
	}
	return p
}
