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

	"phone-availability/internal/auth"
	"phone-availability/internal/calls"
	"phone-availability/internal/checks"
	"phone-availability/internal/config"
	"phone-availability/internal/httpapi"
	"phone-availability/internal/telephony"
	"phone-availability/pkg/logger"
	"phone-availability/pkg/metrics"
	"phone-availability/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("env file not loaded", "err", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Env:           cfg.App.Env,
		Level:         cfg.Log.Level,
		RedactNumbers: cfg.Log.RedactNumbers,
	})
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	m := metrics.New()

	repo, closeStore, err := openStore(rootCtx, cfg)
	if err != nil {
		log.Error("record store init failed", "backend", cfg.Store.Backend, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	opts := checks.Options{
		Recorder:              checks.NewRecorder(repo),
		CredentialsConfigured: cfg.HasTwilioCredentials(),
		Observer:              m,
	}
	if cfg.HasTwilioCredentials() {
		provider, err := telephony.NewTwilioProvider(telephony.TwilioOptions{
			AccountSID:    cfg.Twilio.AccountSID,
			AuthToken:     cfg.Twilio.AuthToken,
			LookupBaseURL: cfg.Twilio.LookupBaseURL,
			APIBaseURL:    cfg.Twilio.APIBaseURL,
			Timeout:       cfg.Twilio.HTTPTimeout,
		})
		if err != nil {
			log.Error("twilio provider init failed", "err", err)
			os.Exit(1)
		}
		opts.Lookup = provider
		opts.Verifier = &calls.Orchestrator{
			Voice:             provider,
			From:              cfg.Twilio.FromNumber,
			PollDelay:         cfg.Verify.PollDelay,
			RingTimeout:       cfg.Verify.RingTimeout,
			StatusCallbackURL: cfg.StatusCallbackURL(),
			Observer:          m,
		}
		if cfg.Twilio.FromNumber == "" {
			log.Warn("TWILIO_FROM_NUMBER is not set; verification calls will fail")
		}
	} else {
		log.Warn("twilio credentials not configured; checks will fail until they are set")
	}

	deps := routeDeps{
		Handlers: httpapi.Handlers{Checks: checks.NewService(opts), Records: repo},
		Metrics:  m,
	}

	if cfg.Auth.JWTSecret != "" {
		deps.Auth, err = auth.NewManager(cfg.Auth)
		if err != nil {
			log.Error("auth init failed", "err", err)
			os.Exit(1)
		}
	} else {
		log.Info("JWT_SECRET not set; record read API disabled")
	}

	if cfg.StatusCallbackURL() != "" {
		deps.Webhooks = &telephony.TwilioWebhookHandler{
			AuthToken:         cfg.Twilio.AuthToken,
			StatusCallbackURL: cfg.StatusCallbackURL(),
			InboundVoiceURL:   cfg.InboundVoiceURL(),
			OnStatus: func(_ context.Context, cb telephony.StatusCallback) {
				m.IncStatusCallback(string(cb.CallStatus))
				m.IncCallStatus("callback", string(cb.CallStatus))
			},
		}
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log, "/healthz", "/readyz", "/metrics"))
	r.Use(m.Middleware())

	registerRoutes(r, deps)

	// A check holds the request through the poll delay and up to three provider calls.
	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.Verify.PollDelay + 3*cfg.Twilio.HTTPTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening",
			"addr", srv.Addr,
			"env", cfg.App.Env,
			"store", cfg.Store.Backend,
			"poll_delay", cfg.Verify.PollDelay.String(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	// In-flight checks may still be waiting on their verification call.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Verify.PollDelay+20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}

func openStore(ctx context.Context, cfg config.Config) (checks.Repository, func(), error) {
	switch cfg.Store.Backend {
	case "postgres":
		db, err := utils.OpenPostgres(ctx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{
			MaxOpenConns: cfg.DB.MaxOpenConns,
			MaxIdleConns: cfg.DB.MaxIdleConns,
		})
		if err != nil {
			return nil, nil, err
		}
		repo := checks.NewPostgresRepo(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return repo, func() { _ = db.Close() }, nil

	case "redis":
		rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: cfg.RedisAddr(), Password: cfg.Redis.Password})
		if err != nil {
			return nil, nil, err
		}
		return checks.NewRedisRepo(rdb, ""), func() { _ = rdb.Close() }, nil

	default:
		return checks.NewMemoryRepo(), func() {}, nil
	}
}
