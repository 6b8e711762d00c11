package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/mailroom/internal/config"
	"github.com/dropDatabas3/mailroom/internal/domain/repository"
	"github.com/dropDatabas3/mailroom/internal/email"
	"github.com/dropDatabas3/mailroom/internal/engine"
	"github.com/dropDatabas3/mailroom/internal/metrics"
	"github.com/dropDatabas3/mailroom/internal/observability/logger"
	"github.com/dropDatabas3/mailroom/internal/security/secretbox"
	"github.com/dropDatabas3/mailroom/internal/smtpconfig"
	memstore "github.com/dropDatabas3/mailroom/internal/store/memory"
	pgstore "github.com/dropDatabas3/mailroom/internal/store/pg"
	redisstore "github.com/dropDatabas3/mailroom/internal/store/redis"
)

// app agrupa las dependencias cableadas para los subcomandos.
// El mismo armado que hace el backend del CRM al embeber el engine.
type app struct {
	cfg      *config.Config
	resolver *smtpconfig.Resolver
	engine   *engine.Engine
	sched    *engine.GoScheduler
	attempts repository.AttemptRepository
	cleanup  func()
}

func buildApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "mailroom",
	})

	// Sin clave maestra no se arranca: los secretos en reposo quedarían
	// ilegibles o, peor, se guardarían en claro.
	cipher, err := secretbox.New(cfg.Security.SecretBoxMasterKey)
	if err != nil {
		return nil, fmt.Errorf("fatal: %w", err)
	}

	var (
		configsRepo  repository.SMTPConfigRepository
		attemptsRepo repository.AttemptRepository
		idemRepo     repository.IdempotencyRepository
		cleanups     []func()
	)

	switch cfg.Storage.Driver {
	case "memory":
		st := memstore.New()
		configsRepo, attemptsRepo, idemRepo = st.Configs, st.Attempts, st.Idempotency
		logger.L().Warn("using in-memory store; data will not survive the process")
	default:
		st, err := pgstore.New(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		configsRepo, attemptsRepo, idemRepo = st.Configs, st.Attempts, st.Idempotency
		cleanups = append(cleanups, st.Close)
	}

	if cfg.Idempotency.Backend == "redis" {
		rdb := goredis.NewClient(&goredis.Options{
			Addr: cfg.Idempotency.Redis.Addr,
			DB:   cfg.Idempotency.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		cleanups = append(cleanups, func() { _ = rdb.Close() })
		idemRepo = redisstore.New(rdb, cfg.Idempotency.Redis.Prefix)
	}

	resolver := smtpconfig.NewResolver(configsRepo, cipher, smtpconfig.Fallback{
		Host:           cfg.SMTP.Host,
		Port:           cfg.SMTP.Port,
		Username:       cfg.SMTP.Username,
		Password:       cfg.SMTP.Password,
		FromEmail:      cfg.SMTP.FromEmail,
		FromName:       cfg.SMTP.FromName,
		TLSMode:        cfg.SMTP.TLS,
		TimeoutSeconds: cfg.SMTP.TimeoutSeconds,
	})

	renderer, err := email.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("fatal: %w", err)
	}

	if err := metrics.Register(nil); err != nil {
		return nil, err
	}
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.Addr, promhttp.Handler()); err != nil {
				logger.L().Warn("metrics listener stopped", logger.Err(err))
			}
		}()
	}

	var senderFor engine.SenderFactory
	if cfg.SMTP.InsecureSkipVerify {
		senderFor = func(sc email.SMTPConfig) email.Sender {
			s := email.NewSMTPSender(sc)
			s.InsecureSkipVerify = true
			return s
		}
	}

	sched := engine.NewGoScheduler()
	eng, err := engine.New(engine.Options{
		Attempts:          attemptsRepo,
		Idempotency:       idemRepo,
		Resolver:          resolver,
		Renderer:          renderer,
		SenderFactory:     senderFor,
		Scheduler:         sched,
		IdempotencyTTL:    cfg.Idempotency.TTL,
		TenantConcurrency: cfg.Engine.TenantConcurrency,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		resolver: resolver,
		engine:   eng,
		sched:    sched,
		attempts: attemptsRepo,
		cleanup: func() {
			for i := len(cleanups) - 1; i >= 0; i-- {
				cleanups[i]()
			}
			_ = logger.Sync()
		},
	}, nil
}
