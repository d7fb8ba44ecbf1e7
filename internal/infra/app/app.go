package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/campushub/lms-auth/internal/core/port"
	"github.com/campushub/lms-auth/internal/infra/config"
	"github.com/campushub/lms-auth/internal/infra/database"
	kafkainfra "github.com/campushub/lms-auth/internal/infra/kafka"
	"github.com/campushub/lms-auth/internal/infra/logger"
	"github.com/campushub/lms-auth/internal/infra/mail"
	redisinfra "github.com/campushub/lms-auth/internal/infra/redis"
	"github.com/campushub/lms-auth/internal/infra/security"
	"github.com/campushub/lms-auth/internal/infra/telemetry"
	memoryrepo "github.com/campushub/lms-auth/internal/repository/memory"
	postgresrepo "github.com/campushub/lms-auth/internal/repository/postgres"
	redisrepo "github.com/campushub/lms-auth/internal/repository/redis"
	"github.com/campushub/lms-auth/internal/transport/http/routes"
	"github.com/campushub/lms-auth/internal/usecase"
)

// Application owns the wired dependency graph and the HTTP server lifecycle.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
}

// New wires configuration into a runnable application.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	if cfg.Telemetry.MetricsEnabled {
		if _, err := telemetry.Attach(cfg); err != nil {
			return nil, fmt.Errorf("init telemetry: %w", err)
		}
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	codec, err := security.NewTokenCodec(security.TokenCodecConfig{
		Secret:         cfg.JWT.Secret,
		AccessTokenTTL: cfg.JWT.AccessTokenTTL,
		ResetTokenTTL:  cfg.Reset.TokenTTL,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init token codec: %w", err)
	}

	hasher, err := security.NewPasswordHasher(security.Argon2Config{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init password hasher: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	var redisClient *redisinfra.Client
	var limiter port.LoginLimiter
	if cfg.RateLimit.Backend == "redis" {
		redisClient, err = redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		limiter = redisrepo.NewLoginLimiter(redisClient.Client(), redisrepo.LoginLimiterConfig{
			Window:    cfg.RateLimit.WindowDuration,
			Threshold: cfg.RateLimit.MaxAttempts,
		})
	} else {
		limiter = memoryrepo.NewLoginLimiter(memoryrepo.LoginLimiterConfig{
			Window:    cfg.RateLimit.WindowDuration,
			Threshold: cfg.RateLimit.MaxAttempts,
		})
	}

	var producer *kafkainfra.Producer
	var audit port.AuditSink
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using logging audit sink", zap.Error(err))
			audit = kafkainfra.NewStubAuditSink(log)
		} else {
			audit, err = kafkainfra.NewAuditSink(producer, cfg.Kafka.AuditTopic)
			if err != nil {
				log.Warn("failed to init kafka audit sink, using logging audit sink", zap.Error(err))
				audit = kafkainfra.NewStubAuditSink(log)
			}
		}
	} else {
		log.Info("kafka brokers not configured, using logging audit sink")
		audit = kafkainfra.NewStubAuditSink(log)
	}

	mailer := mail.NewLoggingMailer(log)

	authService, err := usecase.NewAuthService(
		repos.Users,
		repos.Tokens,
		limiter,
		codec,
		hasher,
		audit,
		log,
		cfg.JWT.RefreshTokenTTL,
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init auth service: %w", err)
	}

	policy := security.PasswordPolicyConfig{
		MinLength:       cfg.Password.MinLength,
		StrengthEnabled: cfg.Password.StrengthEnabled,
		MinZxcvbnScore:  cfg.Password.MinZxcvbnScore,
	}

	resetService, err := usecase.NewPasswordResetService(
		repos.Users,
		repos.Tokens,
		codec,
		hasher,
		policy,
		mailer,
		audit,
		log,
		cfg.App.FrontendURL,
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init password reset service: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:   cfg,
		Logger:   log,
		Database: pool,
		Cache:    cacheChecker(redisClient),
		Services: routes.ServiceSet{
			Auth:          authService,
			PasswordReset: resetService,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
	}, nil
}

// cacheChecker avoids handing routes a non-nil interface wrapping a nil client.
func cacheChecker(client *redisinfra.Client) routes.CacheChecker {
	if client == nil {
		return nil
	}
	return client
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting auth API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
