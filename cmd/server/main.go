// @title                      Accounts Service API
// @version                    1.0
// @description                Signup, credential verification and session-token issuance.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
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

	"github.com/99minutos/accounts-service/internal/api"
	"github.com/99minutos/accounts-service/internal/api/handler"
	"github.com/99minutos/accounts-service/internal/core/ports"
	"github.com/99minutos/accounts-service/internal/core/service"
	"github.com/99minutos/accounts-service/internal/infrastructure/auth"
	"github.com/99minutos/accounts-service/internal/infrastructure/db/memory"
	mongostore "github.com/99minutos/accounts-service/internal/infrastructure/db/mongo"
	pgstore "github.com/99minutos/accounts-service/internal/infrastructure/db/postgres"
	redisstore "github.com/99minutos/accounts-service/internal/infrastructure/db/redis"
	"github.com/99minutos/accounts-service/internal/pkg/config"
	"github.com/99minutos/accounts-service/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "accounts-service",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("accounts service stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	readiness := map[string]handler.Pinger{}
	var cleanups []func()
	defer func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}()

	repo, err := openStore(ctx, cfg, log, readiness, &cleanups)
	if err != nil {
		return err
	}

	var guard ports.SignupGuard
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		cleanups = append(cleanups, func() { _ = rdb.Close() })
		readiness["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		guard = redisstore.NewSignupLock(rdb, 0, log)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("signup lock enabled")
	}

	issuer, err := auth.NewJWTIssuer(cfg.Auth.JWTSecret, auth.WithIssuer(cfg.Auth.JWTIssuer))
	if err != nil {
		return err
	}

	accounts := service.NewAccountService(
		repo,
		auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		issuer,
		guard,
		service.AccountConfig{TokenTTL: cfg.Auth.TokenTTL},
		log,
	)

	e := api.NewRouter(api.RouterConfig{
		Accounts:      accounts,
		Issuer:        issuer,
		Readiness:     readiness,
		Logger:        log,
		EnableSwagger: cfg.IsDevelopment(),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("accounts service listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info().Msg("shutting down")
	return e.Shutdown(shutdownCtx)
}

func openStore(
	ctx context.Context,
	cfg *config.Config,
	log zerolog.Logger,
	readiness map[string]handler.Pinger,
	cleanups *[]func(),
) (ports.AccountRepository, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := pgstore.Connect(ctx, pgstore.Config{DSN: cfg.Postgres.DSN})
		if err != nil {
			return nil, err
		}
		*cleanups = append(*cleanups, pool.Close)
		if err := pgstore.RunMigrations(ctx, pool); err != nil {
			return nil, err
		}
		readiness["postgres"] = pool.Ping
		return pgstore.NewAccountRepository(pool), nil

	case config.StoreMemory:
		log.Warn().Msg("using in-memory account store; data is lost on restart")
		return memory.NewAccountRepository(), nil

	default:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  "accounts-service",
		})
		if err != nil {
			return nil, err
		}
		*cleanups = append(*cleanups, func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(dctx)
		})
		repo := mongostore.NewAccountRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		readiness["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		return repo, nil
	}
}
