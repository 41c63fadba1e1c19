package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IlyasAtabaev731/wallet/internal/api"
	"github.com/IlyasAtabaev731/wallet/internal/config"
	"github.com/IlyasAtabaev731/wallet/internal/identity"
	"github.com/IlyasAtabaev731/wallet/internal/keepalive"
	"github.com/IlyasAtabaev731/wallet/internal/storage/postgres"
	"github.com/IlyasAtabaev731/wallet/internal/storage/redis"
	"github.com/IlyasAtabaev731/wallet/internal/wallet"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting application",
		slog.String("env", cfg.Env),
		slog.String("host", cfg.ApiHost),
		slog.Int("port", cfg.ApiPort),
		slog.String("auth_provider", cfg.Auth.Provider),
	)

	dbUrl := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Postgres.User,
		cfg.Postgres.Pass,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.Db,
	)

	storage, err := postgres.New(dbUrl, log)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer storage.Stop()

	ctx := context.Background()

	markers, err := setupMarkers(ctx, cfg, storage, log)
	if err != nil {
		log.Error("Failed to set up sync markers", "error", err)
		os.Exit(1)
	}

	provider, err := setupProvider(ctx, cfg, storage, log)
	if err != nil {
		log.Error("Failed to set up identity provider", "error", err)
		os.Exit(1)
	}

	syncer := identity.NewSyncer(storage, markers, log, cfg.Auth.SyncTTL)
	walletService := wallet.NewService(storage, log)

	var pinger *keepalive.Pinger
	if cfg.Cron.APIURL != "" {
		pinger = keepalive.NewPinger(nil, cfg.Cron.APIURL)
	}

	var scheduler *keepalive.Scheduler
	if cfg.Cron.Enabled && pinger != nil {
		scheduler = keepalive.NewScheduler(pinger, log)
		if err := scheduler.Register(cfg.Cron.Schedule); err != nil {
			log.Error("Failed to register health ping", "error", err)
			os.Exit(1)
		}
		scheduler.Start()
	}

	apiServer := api.New(cfg, log, provider, syncer, storage, walletService, pinger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		apiServer.MustStart()
	}()

	<-sigChan
	log.Info("Got signal to shutdown server")

	if scheduler != nil {
		scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := apiServer.Stop(ctx); err != nil {
		log.Error("Stopping server error", "error", err)
	}
}

// setupMarkers uses Redis when configured, otherwise an in-memory store
// warmed with the users already in the database.
func setupMarkers(ctx context.Context, cfg *config.Config, storage *postgres.Storage, log *slog.Logger) (identity.MarkerStore, error) {
	if cfg.Redis.Addr != "" {
		markers := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := markers.Ping(ctx); err != nil {
			return nil, err
		}
		log.Info("Using redis sync markers", slog.String("addr", cfg.Redis.Addr))
		return markers, nil
	}

	ids, err := storage.UserIDs(ctx)
	if err != nil {
		return nil, err
	}

	markers := identity.NewMemoryMarkers()
	markers.Warm(ids, cfg.Auth.SyncTTL)
	log.Info("Using in-memory sync markers", slog.Int("users", len(ids)))
	return markers, nil
}

func setupProvider(ctx context.Context, cfg *config.Config, storage *postgres.Storage, log *slog.Logger) (identity.Provider, error) {
	switch cfg.Auth.Provider {
	case config.ProviderCognito:
		return identity.NewCognitoProvider(ctx, log, cfg.Cognito.Region, cfg.Cognito.UserPoolID, cfg.Cognito.ClientID)
	default:
		return identity.NewLocalProvider(storage, log, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), nil
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}
	return log
}
