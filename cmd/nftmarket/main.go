package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/efreitasn/nftmarket/internal/config"
	"github.com/efreitasn/nftmarket/internal/engine"
	"github.com/efreitasn/nftmarket/internal/events"
	"github.com/efreitasn/nftmarket/internal/handler"
	"github.com/efreitasn/nftmarket/internal/service"
	"github.com/efreitasn/nftmarket/internal/store"
	"github.com/efreitasn/nftmarket/internal/stream"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	accountStore := store.NewAccountStore()
	listingStore := store.NewListingStore()
	tradeStore := store.NewTradeStore()
	webhookStore := store.NewWebhookStore()

	webhookSvc := service.NewWebhookService(webhookStore, cfg.WebhookTimeout, cfg.TokenDecimals, logger)
	hub := stream.NewHub(cfg.TokenDecimals, logger)

	// Trades are recorded before any external consumer sees them.
	sinks := events.Fanout{events.NewTradeRecorder(tradeStore), webhookSvc, hub}

	var redisPub *events.RedisPublisher
	if cfg.Redis.Addr != "" {
		var err error
		redisPub, err = events.NewRedisPublisher(ctx, events.RedisConfig{
			Addr:          cfg.Redis.Addr,
			Password:      cfg.Redis.Password,
			DB:            cfg.Redis.DB,
			ChannelPrefix: cfg.Redis.ChannelPrefix,
		}, cfg.TokenDecimals, logger)
		if err != nil {
			return err
		}
		defer redisPub.Close()
		sinks = append(sinks, redisPub)
		logger.Info("redis publisher enabled", slog.String("addr", cfg.Redis.Addr))
	}

	contract, err := engine.NewContract(
		engine.ContractConfig{Address: cfg.ContractAddress, GenesisOwner: cfg.GenesisOwner},
		accountStore,
		listingStore,
		sinks,
		logger,
	)
	if err != nil {
		return fmt.Errorf("create contract: %w", err)
	}

	router := handler.NewRouter(
		service.NewAccountService(accountStore, contract, cfg.TokenDecimals),
		service.NewTokenService(contract),
		service.NewMarketService(contract, tradeStore, cfg.TokenDecimals),
		webhookSvc,
		hub.HandleWS,
		cfg.TokenDecimals,
		logger,
	)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(gctx)
	})
	if redisPub != nil {
		g.Go(func() error {
			return redisPub.Run(gctx)
		})
	}

	g.Go(func() error {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.String("contract", contract.Address().Hex()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	return g.Wait()
}
