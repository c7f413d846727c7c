package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vertax/config"
	httpHandler "vertax/internal/adapter/http/handler"
	"vertax/internal/adapter/provider"
	"vertax/internal/adapter/render"
	"vertax/internal/adapter/solana"
	pgStorage "vertax/internal/adapter/storage/postgres"
	redisStorage "vertax/internal/adapter/storage/redis"
	"vertax/internal/core/ports"
	"vertax/internal/service"
	"vertax/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	// A local .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("VTX_CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting vertax API")

	ctx := context.Background()

	defaultRates, err := service.ParseRates(cfg.Tax.ShortTermRate, cfg.Tax.LongTermRate)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid default tax rates")
	}

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	if err := pgStorage.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}

	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// Price sources, in configured priority order.
	providers, err := provider.FromConfig(cfg.Providers, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid price provider configuration")
	}
	chain, err := service.NewProviderChain(log, providers...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build price provider chain")
	}
	log.Info().Strs("providers", chain.Names()).Msg("Price provider chain ready")

	encSvc, err := service.NewAESEncryptionService(cfg.Privacy.AESKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	protector, err := service.NewWalletProtector(encSvc, cfg.Privacy.FingerprintKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize wallet protector")
	}

	rpc := solana.NewClient(cfg.Solana.RPCURL, cfg.Solana.SignatureLimit, cfg.Solana.Timeout, log)

	// Each run gets its own price cache; nothing is shared across requests.
	newResolver := func() ports.PriceResolver {
		return service.NewPriceResolver(chain, log)
	}

	reportSvc := service.NewReportService(
		rpc,
		solana.NewNormalizer(log),
		service.NewWalletTaxProcessor(log),
		newResolver,
		protector,
		pgStorage.NewReportRepo(pool),
		redisStorage.NewReportCache(rdb),
		service.ReportOptions{
			CacheTTL:     cfg.Report.CacheTTL,
			HistoryLimit: cfg.Report.HistoryLimit,
		},
		log,
	)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		ReportSvc:      reportSvc,
		DefaultRates:   defaultRates,
		Renderers:      map[string]ports.ReportRenderer{"csv": render.NewCSVRenderer()},
		RateLimitStore: redisStorage.NewRateLimitStore(rdb),
		HealthCheckers: []ports.HealthChecker{
			pgStorage.NewHealthCheck(pool),
			redisStorage.NewHealthCheck(rdb),
			rpc,
		},
		Mode:   cfg.Server.Mode,
		Logger: log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	// Wallet reports can take a while; give in-flight runs time to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
