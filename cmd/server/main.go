package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gic/cashtransfer/internal/cache"
	"github.com/gic/cashtransfer/internal/config"
	"github.com/gic/cashtransfer/internal/database"
	"github.com/gic/cashtransfer/internal/events"
	"github.com/gic/cashtransfer/internal/fxrate"
	"github.com/gic/cashtransfer/internal/handler"
	"github.com/gic/cashtransfer/internal/middleware"
	"github.com/gic/cashtransfer/internal/repository"
	"github.com/gic/cashtransfer/internal/service"
	"github.com/gic/cashtransfer/internal/settings"
)

type publisher interface {
	service.SettlementPublisher
	Close() error
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file, using process environment")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	gin.SetMode(cfg.GinMode)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := database.RunMigrations(cfg.DatabaseURL()); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
		if err := database.SeedData(context.Background(), pool); err != nil {
			log.Fatal().Err(err).Msg("failed to seed data")
		}
	}

	var redisCache *cache.Cache
	if cfg.RedisAddr != "" {
		redisCache = cache.New(cfg.RedisAddr, cfg.RedisDB)
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, rate lookups fall through to postgres")
		}
	}

	var pub publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		pub = events.NewKafkaPublisher(events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaSettlementTopic))
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaSettlementTopic).Msg("publishing settlement events")
	}
	defer func() {
		if err := pub.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close settlement publisher")
		}
	}()

	platformSettings := settings.New(repository.NewSettingsRepository(pool), cfg.SettingsCacheTTL, settings.SystemClock{})
	if err := platformSettings.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to load platform settings")
	}
	defer platformSettings.Close()

	router := gin.New()
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(gin.Recovery())

	var cachePinger handler.Pinger
	if redisCache != nil {
		cachePinger = redisCache
	}
	healthHandler := handler.NewHealthHandler(pool, cachePinger)
	router.GET("/health", healthHandler.Health)

	handler.SetupSwagger(router)
	setupAPIRoutes(router, cfg, pool, redisCache, pub, platformSettings)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

func setupAPIRoutes(router *gin.Engine, cfg *config.Config, pool *pgxpool.Pool, redisCache *cache.Cache, pub service.SettlementPublisher, platformSettings *settings.Service) {
	countryRepo := repository.NewCountryRepository(pool)
	pmRepo := repository.NewPaymentMethodRepository(pool)
	walletRepo := repository.NewWalletRepository(pool)
	rateRepo := repository.NewRateRepository(pool)
	ledgerRepo := repository.NewLedgerRepository(pool)
	settlementRepo := repository.NewSettlementRepository(pool)
	marketRateRepo := repository.NewMarketRateRepository(pool)

	var (
		rates       service.RateSource = rateRepo
		invalidator service.RateInvalidator
	)
	if redisCache != nil {
		cached := cache.NewRateSource(rateRepo, redisCache, cfg.RateCacheTTL)
		rates, invalidator = cached, cached
	}

	var fx service.ExchangeRateProvider
	switch cfg.FXProvider {
	case config.FXProviderHTTP:
		fx = fxrate.NewHTTPProvider(cfg.FXAPIURL, cfg.FXAPIKey, cfg.FXTimeout)
	default:
		fx = fxrate.NewDatabaseProvider(marketRateRepo)
	}
	log.Info().Str("provider", cfg.FXProvider).Msg("exchange rate provider selected")

	resolver := service.NewRateResolver(service.NewRateLookup(rates))
	quoteService := service.NewQuoteService(countryRepo, resolver, fx, platformSettings)
	availabilityService := service.NewAvailabilityService(pmRepo, walletRepo)
	ledgerService := service.NewLedgerService(ledgerRepo, countryRepo, platformSettings, quoteService, pub)
	rateAdminService := service.NewRateAdminService(rateRepo, invalidator)

	quoteHandler := handler.NewQuoteHandler(quoteService)
	availabilityHandler := handler.NewAvailabilityHandler(availabilityService)
	settlementHandler := handler.NewSettlementHandler(ledgerService, settlementRepo)
	rateHandler := handler.NewRateHandler(rateAdminService)
	referenceHandler := handler.NewReferenceHandler(countryRepo, marketRateRepo, platformSettings)

	api := router.Group("/api/v1")
	{
		api.POST("/quotes", quoteHandler.Create)
		api.GET("/payment-methods/available", availabilityHandler.GetAvailable)

		api.POST("/settlements", settlementHandler.Create)
		api.GET("/settlements", settlementHandler.List)
		api.GET("/settlements/:id", settlementHandler.Get)

		api.GET("/transfer-rates", rateHandler.List)
		api.POST("/transfer-rates", rateHandler.Create)
		api.GET("/transfer-rates/:id", rateHandler.Get)
		api.PUT("/transfer-rates/:id", rateHandler.Update)
		api.DELETE("/transfer-rates/:id", rateHandler.Deactivate)

		api.GET("/countries", referenceHandler.ListCountries)
		api.GET("/market-rates", referenceHandler.ListMarketRates)
		api.PUT("/market-rates", referenceHandler.UpsertMarketRates)
		api.PUT("/settings/:key", referenceHandler.UpdateSetting)
	}
}
