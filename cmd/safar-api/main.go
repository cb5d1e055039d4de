// README: Entry point; loads config, wires stores and services, starts HTTP.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"safar/internal/config"
	"safar/internal/dispatch"
	httptransport "safar/internal/http"
	"safar/internal/infra"
	"safar/internal/logging"
	"safar/internal/maps"
	"safar/internal/modules/driver"
	"safar/internal/modules/offer"
	"safar/internal/modules/pricing"
	"safar/internal/modules/ride"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores degrade to in-process implementations when the backing
	// service is not configured, so a bare binary still serves traffic.
	var rideStore ride.Store
	var driverStore driver.Store
	if cfg.DB.DSN != "" {
		pool, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			log.Fatalf("postgres init: %v", err)
		}
		defer pool.Close()
		rideStore = ride.NewPGStore(pool)
		driverStore = driver.NewPGStore(pool)
	} else {
		logger.Warn("SAFAR_DB_DSN not set, using in-memory stores")
		rideStore = ride.NewMemoryStore()
		driverStore = driver.NewMemoryStore()
	}

	var offerStore offer.Store
	if cfg.Redis.Addr != "" {
		offerStore = offer.NewRedisStore(infra.NewRedis(cfg.Redis.Addr))
	} else {
		logger.Warn("SAFAR_REDIS_ADDR not set, using in-memory offer store")
		offerStore = offer.NewMemoryStore()
	}

	var provider maps.Provider
	if cfg.Maps.APIKey != "" {
		provider, err = maps.NewGoogleProvider(cfg.Maps.APIKey)
		if err != nil {
			log.Fatalf("maps init: %v", err)
		}
	} else {
		logger.Warn("SAFAR_MAPS_API_KEY not set, geocoding degrades to fallback coordinates")
	}

	rides := ride.NewService(rideStore, driverStore, logger)
	drivers := driver.NewService(driverStore)
	fares := pricing.NewService(provider, cfg, logger)
	registry := dispatch.NewWSRegistry(logger)
	negotiator := ride.NewNegotiator(rides, driver.NewLocator(driverStore), offerStore, registry, cfg.Matching, logger)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Rides:      rides,
		Negotiator: negotiator,
		Drivers:    drivers,
		Fares:      fares,
		Registry:   registry,
		Logger:     logger,
		MatchCtx:   ctx,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	logger.Info("listening", "addr", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
