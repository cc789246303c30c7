package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	server "roomfinder/internal/adapters/http_server"
	kafkaad "roomfinder/internal/adapters/kafka"
	"roomfinder/internal/adapters/observability"
	redisad "roomfinder/internal/adapters/redis"
	"roomfinder/internal/app"
	"roomfinder/internal/domain"
	"roomfinder/internal/realtime"
	"roomfinder/internal/shared"
	mysqlrepo "roomfinder/internal/storage/mysql"
)

func main() {
	// .env is optional; real env vars win
	_ = godotenv.Load()
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	repo := mysqlrepo.New(db)

	// search cache is optional
	var cache domain.Cache
	rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer rc.Close()
	if err := rc.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable; search cache disabled")
	} else {
		cache = rc
	}

	// realtime
	hub := realtime.NewHub(cfg.SubscriberBuffer, cfg.HeartbeatInterval)
	hubDone := make(chan struct{})
	go func() { hub.Run(ctx); close(hubDone) }()

	avail := app.NewAvailabilityService(repo)
	search := app.NewSearchService(repo, cache, cfg.SearchCacheTTL, cfg.Weights, cfg.SearchMaxCandidates)
	local := app.Notifiers{app.NewRealtimeNotifier(avail, hub), search}

	// cross-instance inventory events
	// stable across restarts so the broker keeps one consumer group per instance
	instance := cfg.ServiceName + "-" + cfg.InstanceID
	var (
		events domain.InventoryEvents
		prod   *kafkaad.Producer
	)
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkaad.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, instance, 1024)
		prod.Start(context.Background()) // closed explicitly after in-flight bookings drain
		events = prod

		cons := kafkaad.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroup+"-"+instance, cfg.KafkaTopic, 2)
		go func() {
			if err := cons.Start(ctx, kafkaad.InventoryHandler(instance, local)); err != nil {
				log.Error().Err(err).Msg("inventory consumer stopped")
			}
		}()
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Str("instance", instance).Msg("kafka enabled")
	}

	booking := app.NewBookingService(repo, local, events, cfg.NotifyTimeout)

	// http
	srv := server.New(server.Options{
		RequestTimeout: cfg.RequestTimeout,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Search: search, Booking: booking, Avail: avail, Hub: hub})

	// no WriteTimeout: realtime streams stay open indefinitely
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down")

	// closes every realtime stream so Shutdown is not held up by them
	cancel()
	<-hubDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}

	booking.Wait()
	if prod != nil {
		prod.Close()
		prod.WaitClosed()
	}
	log.Info().Msg("bye")
}
