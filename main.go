package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"ms-calendar/internal/calendar/calendar_api"
	calendardb "ms-calendar/internal/calendar/db"
	"ms-calendar/internal/calendar/mirror"
	rediswrap "ms-calendar/internal/calendar/redis"
	events "ms-calendar/internal/calendar/service"
	"ms-calendar/internal/config"
	"ms-calendar/internal/database"
	"ms-calendar/internal/kafka"
	"ms-calendar/internal/logger"
	"ms-calendar/internal/sse"

	"github.com/joho/godotenv"
)

func main() {
	log := logger.NewLogger("calendar-service")
	defer log.Close()

	log.Info("APP", "Starting Calendar Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	log.SetLevel(logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	if err := database.PrepareSchema(ctx, bunDB, cfg.Database, log); err != nil {
		log.Fatal("MIGRATE", err.Error())
	}

	emitter := sse.NewChangeEventEmitter(cfg.Calendar.SSEBuffer)
	publishers := events.Publishers{emitter}

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		topics := []string{cfg.Kafka.Topics.Sync, cfg.Kafka.Topics.EventChanges}
		if err := kafka.EnsureTopicsExist(ctx, cfg.Kafka.Brokers, topics, log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.EventChanges, log)
		defer producer.Close()
		publishers = append(publishers, producer)
		log.Info("KAFKA", "Kafka producer initialized successfully")
	}

	eventService := events.NewEventService(&calendardb.DB{Bun: bunDB}, publishers, log)
	gateway := mirror.NewGateway(eventService, nil, log)

	if cfg.Redis.Enabled {
		redisClient, err := database.OpenRedis(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal("REDIS", err.Error())
		}
		defer redisClient.Close()
		gateway.Lock = rediswrap.NewRedis(redisClient, cfg.Redis.MirrorLockTTL, cfg.Redis.LockWait, log)
		log.Info("REDIS", "Mirror lock enabled")
	} else {
		log.Warn("REDIS", "Redis disabled, relying on the unique index for mirror deduplication")
	}

	if cfg.Kafka.Enabled && cfg.Kafka.ConsumeInline {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.Sync, cfg.Kafka.GroupID, log)
		defer consumer.Close()
		go func() {
			if err := consumer.Start(ctx, gateway.HandleSyncMessage); err != nil {
				log.Error("KAFKA", fmt.Sprintf("Sync consumer stopped: %v", err))
			}
		}()
	}

	handler := calendar_api.NewHandler(eventService, gateway, emitter, log)
	handler.ICSProductID = cfg.Calendar.ICSProductID

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      calendar_api.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Calendar Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Calendar Service shutdown complete")
	}
}
