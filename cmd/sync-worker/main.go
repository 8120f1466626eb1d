package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	calendardb "ms-calendar/internal/calendar/db"
	"ms-calendar/internal/calendar/mirror"
	rediswrap "ms-calendar/internal/calendar/redis"
	events "ms-calendar/internal/calendar/service"
	"ms-calendar/internal/config"
	"ms-calendar/internal/database"
	"ms-calendar/internal/kafka"
	"ms-calendar/internal/logger"

	"github.com/joho/godotenv"
)

// sync-worker applies bug tracker, code review and forum updates from the
// sync topic, outside the HTTP service.
func main() {
	log := logger.NewLogger("sync-worker")
	defer log.Close()

	_ = godotenv.Load() // Loads .env file if present

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

	topics := []string{cfg.Kafka.Topics.Sync, cfg.Kafka.Topics.EventChanges}
	if err := kafka.EnsureTopicsExist(ctx, cfg.Kafka.Brokers, topics, log); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.EventChanges, log)
	defer producer.Close()

	eventService := events.NewEventService(&calendardb.DB{Bun: bunDB}, producer, log)
	gateway := mirror.NewGateway(eventService, nil, log)

	if cfg.Redis.Enabled {
		redisClient, err := database.OpenRedis(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal("REDIS", err.Error())
		}
		defer redisClient.Close()
		gateway.Lock = rediswrap.NewRedis(redisClient, cfg.Redis.MirrorLockTTL, cfg.Redis.LockWait, log)
	}

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.Sync, cfg.Kafka.GroupID, log)
	defer consumer.Close()

	log.Info("APP", fmt.Sprintf("Sync worker consuming %s as %s", cfg.Kafka.Topics.Sync, cfg.Kafka.GroupID))
	if err := consumer.Start(ctx, gateway.HandleSyncMessage); err != nil {
		log.Error("KAFKA", err.Error())
	}
	log.Info("APP", "Sync worker shutdown complete")
}
