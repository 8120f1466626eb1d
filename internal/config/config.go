package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Calendar CalendarConfig
	LogLevel string
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Driver       string // postgres or sqlite
	PostgresDSN  string
	SQLiteDSN    string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	AutoMigrate  bool
	ConnRetries  int
}

type RedisConfig struct {
	Enabled       bool
	Addr          string
	MirrorLockTTL time.Duration
	LockWait      time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	GroupID       string
	Topics        TopicConfig
	Enabled       bool
	ConsumeInline bool
}

type TopicConfig struct {
	Sync         string
	EventChanges string
}

type CalendarConfig struct {
	ICSProductID string
	SSEBuffer    int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", ":5000"),
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    0, // SSE streams stay open
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "postgres"),
			PostgresDSN:  getEnv("POSTGRES_DSN", ""),
			SQLiteDSN:    getEnv("SQLITE_DSN", "file:calendar.db?cache=shared"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
			AutoMigrate:  getEnvBool("AUTO_MIGRATE", true),
			ConnRetries:  getEnvInt("DB_CONN_RETRIES", 5),
		},
		Redis: RedisConfig{
			Enabled:       getEnvBool("REDIS_ENABLED", false),
			Addr:          getEnv("REDIS_ADDR", "localhost:6379"),
			MirrorLockTTL: getEnvDuration("MIRROR_LOCK_TTL", 10*time.Second),
			LockWait:      getEnvDuration("MIRROR_LOCK_WAIT", 2*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:       getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			GroupID:       getEnv("KAFKA_GROUP_ID", "calendar-sync-group"),
			Enabled:       getEnvBool("KAFKA_ENABLED", false),
			ConsumeInline: getEnvBool("KAFKA_CONSUME_INLINE", false),
			Topics: TopicConfig{
				Sync:         getEnv("KAFKA_TOPIC_SYNC", "calendar.sync"),
				EventChanges: getEnv("KAFKA_TOPIC_EVENT_CHANGES", "calendar.events.changed"),
			},
		},
		Calendar: CalendarConfig{
			ICSProductID: getEnv("ICS_PRODUCT_ID", "-//team-calendar//EN"),
			SSEBuffer:    getEnvInt("SSE_BUFFER", 10),
		},
		LogLevel: getEnv("LOG_LEVEL", "INFO"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
