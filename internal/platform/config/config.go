// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	strutil "docutrack/pkg/platform/strings"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	HubOffice       string
	LogLevel        string
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
	SeedDefaults    bool

	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Classifier ClassifierConfig
	Session    SessionConfig
}

// DatabaseConfig selects PostgreSQL storage. An empty URL means in-memory.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
	AutoMigrate     bool
}

func (c DatabaseConfig) Enabled() bool { return c.URL != "" }

// RedisConfig selects the Redis session revocation list. An empty URL means
// revocations are kept in memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig selects the notification event producer. No brokers means
// events are only logged.
type KafkaConfig struct {
	Brokers            []string
	NotificationsTopic string
	Partitions         int32
	ReplicationFactor  int16
	BufferSize         int
}

func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

// ClassifierConfig points at the document classifier. An empty URL disables
// classification.
type ClassifierConfig struct {
	URL              string
	Timeout          time.Duration
	FailureThreshold int
}

type SessionConfig struct {
	SigningKey string
	Issuer     string
	TTL        time.Duration
}

const devSigningKey = "dev-secret-key-change-in-production"

// FromEnv builds a Server config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present; real
// environment variables take precedence.
func FromEnv() (Server, error) {
	_ = godotenv.Load()

	cfg := Server{
		Addr:            getString("DOCUTRACK_ADDR", ":8080"),
		HubOffice:       getString("DOCUTRACK_HUB_OFFICE", "Records Section"),
		LogLevel:        getString("LOG_LEVEL", "info"),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 30*time.Second),
		SeedDefaults:    getBool("SEED_DEFAULTS", false),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnectTimeout:  getDuration("DATABASE_CONNECT_TIMEOUT", 5*time.Second),
			AutoMigrate:     getBool("DATABASE_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:            getList("KAFKA_BROKERS"),
			NotificationsTopic: getString("KAFKA_NOTIFICATIONS_TOPIC", "docutrack.notifications"),
			Partitions:         int32(getInt("KAFKA_PARTITIONS", 1)),
			ReplicationFactor:  int16(getInt("KAFKA_REPLICATION_FACTOR", 1)),
			BufferSize:         getInt("KAFKA_BUFFER_SIZE", 256),
		},
		Classifier: ClassifierConfig{
			URL:              os.Getenv("CLASSIFIER_URL"),
			Timeout:          getDuration("CLASSIFIER_TIMEOUT", 5*time.Second),
			FailureThreshold: getInt("CLASSIFIER_FAILURE_THRESHOLD", 3),
		},
		Session: SessionConfig{
			SigningKey: getString("JWT_SIGNING_KEY", devSigningKey),
			Issuer:     getString("JWT_ISSUER", "docutrack"),
			TTL:        getDuration("SESSION_TTL", 12*time.Hour),
		},
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the server cannot run with.
func (c Server) Validate() error {
	var errs []error
	if strings.TrimSpace(c.HubOffice) == "" {
		errs = append(errs, errors.New("DOCUTRACK_HUB_OFFICE must not be empty"))
	}
	if len(c.Session.SigningKey) < 16 {
		errs = append(errs, errors.New("JWT_SIGNING_KEY must be at least 16 characters"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.Kafka.Enabled() && c.Kafka.NotificationsTopic == "" {
		errs = append(errs, errors.New("KAFKA_NOTIFICATIONS_TOPIC is required when KAFKA_BROKERS is set"))
	}
	if c.Kafka.BufferSize <= 0 {
		errs = append(errs, errors.New("KAFKA_BUFFER_SIZE must be positive"))
	}
	return errors.Join(errs...)
}

// UsesDevSigningKey reports whether the built-in development key is active.
func (c Server) UsesDevSigningKey() bool {
	return c.Session.SigningKey == devSigningKey
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getList(key string) []string {
	return strutil.SplitList(os.Getenv(key), ",")
}

func (c Server) String() string {
	return fmt.Sprintf("addr=%s hub=%q postgres=%t redis=%t kafka=%t classifier=%t",
		c.Addr, c.HubOffice, c.Database.Enabled(), c.Redis.URL != "", c.Kafka.Enabled(), c.Classifier.URL != "")
}
