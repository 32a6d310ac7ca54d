// Package config provides the configuration structures shared by the api gateway
// and the statement processor, together with their validation rules.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds the complete application configuration. Each field is one subsystem
// and is validated as a whole during start-up.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Auth        AuthConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig

	// Source is the config file that was read, empty when only defaults and the environment apply
	Source string
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// IsDevelopment reports whether the process runs in a local or test environment,
// the only places the built-in JWT secret is accepted.
func (a ApplicationConfig) IsDevelopment() bool {
	switch strings.ToLower(a.Env) {
	case "development", "dev", "local", "test":
		return true
	}
	return false
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// AuthConfig contains session token settings
type AuthConfig struct {
	JWTSecret    string
	JWTIssuer    string
	JWTExpiresIn time.Duration
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Brokers           string
	StatementTopic    string
	NumPartitions     int // Number of partitions for topics
	ReplicationFactor int // Replication factor for topics
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string // Topic for undecodable statement events
}

// BrokerList splits the comma separated broker string
func (k KafkaConfig) BrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(k.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string        // Database connection string
	MaxConns        int32         // Maximum number of open connections
	MinConns        int32         // Minimum number of idle connections
	ConnMaxLifetime time.Duration // Maximum lifetime of a connection
	ConnMaxIdleTime time.Duration // Maximum idle time of a connection
	MigrationsPath  string        // Path to migration files
}

// MongoDBConfig contains MongoDB configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// OutboxConfig contains outbox relay configuration
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int // Attempts before a message is marked FAILED_TO_PUBLISH
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int // Maximum number of projection workers
}

type violations []string

func (v *violations) check(failed bool, msg string) {
	if failed {
		*v = append(*v, msg)
	}
}

// validate collects every violation so a broken environment is reported in one go
func (c *Config) validate() error {
	var errs violations

	errs.check(c.Server.Port <= 0, "SERVER_PORT must be greater than 0")
	errs.check(c.Server.ShutdownTimeout <= 0, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	errs.check(c.Server.ReadTimeout <= 0, "SERVER_READ_TIMEOUT must be greater than 0")
	errs.check(c.Server.WriteTimeout <= 0, "SERVER_WRITE_TIMEOUT must be greater than 0")
	errs.check(c.Server.IdleTimeout <= 0, "SERVER_IDLE_TIMEOUT must be greater than 0")

	errs.check(c.Auth.JWTSecret == "", "JWT_SECRET is required")
	if !c.Application.IsDevelopment() && c.Auth.JWTSecret != "" {
		errs.check(c.Auth.JWTSecret == developmentJWTSecret,
			fmt.Sprintf("JWT_SECRET must be set explicitly when APP_ENV=%s", c.Application.Env))
		errs.check(len(c.Auth.JWTSecret) < minJWTSecretLength,
			fmt.Sprintf("JWT_SECRET must be at least %d bytes when APP_ENV=%s", minJWTSecretLength, c.Application.Env))
	}
	errs.check(c.Auth.JWTIssuer == "", "JWT_ISSUER is required")
	errs.check(c.Auth.JWTExpiresIn <= 0, "JWT_EXPIRES_IN must be greater than 0")

	errs.check(len(c.Kafka.BrokerList()) == 0, "KAFKA_BROKERS is required")
	errs.check(c.Kafka.StatementTopic == "", "KAFKA_STATEMENT_TOPIC is required")
	errs.check(c.Kafka.ConsumerGroup == "", "KAFKA_CONSUMER_GROUP is required")
	errs.check(c.Kafka.MinBytes <= 0, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	errs.check(c.Kafka.MaxBytes <= 0, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	errs.check(c.Kafka.MaxWait <= 0, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	errs.check(c.Kafka.DLQTopic == "", "KAFKA_DLQ_TOPIC is required")

	errs.check(c.Postgres.URL == "", "POSTGRES_URL is required")
	errs.check(c.Postgres.MaxConns <= 0, "POSTGRES_MAX_CONNS must be greater than 0")
	errs.check(c.Postgres.MinConns <= 0, "POSTGRES_MIN_CONNS must be greater than 0")
	errs.check(c.Postgres.ConnMaxLifetime <= 0, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	errs.check(c.Postgres.ConnMaxIdleTime <= 0, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")

	errs.check(c.MongoDB.URI == "", "MONGO_URI is required")
	errs.check(c.MongoDB.Database == "", "MONGO_DATABASE is required")
	errs.check(c.MongoDB.Timeout <= 0, "MONGO_TIMEOUT must be greater than 0")
	errs.check(c.MongoDB.MaxPoolSize == 0, "MONGO_MAX_POOL_SIZE must be greater than 0")
	errs.check(c.MongoDB.MaxConnIdleTime <= 0, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")

	errs.check(c.Outbox.PollingInterval <= 0, "OUTBOX_POLLING_INTERVAL must be greater than 0")
	errs.check(c.Outbox.BatchSize <= 0, "OUTBOX_BATCH_SIZE must be greater than 0")
	errs.check(c.Outbox.MaxRetryAttempts <= 0, "OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")

	errs.check(c.WorkerPool.Size <= 0, "WORKER_POOL_SIZE must be greater than 0")

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, ", "))
	}
	return nil
}
