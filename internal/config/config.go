package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress           string
	DatabaseURI          string
	AMQPAddress          string
	NotifyExchange       string
	ShippingQueue        string
	TokenSecret          string
	ShippingPollInterval time.Duration
	WorkerPoolSize       int
	ShutdownTimeout      time.Duration
	MaxShippingBatch     int
}

const (
	defaultRunAddress           = ":8080"
	defaultNotifyExchange       = "orderengine.notifications"
	defaultShippingQueue        = "orderengine.shipping"
	defaultTokenSecret          = "change-me-in-production"
	defaultShippingPollInterval = 3 * time.Second
	defaultWorkerPoolSize       = 4
	defaultShutdownTimeout      = 10 * time.Second
	defaultMaxShippingBatch     = 32
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:           getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:          getString(lookup, "DATABASE_URI", ""),
		AMQPAddress:          getString(lookup, "AMQP_ADDRESS", ""),
		NotifyExchange:       getString(lookup, "NOTIFY_EXCHANGE", defaultNotifyExchange),
		ShippingQueue:        getString(lookup, "SHIPPING_QUEUE", defaultShippingQueue),
		TokenSecret:          getString(lookup, "TOKEN_SECRET", defaultTokenSecret),
		ShippingPollInterval: getDuration(lookup, "SHIPPING_POLL_INTERVAL", defaultShippingPollInterval),
		WorkerPoolSize:       getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		ShutdownTimeout:      getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		MaxShippingBatch:     getInt(lookup, "SHIPPING_BATCH_SIZE", defaultMaxShippingBatch),
	}

	fs := flag.NewFlagSet("orderengine", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		pollIntervalStr    = cfg.ShippingPollInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.AMQPAddress, "b", cfg.AMQPAddress, "AMQP broker URL")
	fs.StringVar(&cfg.NotifyExchange, "notify-exchange", cfg.NotifyExchange, "Exchange for user notification routing")
	fs.StringVar(&cfg.ShippingQueue, "shipping-queue", cfg.ShippingQueue, "Queue for shipping dispatch events")
	fs.StringVar(&cfg.TokenSecret, "token-secret", cfg.TokenSecret, "Secret shared with the auth service for token verification")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent shipping dispatch workers")
	fs.StringVar(&pollIntervalStr, "poll-interval", pollIntervalStr, "Interval between shipping dispatch polls")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.IntVar(&cfg.MaxShippingBatch, "poll-batch", cfg.MaxShippingBatch, "Maximum shipping orders per polling batch")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.ShippingPollInterval, err = time.ParseDuration(pollIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid poll interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if secretFile, ok := lookup("TOKEN_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read token secret file: %w", err)
		}
		cfg.TokenSecret = string(content)
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.MaxShippingBatch <= 0 {
		cfg.MaxShippingBatch = defaultMaxShippingBatch
	}

	if cfg.ShippingPollInterval <= 0 {
		cfg.ShippingPollInterval = defaultShippingPollInterval
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.AMQPAddress == "" {
		return nil, fmt.Errorf("AMQP broker address must be provided")
	}

	return cfg, nil
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
