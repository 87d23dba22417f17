package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultJWTAccessTTL       = "15m"
	defaultGatewayTimeout     = "10s"
	defaultSweepInterval      = "1m"
	defaultReservationTimeout = "15m"
	defaultReaperBatchSize    = "200"
	defaultCurrency           = "USD"
	defaultLockBackend        = "memory"
	defaultJWTSecret          = "change-me-jwt-secret"
	defaultPaymentSecret      = "change-me-payment-secret"
)

// EngineRuntimeConfig carries everything the booking engine reads from the
// environment: auth, payment gateway budget, reaper cadence and the lock
// backend selection.
type EngineRuntimeConfig struct {
	AppEnv       string
	JWTSecret    string
	JWTAccessTTL time.Duration

	Currency       string
	PaymentSecret  string
	GatewayTimeout time.Duration

	SweepInterval      time.Duration
	ReservationTimeout time.Duration
	ReaperBatchSize    int

	LockBackend string // memory or redis
	RedisAddr   string
}

func LoadEngineRuntimeConfig() (*EngineRuntimeConfig, error) {
	cfg := &EngineRuntimeConfig{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.PaymentSecret = strings.TrimSpace(getEnv("PAYGATE_SECRET", defaultPaymentSecret))
	cfg.Currency = strings.ToUpper(strings.TrimSpace(getEnv("BOOKING_CURRENCY", defaultCurrency)))
	cfg.LockBackend = strings.ToLower(strings.TrimSpace(getEnv("LOCK_BACKEND", defaultLockBackend)))
	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))

	var err error
	cfg.JWTAccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", defaultJWTAccessTTL)
	if err != nil {
		return nil, err
	}

	cfg.GatewayTimeout, err = parseDurationEnv("PAYGATE_TIMEOUT", defaultGatewayTimeout)
	if err != nil {
		return nil, err
	}

	cfg.SweepInterval, err = parseDurationEnv("REAPER_SWEEP_INTERVAL", defaultSweepInterval)
	if err != nil {
		return nil, err
	}

	cfg.ReservationTimeout, err = parseDurationEnv("RESERVATION_TIMEOUT", defaultReservationTimeout)
	if err != nil {
		return nil, err
	}

	cfg.ReaperBatchSize, err = parseIntEnv("REAPER_BATCH_SIZE", defaultReaperBatchSize)
	if err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.Printf("engine config: currency=%s gateway_timeout=%s sweep_interval=%s reservation_timeout=%s lock_backend=%s",
		cfg.Currency, cfg.GatewayTimeout, cfg.SweepInterval, cfg.ReservationTimeout, cfg.LockBackend)

	return cfg, nil
}

func validateConfig(cfg *EngineRuntimeConfig) error {
	if cfg.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	if cfg.GatewayTimeout <= 0 {
		return fmt.Errorf("PAYGATE_TIMEOUT must be > 0")
	}
	if cfg.SweepInterval <= 0 {
		return fmt.Errorf("REAPER_SWEEP_INTERVAL must be > 0")
	}
	if cfg.ReservationTimeout <= 0 {
		return fmt.Errorf("RESERVATION_TIMEOUT must be > 0")
	}
	if cfg.ReaperBatchSize <= 0 {
		return fmt.Errorf("REAPER_BATCH_SIZE must be > 0")
	}
	if len(cfg.Currency) != 3 {
		return fmt.Errorf("BOOKING_CURRENCY must be a 3-letter code")
	}
	if cfg.LockBackend != "memory" && cfg.LockBackend != "redis" {
		return fmt.Errorf("LOCK_BACKEND must be one of: memory, redis")
	}
	if cfg.LockBackend == "redis" && cfg.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR must be set when LOCK_BACKEND=redis")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.PaymentSecret, defaultPaymentSecret) {
			return fmt.Errorf("in prod/release PAYGATE_SECRET must be set and not default")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
