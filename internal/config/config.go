package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"cloudmine_backend/internal/logger"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	JWTSecret   string

	// Shared key the identity edge presents to mint user tokens. Empty
	// disables the issuance endpoint.
	InternalAuthKey string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	VerifierURL    string
	VerifierAPIKey string

	// Accrual engine
	CycleLength   time.Duration // one payout cycle, 6h in production
	SchedulerTick time.Duration // accrual re-evaluation interval

	// Payment verification
	PaymentPollInterval  time.Duration
	PaymentVerifyTimeout time.Duration

	// Withdrawals (USD)
	MinWithdrawal         decimal.Decimal
	MinWithdrawalByCrypto map[string]decimal.Decimal

	// API rate limiting
	APIRateLimit  int
	APIRateWindow time.Duration
}

// Load reads config from env
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	verifierURL := os.Getenv("VERIFIER_API_URL")
	if verifierURL == "" {
		logger.Fatal("VERIFIER_API_URL is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	return &Config{
		AppPort:     port,
		DatabaseURL: dbURL,
		JWTSecret:   jwtSecret,

		InternalAuthKey: os.Getenv("INTERNAL_AUTH_KEY"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		VerifierURL:    verifierURL,
		VerifierAPIKey: os.Getenv("VERIFIER_API_KEY"),

		CycleLength:   envDuration("CYCLE_LENGTH", 6*time.Hour),
		SchedulerTick: envDuration("SCHEDULER_TICK", time.Minute),

		PaymentPollInterval:  envDuration("PAYMENT_POLL_INTERVAL", 5*time.Second),
		PaymentVerifyTimeout: envDuration("PAYMENT_VERIFY_TIMEOUT", 5*time.Minute),

		MinWithdrawal:         envDecimal("MIN_WITHDRAWAL_USD", decimal.NewFromInt(10)),
		MinWithdrawalByCrypto: envCryptoMinimums(),

		APIRateLimit:  envInt("API_RATE_LIMIT", 60),
		APIRateWindow: envDuration("API_RATE_WINDOW", time.Minute),
	}
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
		logger.Warn("invalid duration in env, using default", "key", key, "value", v, "default", def.String())
	}
	return def
}

func envDecimal(key string, def decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && d.IsPositive() {
			return d
		}
		logger.Warn("invalid decimal in env, using default", "key", key, "value", v, "default", def.String())
	}
	return def
}

// envCryptoMinimums parses MIN_WITHDRAWAL_CRYPTO, e.g.
// "bitcoin=10,ethereum=10,dogecoin=10" (USD per crypto type).
func envCryptoMinimums() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	raw := os.Getenv("MIN_WITHDRAWAL_CRYPTO")
	if raw == "" {
		return out
	}
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		if d, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil && d.IsPositive() {
			out[strings.TrimSpace(k)] = d
		}
	}
	return out
}
