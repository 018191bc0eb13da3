package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	Port        string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	AutoMigrate bool
	GinMode     string

	// RedisAddr is optional; rates are read straight from Postgres without it.
	RedisAddr    string
	RedisDB      int
	RateCacheTTL time.Duration

	FXProvider string
	FXAPIURL   string
	FXAPIKey   string
	FXTimeout  time.Duration

	KafkaBrokers         []string
	KafkaSettlementTopic string

	SettingsCacheTTL time.Duration
}

const (
	FXProviderDatabase = "database"
	FXProviderHTTP     = "http"
)

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "cashtransfer"),
		DBPassword:  getEnv("DB_PASSWORD", "cashtransfer_secret"),
		DBName:      getEnv("DB_NAME", "cashtransfer"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),
		AutoMigrate: getEnv("AUTO_MIGRATE", "false") == "true",
		GinMode:     getEnv("GIN_MODE", "debug"),

		RedisAddr:    getEnv("REDIS_ADDR", ""),
		RedisDB:      getEnvInt("REDIS_DB", 0),
		RateCacheTTL: getEnvDuration("RATE_CACHE_TTL", 5*time.Minute),

		FXProvider: strings.ToLower(getEnv("FX_PROVIDER", FXProviderDatabase)),
		FXAPIURL:   getEnv("FX_API_URL", ""),
		FXAPIKey:   getEnv("FX_API_KEY", ""),
		FXTimeout:  getEnvDuration("FX_TIMEOUT", 5*time.Second),

		KafkaBrokers:         getEnvList("KAFKA_BROKERS"),
		KafkaSettlementTopic: getEnv("KAFKA_SETTLEMENT_TOPIC", "cashtransfer.settlements"),

		SettingsCacheTTL: getEnvDuration("SETTINGS_CACHE_TTL", time.Minute),
	}
}

func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// Validate reports settings that would only fail later at first use.
func (c *Config) Validate() error {
	switch c.FXProvider {
	case FXProviderDatabase:
	case FXProviderHTTP:
		if c.FXAPIURL == "" {
			return fmt.Errorf("FX_API_URL is required when FX_PROVIDER=%s", FXProviderHTTP)
		}
	default:
		return fmt.Errorf("unknown FX_PROVIDER %q", c.FXProvider)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaSettlementTopic == "" {
		return fmt.Errorf("KAFKA_SETTLEMENT_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("invalid integer, using default")
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Warn().Str("key", key).Str("value", raw).Msg("invalid duration, using default")
		return fallback
	}
	return d
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
