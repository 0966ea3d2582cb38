package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Key names a recognized environment variable.
type Key string

const (
	KeyRPCURL            Key = "RPC_URL"
	KeyTradingPrivateKey Key = "TRADING_PRIVATE_KEY"
	KeyJupiterAPIPath    Key = "JUPITER_API_PATH"

	// KeyRedisAddr is optional for most commands and required by watch.
	KeyRedisAddr Key = "REDIS_ADDR"
)

// RequiredKeys lists the keys Load refuses to start without, in lookup order.
var RequiredKeys = []Key{KeyRPCURL, KeyTradingPrivateKey, KeyJupiterAPIPath}

// MissingKeyError is returned when a required key is absent or empty.
type MissingKeyError struct {
	Key Key
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("missing environment variable: %s", e.Key)
}

type Config struct {
	// Required
	RPCURL            string
	TradingPrivateKey string
	JupiterAPIPath    string

	// Jupiter settings
	JupiterAPIKey    string
	JupiterRateLimit float64
	JupiterBurst     int

	// HTTP client settings
	HTTPTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// Confirmation polling
	PollInterval      time.Duration
	ConfirmTimeout    time.Duration
	ConfirmCommitment string

	// Redis settings
	RedisAddr string

	// ClickHouse settings
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// API settings
	APIAddr string
	APIKey  string

	LogLevel string
}

// LoadDotEnv populates the process environment from a .env file. Variables
// already set in the environment win over the file.
func LoadDotEnv(paths ...string) error {
	return godotenv.Load(paths...)
}

// GetOrFail returns the value configured for key or a *MissingKeyError.
func GetOrFail(key Key) (string, error) {
	val := os.Getenv(string(key))
	if val == "" {
		return "", &MissingKeyError{Key: key}
	}
	return val, nil
}

// Load reads the process environment once. It fails on the first missing
// required key; optional settings fall back to defaults.
func Load() (*Config, error) {
	required := make(map[Key]string, len(RequiredKeys))
	for _, k := range RequiredKeys {
		v, err := GetOrFail(k)
		if err != nil {
			return nil, err
		}
		required[k] = v
	}

	return &Config{
		RPCURL:            required[KeyRPCURL],
		TradingPrivateKey: required[KeyTradingPrivateKey],
		JupiterAPIPath:    required[KeyJupiterAPIPath],

		// Jupiter
		JupiterAPIKey:    getEnv("JUPITER_API_KEY", ""),
		JupiterRateLimit: getFloatEnv("JUPITER_RATE_LIMIT", 1),
		JupiterBurst:     getIntEnv("JUPITER_BURST", 2),

		// HTTP
		HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 30*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 0),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", 1*time.Second),

		// Confirmation
		PollInterval:      getDurationEnv("POLL_INTERVAL", 1*time.Second),
		ConfirmTimeout:    getDurationEnv("CONFIRM_TIMEOUT", 90*time.Second),
		ConfirmCommitment: getEnv("CONFIRM_COMMITMENT", "confirmed"),

		// Redis
		RedisAddr: getEnv(string(KeyRedisAddr), ""),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "solana"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// API
		APIAddr: getEnv("API_ADDR", ":8090"),
		APIKey:  getEnv("API_KEY", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
