package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is read from an optional YAML file and then the environment. An
// environment variable always wins over the file.
type Config struct {
	Issuer         string `yaml:"issuer"`         // iss claim (default: agentgrant)
	PublicURL      string `yaml:"publicUrl"`      // base for consent links (default: http://localhost:8080)
	BootstrapToken string `yaml:"bootstrapToken"` // Optional: enables POST /v1/developers

	Algorithm      string `yaml:"algorithm"`      // RS256, ES256 or EdDSA (default: EdDSA)
	KeyMode        string `yaml:"keyMode"`        // ephemeral or file (default: ephemeral)
	SigningKeyFile string `yaml:"signingKeyFile"` // PEM private key, file mode only
	NumKeys        int    `yaml:"numKeys"`        // ephemeral keys to generate (default: 1)
	RSABits        int    `yaml:"rsaBits"`        // RSA size for ephemeral RS256 (default: 2048)

	StoreDriver    string `yaml:"storeDriver"`    // sqlite or postgres (default: sqlite)
	DatabaseFile   string `yaml:"databaseFile"`   // sqlite path (default: agentgrant.db)
	DatabaseURL    string `yaml:"databaseUrl"`    // postgres DSN
	DenylistDriver string `yaml:"denylistDriver"` // memory or redis (default: memory)
	RedisURL       string `yaml:"redisUrl"`       // redis:// URL for the denylist
	PepperFile     string `yaml:"pepperFile"`     // argon2 pepper (default: ./pepper)

	MaxDelegationDepth int           `yaml:"maxDelegationDepth"` // 0 means unlimited
	StoreTimeout       time.Duration `yaml:"storeTimeout"`       // per-call store deadline (default: 5s)

	Env                  string        `yaml:"env"`                  // dev, staging, prod (default: dev)
	LogLevel             string        `yaml:"logLevel"`             // debug, info, warn, error (default: info)
	LogFormat            string        `yaml:"logFormat"`            // json or text (default: json)
	Port                 int           `yaml:"port"`                 // HTTP port (default: 8080)
	ShutdownGracePeriod  time.Duration `yaml:"shutdownGracePeriod"`  // graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration `yaml:"housekeepingInterval"` // expiry sweep interval (default: 1h)
}

const (
	KeyModeEphemeral = "ephemeral"
	KeyModeFile      = "file"

	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"

	DenylistMemory = "memory"
	DenylistRedis  = "redis"
)

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Issuer:               "agentgrant",
		PublicURL:            "http://localhost:8080",
		Algorithm:            "EdDSA",
		KeyMode:              KeyModeEphemeral,
		NumKeys:              1,
		RSABits:              2048,
		StoreDriver:          StoreSQLite,
		DatabaseFile:         "agentgrant.db",
		DenylistDriver:       DenylistMemory,
		PepperFile:           "pepper",
		StoreTimeout:         5 * time.Second,
		Env:                  "dev",
		LogLevel:             "info",
		LogFormat:            "json",
		Port:                 8080,
		ShutdownGracePeriod:  10 * time.Second,
		HousekeepingInterval: time.Hour,
	}
}

// LoadConfig reads the environment on top of the defaults.
func LoadConfig() Config {
	return applyEnv(DefaultConfig())
}

// LoadConfigFile reads path (when non-empty) on top of the defaults, then
// the environment, and validates the result.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg = applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg Config) Config {
	cfg.Issuer = getEnvOrDefault("AUTH_ISSUER", cfg.Issuer)
	cfg.PublicURL = getEnvOrDefault("AUTH_PUBLIC_URL", cfg.PublicURL)
	cfg.BootstrapToken = getEnvOrDefault("BOOTSTRAP_TOKEN", cfg.BootstrapToken)

	cfg.Algorithm = getEnvOrDefault("AUTH_ALGORITHM", cfg.Algorithm)
	cfg.KeyMode = getEnvOrDefault("AUTH_KEY_MODE", cfg.KeyMode)
	cfg.SigningKeyFile = getEnvOrDefault("AUTH_SIGNING_KEY_FILE", cfg.SigningKeyFile)
	cfg.NumKeys = getEnvIntOrDefault("AUTH_NUM_KEYS", cfg.NumKeys)
	cfg.RSABits = getEnvIntOrDefault("AUTH_RSA_BITS", cfg.RSABits)

	cfg.StoreDriver = getEnvOrDefault("AUTH_STORE_DRIVER", cfg.StoreDriver)
	cfg.DatabaseFile = getEnvOrDefault("AUTH_DATABASE_FILE", cfg.DatabaseFile)
	cfg.DatabaseURL = getEnvOrDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.DenylistDriver = getEnvOrDefault("AUTH_DENYLIST_DRIVER", cfg.DenylistDriver)
	cfg.RedisURL = getEnvOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.PepperFile = getEnvOrDefault("AUTH_PEPPER_FILE", cfg.PepperFile)

	cfg.MaxDelegationDepth = getEnvIntOrDefault("MAX_DELEGATION_DEPTH", cfg.MaxDelegationDepth)
	cfg.StoreTimeout = getEnvDurationOrDefault("STORE_TIMEOUT", cfg.StoreTimeout)

	cfg.Env = getEnvOrDefault("ENV", cfg.Env)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.Port = getEnvIntOrDefault("PORT", cfg.Port)
	cfg.ShutdownGracePeriod = getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", cfg.ShutdownGracePeriod)
	cfg.HousekeepingInterval = getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", cfg.HousekeepingInterval)
	return cfg
}

// Validate reports every inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error

	if c.Issuer == "" {
		errs = append(errs, errors.New("issuer must not be empty"))
	}

	switch c.KeyMode {
	case KeyModeEphemeral:
	case KeyModeFile:
		if c.SigningKeyFile == "" {
			errs = append(errs, errors.New("AUTH_SIGNING_KEY_FILE is required in file key mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown key mode %q", c.KeyMode))
	}

	switch c.StoreDriver {
	case StoreSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("AUTH_DATABASE_FILE must not be empty"))
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.StoreDriver))
	}

	switch c.DenylistDriver {
	case DenylistMemory:
	case DenylistRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis denylist"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown denylist driver %q", c.DenylistDriver))
	}

	if c.MaxDelegationDepth < 0 {
		errs = append(errs, errors.New("MAX_DELEGATION_DEPTH must not be negative"))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
