package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Store drivers accepted in STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

type Config struct {
	ServerPort int    `toml:"server_port"`
	APIVersion string `toml:"api_version"`
	GinMode    string `toml:"gin_mode"`

	StoreDriver string        `toml:"store_driver"`
	DBHost      string        `toml:"db_host"`
	DBPort      string        `toml:"db_port"`
	DBUser      string        `toml:"db_user"`
	DBPassword  string        `toml:"db_password"`
	DBName      string        `toml:"db_name"`
	DBTimeout   time.Duration `toml:"-"`
	SQLitePath  string        `toml:"sqlite_path"`

	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`

	// An empty RedisAddr disables the list cache.
	RedisAddr     string        `toml:"redis_addr"`
	RedisPassword string        `toml:"redis_password"`
	CacheTTL      time.Duration `toml:"-"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	// Durations are strings in the file ("5s", "1m").
	DBTimeoutRaw string `toml:"db_timeout"`
	CacheTTLRaw  string `toml:"cache_ttl"`
}

func defaults() *Config {
	return &Config{
		ServerPort:      8080,
		APIVersion:      "v1",
		GinMode:         "debug",
		StoreDriver:     DriverPostgres,
		DBHost:          "localhost",
		DBPort:          "5432",
		DBUser:          "todo",
		DBPassword:      "todo",
		DBName:          "todo_list",
		DBTimeoutRaw:    "5s",
		SQLitePath:      "todo.db",
		MongoURI:        "mongodb://localhost:27017",
		MongoDatabase:   "todo_list",
		MongoCollection: "tasks",
		CacheTTLRaw:     "1m",
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Load builds the configuration from defaults, then the TOML file named by
// CONFIG_FILE (if any), then environment variables.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	if err := finalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SERVER_PORT: %w", err)
		}
		cfg.ServerPort = port
	}
	cfg.APIVersion = getEnv("API_VERSION", cfg.APIVersion)
	cfg.GinMode = getEnv("GIN_MODE", cfg.GinMode)
	cfg.StoreDriver = getEnv("STORE_DRIVER", cfg.StoreDriver)
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnv("DB_PORT", cfg.DBPort)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", cfg.DBPassword)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.DBTimeoutRaw = getEnv("DB_TIMEOUT", cfg.DBTimeoutRaw)
	cfg.SQLitePath = getEnv("SQLITE_PATH", cfg.SQLitePath)
	cfg.MongoURI = getEnv("MONGO_URI", cfg.MongoURI)
	cfg.MongoDatabase = getEnv("MONGO_DATABASE", cfg.MongoDatabase)
	cfg.MongoCollection = getEnv("MONGO_COLLECTION", cfg.MongoCollection)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.CacheTTLRaw = getEnv("CACHE_TTL", cfg.CacheTTLRaw)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	return nil
}

func finalize(cfg *Config) error {
	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return fmt.Errorf("invalid server port %d", cfg.ServerPort)
	}

	switch cfg.StoreDriver {
	case DriverPostgres, DriverMySQL, DriverSQLite, DriverMongo:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}

	timeout, err := time.ParseDuration(cfg.DBTimeoutRaw)
	if err != nil || timeout <= 0 {
		return fmt.Errorf("invalid DB_TIMEOUT %q", cfg.DBTimeoutRaw)
	}
	cfg.DBTimeout = timeout

	ttl, err := time.ParseDuration(cfg.CacheTTLRaw)
	if err != nil || ttl < 0 {
		return fmt.Errorf("invalid CACHE_TTL %q", cfg.CacheTTLRaw)
	}
	cfg.CacheTTL = ttl

	return nil
}

// Addr is the listen address of the API server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
