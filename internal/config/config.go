package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath   = "CONFIG_PATH"
	EnvDBConnection = "DB_CONNECTION"
	EnvDBHost       = "DB_HOST"
	EnvDBPort       = "DB_PORT"
	EnvDBName       = "DB_NAME"
	EnvDBUser       = "DB_USER"
	EnvDBPassword   = "DB_PASSWORD"
	EnvDBSSL        = "DB_SSL"
	EnvJWTSecret    = "JWT_SECRET"
	EnvJWTExpiry    = "JWT_EXPIRY"
)

// Default DB connection parameters applied when env vars are unset.
const (
	DefaultDBHost = "localhost"
	DefaultDBPort = "5432"
	DefaultDBName = "fantabuild"
	DefaultDBUser = "postgres"
)

// dotenvPaths are probed in order; the first existing file is loaded.
// Values already present in the environment always win.
var dotenvPaths = []string{"server/.env", ".env"}

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string
}

// LoadFromEnv loads app config from environment variables, reading a
// .env file first when one is present.
func LoadFromEnv() (AppConfig, error) {
	LoadDotEnv()
	return AppConfig{ConfigPath: ResolveConfigPath(os.Getenv(EnvConfigPath))}, nil
}

// LoadDotEnv loads the first .env file found on the known paths.
func LoadDotEnv() {
	for _, p := range dotenvPaths {
		if _, errStat := os.Stat(p); errStat == nil {
			_ = godotenv.Load(p)
			return
		}
	}
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// LoadDatabaseDSN resolves the database DSN. Resolution order: the
// DB_CONNECTION env var, the YAML config file, then a DSN assembled from the
// individual DB_* env vars with defaults for host, port, database and user.
func LoadDatabaseDSN(configPath string) (string, error) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		return dsn, nil
	}

	// fileConfig maps the YAML fields needed for DSN resolution.
	type fileConfig struct {
		DatabaseDSN string `yaml:"database-dsn"`
		Database    struct {
			DSN string `yaml:"dsn"`
		} `yaml:"database"`
	}

	if data, errRead := os.ReadFile(configPath); errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return "", fmt.Errorf("parse config file: %w", errUnmarshal)
		}
		if dsn := strings.TrimSpace(cfg.DatabaseDSN); dsn != "" {
			return dsn, nil
		}
		if dsn := strings.TrimSpace(cfg.Database.DSN); dsn != "" {
			return dsn, nil
		}
	}

	return BuildDSNFromEnv(), nil
}

// BuildDSNFromEnv assembles a postgres DSN from DB_* env vars with defaults.
func BuildDSNFromEnv() string {
	host := envOrDefault(EnvDBHost, DefaultDBHost)
	port := envOrDefault(EnvDBPort, DefaultDBPort)
	name := envOrDefault(EnvDBName, DefaultDBName)
	user := envOrDefault(EnvDBUser, DefaultDBUser)
	password := strings.TrimSpace(os.Getenv(EnvDBPassword))

	sslmode := "disable"
	if truthy(os.Getenv(EnvDBSSL)) {
		sslmode = "require"
	}

	parts := []string{
		"host=" + host,
		"port=" + port,
		"user=" + user,
		"dbname=" + name,
		"sslmode=" + sslmode,
	}
	if password != "" {
		parts = append(parts, "password="+password)
	}
	return strings.Join(parts, " ")
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on", "require":
		return true
	}
	return false
}

// JWTConfig holds JWT secret and expiry settings.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// defaultJWTExpiry is used when the config omits or invalidates JWT expiry.
const defaultJWTExpiry = 30 * 24 * time.Hour

// LoadJWTConfig loads JWT settings from the YAML config file with env
// overrides.
func LoadJWTConfig(configPath string) (JWTConfig, error) {
	// fileConfig maps the YAML fields needed for JWT settings.
	type fileConfig struct {
		JWT JWTConfig `yaml:"jwt"`
	}

	result := JWTConfig{Expiry: defaultJWTExpiry}

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.JWT
		}
	}

	if secret := strings.TrimSpace(os.Getenv(EnvJWTSecret)); secret != "" {
		result.Secret = secret
	}
	if expiryRaw := strings.TrimSpace(os.Getenv(EnvJWTExpiry)); expiryRaw != "" {
		if expiry, errParse := time.ParseDuration(expiryRaw); errParse == nil && expiry > 0 {
			result.Expiry = expiry
		}
	}

	if result.Expiry <= 0 {
		result.Expiry = defaultJWTExpiry
	}
	return result, nil
}
