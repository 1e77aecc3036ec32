package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Supported composition session stores.
const (
	CompositionStoreMemory = "memory"
	CompositionStoreRedis  = "redis"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Auth         AuthConfig
	CORS         CORSConfig
	Log          LogConfig
	Statistics   StatisticsConfig
	Compositions CompositionsConfig
	Backups      BackupsConfig
	Exports      ExportsConfig
}

type DatabaseConfig struct {
	Driver       string
	Path         string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	Channel  string
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// AuthConfig describes the single chapter-advisor account.
type AuthConfig struct {
	Enabled      bool
	Username     string
	PasswordHash string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StatisticsConfig governs caching of aggregate statistics.
type StatisticsConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// CompositionsConfig controls where draft sessions live and for how long.
type CompositionsConfig struct {
	Store      string
	SessionTTL time.Duration
	MaxDrafts  int
}

// BackupsConfig configures the backup job queue and destination directory.
type BackupsConfig struct {
	Dir        string
	Workers    int
	Retries    int
	RetryDelay time.Duration
}

// ExportsConfig configures where roster exports are written.
type ExportsConfig struct {
	Dir string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
		Path:         v.GetString("DB_PATH"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		Channel:  v.GetString("REDIS_ROSTER_CHANNEL"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.Auth = AuthConfig{
		Enabled:      v.GetBool("AUTH_ENABLED"),
		Username:     v.GetString("ADMIN_USERNAME"),
		PasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Statistics = StatisticsConfig{
		CacheEnabled: v.GetBool("STATISTICS_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("STATISTICS_CACHE_TTL"), 5*time.Minute),
	}

	store := strings.ToLower(v.GetString("COMPOSITION_STORE"))
	if store != CompositionStoreRedis {
		store = CompositionStoreMemory
	}
	cfg.Compositions = CompositionsConfig{
		Store:      store,
		SessionTTL: parseDuration(v.GetString("COMPOSITION_SESSION_TTL"), 2*time.Hour),
		MaxDrafts:  v.GetInt("COMPOSITION_MAX_DRAFTS"),
	}

	cfg.Backups = BackupsConfig{
		Dir:        v.GetString("BACKUPS_DIR"),
		Workers:    v.GetInt("BACKUP_WORKERS"),
		Retries:    v.GetInt("BACKUP_RETRIES"),
		RetryDelay: parseDuration(v.GetString("BACKUP_RETRY_DELAY"), 250*time.Millisecond),
	}

	cfg.Exports = ExportsConfig{Dir: v.GetString("EXPORTS_DIR")}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DB_PATH", "./data/chapter.db")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "chapter_participation")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_ROSTER_CHANNEL", "roster:changed")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "12h")
	v.SetDefault("JWT_ISSUER", "chapter-participation-api")

	v.SetDefault("AUTH_ENABLED", false)
	v.SetDefault("ADMIN_USERNAME", "advisor")
	v.SetDefault("ADMIN_PASSWORD_HASH", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STATISTICS_CACHE_ENABLED", false)
	v.SetDefault("STATISTICS_CACHE_TTL", "5m")

	v.SetDefault("COMPOSITION_STORE", CompositionStoreMemory)
	v.SetDefault("COMPOSITION_SESSION_TTL", "2h")
	v.SetDefault("COMPOSITION_MAX_DRAFTS", 50)

	v.SetDefault("BACKUPS_DIR", "./backups")
	v.SetDefault("BACKUP_WORKERS", 1)
	v.SetDefault("BACKUP_RETRIES", 5)
	v.SetDefault("BACKUP_RETRY_DELAY", "250ms")

	v.SetDefault("EXPORTS_DIR", "./exports")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
