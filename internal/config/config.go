package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const devJWTSecret = "dev-secret-change-me"

// Store backends.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all service configuration.
type Config struct {
	Env       string
	Port      string
	LogLevel  string
	LogFormat string

	MongoURI    string
	MongoDB     string
	UserStore   string
	TaskStore   string
	PostgresDSN string

	RedisAddr     string
	RedisPassword string
	UserCacheTTL  time.Duration

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	CORSAllowedOrigins []string
}

// Flags registers the command-line flags Load understands.
func Flags(fs *pflag.FlagSet) {
	fs.String("config", "", "optional config file (yaml, toml or json)")
	fs.String("port", "", "HTTP listen port (overrides PORT)")
	fs.String("log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
}

// Load reads configuration from defaults, an optional config file,
// environment variables and flags, in increasing order of precedence.
// fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetDefault("app_env", "development")
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "")
	v.SetDefault("mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("mongo_db", "taskmanager")
	v.SetDefault("user_store", StoreMongo)
	v.SetDefault("task_store", StoreMongo)
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("user_cache_ttl", 5*time.Minute)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_issuer", "taskmanager")
	v.SetDefault("jwt_ttl", 24*time.Hour)
	v.SetDefault("cors_allowed_origins", "http://localhost:5173,http://localhost:3000")
	v.AutomaticEnv()

	if fs != nil {
		if path, _ := fs.GetString("config"); path != "" {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
		if f := fs.Lookup("port"); f != nil && f.Changed {
			v.Set("port", f.Value.String())
		}
		if f := fs.Lookup("log-level"); f != nil && f.Changed {
			v.Set("log_level", f.Value.String())
		}
	}

	cfg := &Config{
		Env:                strings.ToLower(v.GetString("app_env")),
		Port:               v.GetString("port"),
		LogLevel:           v.GetString("log_level"),
		LogFormat:          v.GetString("log_format"),
		MongoURI:           v.GetString("mongo_uri"),
		MongoDB:            v.GetString("mongo_db"),
		UserStore:          strings.ToLower(v.GetString("user_store")),
		TaskStore:          strings.ToLower(v.GetString("task_store")),
		PostgresDSN:        v.GetString("postgres_dsn"),
		RedisAddr:          v.GetString("redis_addr"),
		RedisPassword:      v.GetString("redis_password"),
		UserCacheTTL:       v.GetDuration("user_cache_ttl"),
		JWTSecret:          v.GetString("jwt_secret"),
		JWTIssuer:          v.GetString("jwt_issuer"),
		JWTTTL:             v.GetDuration("jwt_ttl"),
		CORSAllowedOrigins: splitList(v.GetString("cors_allowed_origins")),
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "console"
		if cfg.IsProduction() {
			cfg.LogFormat = "json"
		}
	}
	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = devJWTSecret
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether APP_ENV is anything other than
// development or test.
func (c *Config) IsProduction() bool {
	return c.Env != "development" && c.Env != "test"
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is not set; required outside development")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	switch c.UserStore {
	case StoreMongo, StoreMemory:
	case StorePostgres:
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when USER_STORE=postgres")
		}
	default:
		return fmt.Errorf("unknown USER_STORE %q", c.UserStore)
	}
	switch c.TaskStore {
	case StoreMongo, StoreMemory:
	default:
		return fmt.Errorf("unknown TASK_STORE %q", c.TaskStore)
	}
	return nil
}

// NeedsMongo reports whether any store is backed by MongoDB.
func (c *Config) NeedsMongo() bool {
	return c.UserStore == StoreMongo || c.TaskStore == StoreMongo
}

// String returns a representation of the config with secrets masked.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, Port: %s, UserStore: %s, TaskStore: %s, MongoDB: %s, Redis: %t, JWT: *** (masked) ***}",
		c.Env, c.Port, c.UserStore, c.TaskStore, c.MongoDB, c.RedisAddr != "")
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
