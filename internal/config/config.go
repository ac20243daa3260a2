package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bassista/go_courses/internal/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const envPrefix = "COURSES"

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type ServerConfig struct {
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutDownTimeout    time.Duration
	RequestTimeout     time.Duration
	CORSAllowedOrigins string
}

// DatabaseConfig selects the persistence driver and, for postgres, how to reach it.
// URL wins over the discrete host/port/user fields when both are set.
type DatabaseConfig struct {
	Driver         string
	URL            string
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxConns       int32
	MinConns       int32
	MigrateOnStart bool
}

type CacheConfig struct {
	SweepInterval time.Duration
}

type MiscConfig struct {
	LogLevel string
	GinMode  string
}

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Misc     MiscConfig
}

// DSN returns the postgres connection string.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	if d.Host == "" {
		return ""
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	if d.SSLMode != "" {
		u.RawQuery = "sslmode=" + url.QueryEscape(d.SSLMode)
	}
	return u.String()
}

// LoadConfig reads .env, config.yaml and COURSES_* environment variables, in increasing
// order of precedence, and returns a validated Config.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.WithComponent("config").Warnf("cannot load .env file: %v", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")
	setDefaults()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
		logger.WithComponent("config").Info("no config file found, using defaults and env vars")
	} else {
		logger.WithComponent("config").Infof("using config file %s", viper.ConfigFileUsed())
	}

	return fromViper()
}

// Watch reloads the configuration whenever the config file changes and hands the
// validated result to onChange. Invalid edits are logged and ignored.
func Watch(onChange func(*Config)) {
	if viper.ConfigFileUsed() == "" {
		logger.WithComponent("config").Debugf("no config file in use, watcher not started")
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		logger.WithComponent("config").Debugf("config file changed: %s (%s)", e.Name, e.Op.String())
		cfg, err := fromViper()
		if err != nil {
			logger.WithComponent("config").Warnf("ignoring invalid config change: %v", err)
			return
		}
		onChange(cfg)
	})
	viper.WatchConfig()
}

func setDefaults() {
	viper.SetDefault("server.port", 3000)
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "10s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.shutdown_timeout", "5s")
	viper.SetDefault("server.request_timeout", "5s")
	viper.SetDefault("server.cors_allowed_origins", "*")

	viper.SetDefault("database.driver", DriverPostgres)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.name", "course_management")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_conns", 10)
	viper.SetDefault("database.min_conns", 2)
	viper.SetDefault("database.migrate_on_start", true)

	viper.SetDefault("cache.sweep_interval", "10m")

	viper.SetDefault("misc.log_level", "info")
	viper.SetDefault("misc.gin_mode", "release")
}

func fromViper() (*Config, error) {
	port, err := getEnvOrViperPort("PORT", "server.port")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               port,
			ReadTimeout:        viper.GetDuration("server.read_timeout"),
			WriteTimeout:       viper.GetDuration("server.write_timeout"),
			IdleTimeout:        viper.GetDuration("server.idle_timeout"),
			ShutDownTimeout:    viper.GetDuration("server.shutdown_timeout"),
			RequestTimeout:     viper.GetDuration("server.request_timeout"),
			CORSAllowedOrigins: viper.GetString("server.cors_allowed_origins"),
		},
		Database: DatabaseConfig{
			Driver:         strings.ToLower(viper.GetString("database.driver")),
			URL:            getEnvOrDefault("DATABASE_URL", viper.GetString("database.url")),
			Host:           viper.GetString("database.host"),
			Port:           viper.GetInt("database.port"),
			User:           viper.GetString("database.user"),
			Password:       viper.GetString("database.password"),
			Name:           viper.GetString("database.name"),
			SSLMode:        viper.GetString("database.sslmode"),
			MaxConns:       viper.GetInt32("database.max_conns"),
			MinConns:       viper.GetInt32("database.min_conns"),
			MigrateOnStart: viper.GetBool("database.migrate_on_start"),
		},
		Cache: CacheConfig{
			SweepInterval: viper.GetDuration("cache.sweep_interval"),
		},
		Misc: MiscConfig{
			LogLevel: viper.GetString("misc.log_level"),
			GinMode:  viper.GetString("misc.gin_mode"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	timeouts := map[string]time.Duration{
		"read_timeout":     c.Server.ReadTimeout,
		"write_timeout":    c.Server.WriteTimeout,
		"idle_timeout":     c.Server.IdleTimeout,
		"shutdown_timeout": c.Server.ShutDownTimeout,
		"request_timeout":  c.Server.RequestTimeout,
	}
	for name, d := range timeouts {
		if d <= 0 {
			return fmt.Errorf("server.%s must be positive, got %v", name, d)
		}
	}

	switch c.Database.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Database.DSN() == "" {
			return errors.New("database.url or database.host is required for the postgres driver")
		}
		if c.Database.MaxConns <= 0 {
			return fmt.Errorf("database.max_conns must be positive, got %d", c.Database.MaxConns)
		}
		if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
			return fmt.Errorf("database.min_conns must be between 0 and max_conns, got %d", c.Database.MinConns)
		}
	default:
		return fmt.Errorf("unknown database driver: %q (supported: %s, %s)", c.Database.Driver, DriverPostgres, DriverMemory)
	}

	if c.Cache.SweepInterval <= 0 {
		return fmt.Errorf("cache.sweep_interval must be positive, got %v", c.Cache.SweepInterval)
	}

	if _, err := logrus.ParseLevel(c.Misc.LogLevel); err != nil {
		return fmt.Errorf("invalid misc.log_level: %w", err)
	}
	switch c.Misc.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid misc.gin_mode: %q", c.Misc.GinMode)
	}
	return nil
}

func getEnvOrDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// getEnvOrViperPort prefers the plain env var (PaaS convention) over the viper key.
func getEnvOrViperPort(envKey, viperKey string) (int, error) {
	if v := os.Getenv(envKey); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", envKey, err)
		}
		return port, nil
	}
	return viper.GetInt(viperKey), nil
}
