package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"referral_app/internal/api"
	"referral_app/internal/middleware"
	"referral_app/internal/repository"
	"referral_app/pkg/auth"
	"referral_app/pkg/logger"
	"referral_app/pkg/mail"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
	envPrefix    = "APP"
)

type Config struct {
	Database  repository.Config          `mapstructure:"database"`
	Server    ServerConfig               `mapstructure:"server"`
	Auth      AuthConfig                 `mapstructure:"auth"`
	RateLimit middleware.RateLimitConfig `mapstructure:"rateLimit"`
	Mail      mail.Config                `mapstructure:"mail"`
	Log       logger.Config              `mapstructure:"log"`

	LogLevel string `mapstructure:"logLevel"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	AppBaseURL      string        `mapstructure:"appBaseUrl"`
	AllowOrigins    []string      `mapstructure:"allowOrigins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
	LiveRefresh     time.Duration `mapstructure:"liveRefresh"`
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwtSecret"`
	TokenTTL   time.Duration `mapstructure:"tokenTTL"`
	BcryptCost int           `mapstructure:"bcryptCost"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.maxAge", 7*24*time.Hour)
	v.SetDefault("log.rotationTime", 24*time.Hour)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.appBaseUrl", "http://localhost:5000")
	v.SetDefault("server.allowOrigins", []string{"*"})
	v.SetDefault("server.shutdownTimeout", 10*time.Second)
	v.SetDefault("server.liveRefresh", api.DefaultLiveRefresh)

	v.SetDefault("database.driver", repository.DriverPgx)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "referrals")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.queryTimeout", repository.DefaultQueryTimeout)
	v.SetDefault("database.maxOpenConns", 10)

	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.tokenTTL", auth.DefaultTokenTTL)
	v.SetDefault("auth.bcryptCost", 10)

	v.SetDefault("rateLimit.requestsPerSecond", 5)
	v.SetDefault("rateLimit.burst", 10)

	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "")
}

// LoadConfig reads config.yaml (or the file given with --config), then
// applies APP_* environment overrides. A .env file is loaded first when
// present.
func LoadConfig(args []string) (*Config, error) {
	flags := pflag.NewFlagSet("app", pflag.ContinueOnError)
	configFile := flags.String("config", "", "path to the config file")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if *configFile != "" {
		v.SetConfigFile(*configFile)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(configPath)
		v.SetConfigType(configFormat)
	}

	v.AutomaticEnv()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Log.Level = cfg.LogLevel

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.Server.Port == "" {
		return errors.New("server.port can't be empty")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwtSecret can't be empty, set it in the config file or APP_AUTH_JWTSECRET")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.tokenTTL must be bigger than 0")
	}
	if c.Database.QueryTimeout <= 0 {
		return errors.New("database.queryTimeout must be bigger than 0")
	}
	if c.Database.Driver != repository.DriverPgx && c.Database.Driver != repository.DriverPq {
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst < 1 {
		return errors.New("rateLimit.burst must be at least 1 when rate limiting is enabled")
	}
	if c.Mail.Enabled {
		if c.Mail.Host == "" {
			return errors.New("mail.host can't be empty when mail is enabled")
		}
		if c.Mail.From == "" {
			return errors.New("mail.from can't be empty when mail is enabled")
		}
	}

	return nil
}
