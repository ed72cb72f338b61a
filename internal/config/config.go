package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Exchange ExchangeConfig `mapstructure:"exchange"`
	Coinbase CoinbaseConfig `mapstructure:"coinbase"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Rate     RateConfig     `mapstructure:"rate"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port   string `mapstructure:"port"`
	DryRun bool   `mapstructure:"dry_run"`
}

type AuthConfig struct {
	WebhookKey string   `mapstructure:"webhook_key"`
	AllowedIPs []string `mapstructure:"allowed_ips"`
	AdminKey   string   `mapstructure:"admin_key"`
}

type ExchangeConfig struct {
	// Which exchange implementation handles incoming signals
	Default string `mapstructure:"default"`
}

type CoinbaseConfig struct {
	// Name of the environment variable holding the JSON credential blob
	CredentialsEnv      string `mapstructure:"credentials_env"`
	APIBaseURL          string `mapstructure:"api_base_url"`
	PrecisionTTLSeconds int    `mapstructure:"precision_ttl_seconds"`
}

type TelegramConfig struct {
	Token  string `mapstructure:"token"`
	ChatID string `mapstructure:"chat_id"`
}

type RedisConfig struct {
	Addr                  string `mapstructure:"addr"`
	Password              string `mapstructure:"password"`
	DB                    int    `mapstructure:"db"`
	IdempotencyTTLSeconds int    `mapstructure:"idempotency_ttl_seconds"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type RateConfig struct {
	QPS   float64 `mapstructure:"qps"`
	Burst int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	Dir   string `mapstructure:"dir"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")

	// Environment variables support
	// e.g. CBGATE_COINBASE_API_BASE_URL
	viper.SetEnvPrefix("cbgate")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.dry_run", false)
	viper.SetDefault("exchange.default", "coinbase")
	viper.SetDefault("coinbase.credentials_env", "COINBASE_CREDENTIALS")
	viper.SetDefault("coinbase.api_base_url", "https://api.coinbase.com")
	viper.SetDefault("coinbase.precision_ttl_seconds", 60)
	viper.SetDefault("redis.idempotency_ttl_seconds", 86400)
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
	viper.SetDefault("rate.qps", 10)
	viper.SetDefault("rate.burst", 20)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.dir", "./logs")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
