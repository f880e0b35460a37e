package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

// SchedulerConfig holds the two trigger timings: the daily scan runs
// on a cron expression, the dispatch sweep on a fixed interval.
type SchedulerConfig struct {
	ScanCron      string        `mapstructure:"scan_cron"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	ScanHorizon   int           `mapstructure:"scan_horizon_days"`
}

type DispatchConfig struct {
	BatchSize      int           `mapstructure:"batch_size"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	ChannelTimeout time.Duration `mapstructure:"channel_timeout"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
}

// ChannelSecrets carries provider credentials. These come from the
// environment only, never from the config file.
type ChannelSecrets struct {
	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser     string `envconfig:"SMTP_USER"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string `envconfig:"SMTP_FROM"`

	PushAPIURL string `envconfig:"PUSH_API_URL"`
	PushAPIKey string `envconfig:"PUSH_API_KEY"`

	SMSAPIURL  string `envconfig:"SMS_API_URL"`
	SMSAPIKey  string `envconfig:"SMS_API_KEY"`
	SMSFrom    string `envconfig:"SMS_FROM"`
	SMSPerSec  int    `envconfig:"SMS_RATE_PER_SEC" default:"5"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func LoadChannelSecrets() (*ChannelSecrets, error) {
	var secrets ChannelSecrets
	if err := envconfig.Process("", &secrets); err != nil {
		return nil, fmt.Errorf("failed to load channel secrets: %w", err)
	}
	return &secrets, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.timeout_seconds", 30)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("scheduler.scan_cron", "0 8 * * *")
	viper.SetDefault("scheduler.sweep_interval", time.Minute)
	viper.SetDefault("scheduler.scan_horizon_days", 30)
	viper.SetDefault("dispatch.batch_size", 100)
	viper.SetDefault("dispatch.max_attempts", 5)
	viper.SetDefault("dispatch.channel_timeout", 10*time.Second)
	viper.SetDefault("dispatch.retry_backoff", 5*time.Minute)
}
