package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Notifier   NotifierConfig   `mapstructure:"notifier"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
	Mode string `mapstructure:"mode"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MonitoringConfig controls the alerting engine's periodic tasks
type MonitoringConfig struct {
	EvaluationInterval time.Duration `mapstructure:"evaluation_interval"`
	EscalationInterval time.Duration `mapstructure:"escalation_interval"`
	SnapshotTimeout    time.Duration `mapstructure:"snapshot_timeout"`
	Retention          time.Duration `mapstructure:"retention"`
	RulesPath          string        `mapstructure:"rules_path"`
	DiskPath           string        `mapstructure:"disk_path"`
}

type NotifierConfig struct {
	WebhookURL string        `mapstructure:"webhook_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// Load reads configuration from ./configs/config.yaml (or the working
// directory) with environment variable overrides
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("logging.level", "LOG_LEVEL")
	viper.BindEnv("monitoring.rules_path", "VIGIL_RULES_PATH")
	viper.BindEnv("notifier.webhook_url", "VIGIL_WEBHOOK_URL")

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env cover everything
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.mode", "development")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("monitoring.evaluation_interval", "30s")
	viper.SetDefault("monitoring.escalation_interval", "30s")
	viper.SetDefault("monitoring.snapshot_timeout", "10s")
	viper.SetDefault("monitoring.retention", "168h")
	viper.SetDefault("monitoring.rules_path", "./configs/rules.yaml")
	viper.SetDefault("monitoring.disk_path", "/")

	viper.SetDefault("notifier.timeout", "10s")
}
