package config

import (
	yamlenv "github.com/ifuryst/go-yaml-env"

	"github.com/recastlabs/recast/pkg/logger"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Logger     logger.Config    `yaml:"logger"`
	Generation GenerationConfig `yaml:"generation"`
	Images     ImageConfig      `yaml:"images"`
	Publishing PublishingConfig `yaml:"publishing"`
	Dispatch   DispatchConfig   `yaml:"dispatch"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	Host     string `yaml:"host"`
	Mode     string `yaml:"mode"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type DatabaseConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	TimeZone string `yaml:"timezone"`
}

// GenerationConfig configures the external text-generation service.
type GenerationConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// ImageConfig configures the external image-transform service.
type ImageConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// PublishingConfig configures the external social-publishing service.
type PublishingConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
	Timeout string `yaml:"timeout"`
}

// DispatchConfig bounds per-platform generation jobs.
type DispatchConfig struct {
	JobTimeout     string `yaml:"job_timeout"`
	MaxRetries     int    `yaml:"max_retries"`
	RetryBaseDelay string `yaml:"retry_base_delay"`
}

type SchedulerConfig struct {
	Enabled         bool   `yaml:"enabled"`
	PublishInterval string `yaml:"publish_interval"`
	StatsInterval   string `yaml:"stats_interval"`
	PublishBatch    int    `yaml:"publish_batch"`
}

func LoadConfig(configPath string) (*Config, error) {
	cfg, err := yamlenv.LoadConfig[Config](configPath)
	if err != nil {
		return nil, err
	}

	// Set default values
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5440
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "debug"
	}
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.TimeZone == "" {
		cfg.Database.TimeZone = "UTC"
	}
	if cfg.Generation.Provider == "" {
		cfg.Generation.Provider = "google"
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = "gemini-2.0-flash"
	}
	if cfg.Images.Timeout == "" {
		cfg.Images.Timeout = "30s"
	}
	if cfg.Publishing.Timeout == "" {
		cfg.Publishing.Timeout = "30s"
	}
	if cfg.Dispatch.JobTimeout == "" {
		cfg.Dispatch.JobTimeout = "5m"
	}
	if cfg.Dispatch.MaxRetries == 0 {
		cfg.Dispatch.MaxRetries = 2
	}
	if cfg.Dispatch.RetryBaseDelay == "" {
		cfg.Dispatch.RetryBaseDelay = "2s"
	}
	if cfg.Scheduler.PublishInterval == "" {
		cfg.Scheduler.PublishInterval = "1m"
	}
	if cfg.Scheduler.StatsInterval == "" {
		cfg.Scheduler.StatsInterval = "10m"
	}
	if cfg.Scheduler.PublishBatch == 0 {
		cfg.Scheduler.PublishBatch = 50
	}
	if !cfg.Scheduler.Enabled {
		cfg.Scheduler.Enabled = true
	}

	return cfg, nil
}
