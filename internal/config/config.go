package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Log       LogConfig       `yaml:"log"`
	Share     ShareConfig     `yaml:"share"`
	Export    ExportConfig    `yaml:"export"`
	Inbox     InboxConfig     `yaml:"inbox"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// BaseURL is the public landing URL share links point at.
	BaseURL string `yaml:"base_url"`
}

type StorageConfig struct {
	// Driver is sqlite, postgres or memory.
	Driver    string `yaml:"driver"`
	Path      string `yaml:"path"`
	DSN       string `yaml:"dsn"`
	Namespace string `yaml:"namespace"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type ShareConfig struct {
	MaxLinkLength int `yaml:"max_link_length"`
}

type ExportConfig struct {
	Dir string   `yaml:"dir"`
	S3  S3Config `yaml:"s3"`
}

type S3Config struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
}

// Enabled reports whether exports should be uploaded to a bucket.
func (s S3Config) Enabled() bool { return s.Bucket != "" }

type InboxConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns the configuration used for missing optional values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "127.0.0.1",
			Port:    8080,
			BaseURL: "http://localhost:8080/",
		},
		Storage: StorageConfig{
			Driver:    "sqlite",
			Path:      "./data",
			Namespace: "otb",
		},
		Tailscale: TailscaleConfig{
			Hostname: "wodlink",
			StateDir: "./tsnet-state",
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Share: ShareConfig{MaxLinkLength: 2000},
		Export: ExportConfig{
			Dir: "./exports",
			S3:  S3Config{Region: "us-east-1"},
		},
	}
}

// Load reads config from a YAML file on top of Default, then applies
// environment variable overrides. An empty path skips the file.
// Env vars use the prefix WODLINK_ and underscore-separated paths:
//
//	WODLINK_SERVER_HOST, WODLINK_SERVER_PORT, WODLINK_SERVER_BASE_URL,
//	WODLINK_STORAGE_DRIVER, WODLINK_STORAGE_PATH, WODLINK_STORAGE_DSN,
//	WODLINK_STORAGE_NAMESPACE, WODLINK_AUTH_API_KEY,
//	WODLINK_TAILSCALE_ENABLED, WODLINK_LOG_LEVEL, WODLINK_LOG_FILE,
//	WODLINK_SHARE_MAX_LINK_LENGTH, WODLINK_EXPORT_DIR,
//	WODLINK_S3_BUCKET, WODLINK_S3_ENDPOINT, WODLINK_S3_REGION,
//	WODLINK_S3_ACCESS_KEY_ID, WODLINK_S3_SECRET_ACCESS_KEY, WODLINK_INBOX_DIR
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Server.Host, "WODLINK_SERVER_HOST")
	setInt(&cfg.Server.Port, "WODLINK_SERVER_PORT")
	setString(&cfg.Server.BaseURL, "WODLINK_SERVER_BASE_URL")
	setString(&cfg.Storage.Driver, "WODLINK_STORAGE_DRIVER")
	setString(&cfg.Storage.Path, "WODLINK_STORAGE_PATH")
	setString(&cfg.Storage.DSN, "WODLINK_STORAGE_DSN")
	setString(&cfg.Storage.Namespace, "WODLINK_STORAGE_NAMESPACE")
	setString(&cfg.Auth.APIKey, "WODLINK_AUTH_API_KEY")
	if v := os.Getenv("WODLINK_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	setString(&cfg.Log.Level, "WODLINK_LOG_LEVEL")
	setString(&cfg.Log.File, "WODLINK_LOG_FILE")
	setInt(&cfg.Share.MaxLinkLength, "WODLINK_SHARE_MAX_LINK_LENGTH")
	setString(&cfg.Export.Dir, "WODLINK_EXPORT_DIR")
	setString(&cfg.Export.S3.Bucket, "WODLINK_S3_BUCKET")
	setString(&cfg.Export.S3.Endpoint, "WODLINK_S3_ENDPOINT")
	setString(&cfg.Export.S3.Region, "WODLINK_S3_REGION")
	setString(&cfg.Export.S3.AccessKeyID, "WODLINK_S3_ACCESS_KEY_ID")
	setString(&cfg.Export.S3.SecretAccessKey, "WODLINK_S3_SECRET_ACCESS_KEY")
	setString(&cfg.Inbox.Dir, "WODLINK_INBOX_DIR")
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.base_url must be an absolute URL, got %q", c.Server.BaseURL)
	}
	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for sqlite")
		}
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("storage.driver %q is not one of sqlite, postgres, memory", c.Storage.Driver)
	}
	if c.Share.MaxLinkLength <= 0 {
		return fmt.Errorf("share.max_link_length must be positive")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q is not one of text, json", c.Log.Format)
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}
