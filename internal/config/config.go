package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Config struct {
	OAuth    OAuthConfig    `mapstructure:"oauth" yaml:"oauth"`
	Retry    RetryConfig    `mapstructure:"retry" yaml:"retry"`
	Defaults DefaultsConfig `mapstructure:"defaults" yaml:"defaults"`
}

// OAuthConfig identifies this installation to the provider's token
// endpoint. Per-account tokens themselves live in the keyring.
type OAuthConfig struct {
	ClientID     string `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string `mapstructure:"client_secret" yaml:"client_secret"`
}

type RetryConfig struct {
	MaxRetries int           `mapstructure:"max_retries" yaml:"max_retries"`
	BaseDelay  time.Duration `mapstructure:"base_delay" yaml:"base_delay"`
}

type DefaultsConfig struct {
	PageSize          int   `mapstructure:"page_size" yaml:"page_size"`
	AttachmentLimitMB int64 `mapstructure:"attachment_limit_mb" yaml:"attachment_limit_mb"`
}

func DefaultConfig() Config {
	return Config{
		Retry: RetryConfig{
			MaxRetries: 3,
			BaseDelay:  time.Second,
		},
		Defaults: DefaultsConfig{
			PageSize:          20,
			AttachmentLimitMB: 25,
		},
	}
}

func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func Load() (Config, error) {
	cfg := DefaultConfig()

	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func Save(cfg Config) (string, error) {
	if _, err := EnsureDir(); err != nil {
		return "", err
	}
	path, err := ConfigPath()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}

	return path, nil
}

func Redact(cfg Config) Config {
	masked := cfg
	if masked.OAuth.ClientSecret != "" {
		masked.OAuth.ClientSecret = "****"
	}
	return masked
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("retry.max_retries", cfg.Retry.MaxRetries)
	v.SetDefault("retry.base_delay", cfg.Retry.BaseDelay)

	v.SetDefault("defaults.page_size", cfg.Defaults.PageSize)
	v.SetDefault("defaults.attachment_limit_mb", cfg.Defaults.AttachmentLimitMB)
}

func ValidateOAuth(cfg Config) error {
	if cfg.OAuth.ClientID == "" {
		return fmt.Errorf("oauth.client_id is required; run 'gmail-cli config set --client-id ...' first")
	}
	if cfg.OAuth.ClientSecret == "" {
		return fmt.Errorf("oauth.client_secret is required; run 'gmail-cli config set --client-secret ...' first")
	}
	return nil
}
