package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the key generation and publication settings.
type Config struct {
	KeysDir string `mapstructure:"keys_dir"`
	SiteDir string `mapstructure:"site_dir"`
	Domain  string `mapstructure:"domain"`

	// S3 publication (optional; disabled while PublishBucket is empty)
	PublishBucket    string `mapstructure:"publish_bucket"`
	PublishPrefix    string `mapstructure:"publish_prefix"`
	PublishRegion    string `mapstructure:"publish_region"`
	PublishEndpoint  string `mapstructure:"publish_endpoint"`
	PublishPathStyle bool   `mapstructure:"publish_path_style"`
}

// LoadConfig loads configuration from a YAML file and environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("fleetkey")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment variable overrides
	v.SetEnvPrefix("FLEETKEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key needs a default registered, or AutomaticEnv
	// will not surface its FLEETKEY_* override through Unmarshal.
	v.SetDefault("keys_dir", "keys")
	v.SetDefault("site_dir", "public_site")
	v.SetDefault("domain", "")
	v.SetDefault("publish_bucket", "")
	v.SetDefault("publish_prefix", "")
	v.SetDefault("publish_region", "")
	v.SetDefault("publish_endpoint", "")
	v.SetDefault("publish_path_style", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Config file not found is fine, we just rely on defaults/env vars
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if c.KeysDir == "" {
		return fmt.Errorf("keys_dir is required (set it in fleetkey.yaml or FLEETKEY_KEYS_DIR)")
	}
	if c.SiteDir == "" {
		return fmt.Errorf("site_dir is required (set it in fleetkey.yaml or FLEETKEY_SITE_DIR)")
	}
	return nil
}

// PublishToS3 reports whether the optional S3 publication is configured.
func (c *Config) PublishToS3() bool {
	return c.PublishBucket != ""
}

// Option is a functional option for building a Config.
type Option func(*Config)

// WithKeysDir sets the directory the key pair is written to.
func WithKeysDir(dir string) Option {
	return func(c *Config) {
		c.KeysDir = dir
	}
}

// WithSiteDir sets the web root the public key is published under.
func WithSiteDir(dir string) Option {
	return func(c *Config) {
		c.SiteDir = dir
	}
}

// WithDomain sets the domain used for the verification URL.
func WithDomain(domain string) Option {
	return func(c *Config) {
		c.Domain = domain
	}
}

// WithPublishBucket sets the S3 bucket for optional publication.
func WithPublishBucket(bucket string) Option {
	return func(c *Config) {
		c.PublishBucket = bucket
	}
}

// WithPublishPrefix sets the S3 object prefix.
func WithPublishPrefix(prefix string) Option {
	return func(c *Config) {
		c.PublishPrefix = prefix
	}
}

// WithPublishRegion sets the AWS region for publication.
func WithPublishRegion(region string) Option {
	return func(c *Config) {
		c.PublishRegion = region
	}
}

// WithPublishEndpoint sets a custom S3 endpoint (e.g. for MinIO).
func WithPublishEndpoint(endpoint string) Option {
	return func(c *Config) {
		c.PublishEndpoint = endpoint
	}
}

// WithPublishPathStyle sets whether to use path-style S3 access.
func WithPublishPathStyle(enabled bool) Option {
	return func(c *Config) {
		c.PublishPathStyle = enabled
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		KeysDir: "keys",
		SiteDir: "public_site",
	}
}
