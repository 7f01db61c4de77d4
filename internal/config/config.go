package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"pricewatch/internal/validate"
)

type Config struct {
	Port           string        `envconfig:"PORT" default:"8080"`
	DBDSN          string        `envconfig:"DB_DSN" default:"pricewatch.db"`
	LogFile        string        `envconfig:"LOG_FILE" default:"./pricewatch.log"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	StorageTimeout time.Duration `envconfig:"STORAGE_TIMEOUT" default:"3s"`
	// AlternatePriority is the ordered list of sources preferred as the comparison side.
	AlternatePriority []string `envconfig:"ALTERNATE_PRIORITY" default:"Amazon,Flipkart"`
	IdentityHeader    string   `envconfig:"IDENTITY_HEADER" default:"X-User-ID"`
	SeedDemo          bool     `envconfig:"SEED_DEMO" default:"true"`
	PolicyFile        string   `envconfig:"POLICY_FILE"`
	// RateLimit caps requests per client IP per minute; WriteRateLimit caps watchlist
	// mutations per user per minute.
	RateLimit      int `envconfig:"RATE_LIMIT" default:"60"`
	WriteRateLimit int `envconfig:"WRITE_RATE_LIMIT" default:"20"`
}

// Policy is the optional YAML file that overrides comparison settings without
// touching the environment.
type Policy struct {
	AlternatePriority []string `yaml:"alternate_priority"`
	StorageTimeout    string   `yaml:"storage_timeout"`
}

// Load reads .env (if present), then the environment, then POLICY_FILE.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "read env")
	}
	if cfg.PolicyFile != "" {
		if err := cfg.applyPolicy(cfg.PolicyFile); err != nil {
			return Config{}, err
		}
	}
	cfg.AlternatePriority = validate.Sources(cfg.AlternatePriority)
	if cfg.StorageTimeout <= 0 {
		cfg.StorageTimeout = 3 * time.Second
	}
	return cfg, nil
}

func (c *Config) applyPolicy(path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return errors.Wrap(err, "read policy file")
	}
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return errors.Wrap(err, "parse policy file")
	}
	if len(p.AlternatePriority) > 0 {
		c.AlternatePriority = p.AlternatePriority
	}
	if p.StorageTimeout != "" {
		d, err := time.ParseDuration(p.StorageTimeout)
		if err != nil {
			return errors.Wrap(err, "policy storage_timeout")
		}
		c.StorageTimeout = d
	}
	return nil
}

// Fields is what gets logged at startup.
func (c Config) Fields() map[string]any {
	return map[string]any{
		"port":               c.Port,
		"db_dsn":             c.DBDSN,
		"log_file":           c.LogFile,
		"storage_timeout":    c.StorageTimeout.String(),
		"alternate_priority": c.AlternatePriority,
		"identity_header":    c.IdentityHeader,
		"seed_demo":          c.SeedDemo,
		"rate_limit":         c.RateLimit,
		"write_rate_limit":   c.WriteRateLimit,
	}
}
