package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	defaultDBHost = "localhost:5432"
	defaultDBName = "gamedata"
)

// Config contains runtime configuration required by the service.
type Config struct {
	Addr string `env:"GAMEDATA_ADDR" envDefault:":8080"`

	DBURL           string `env:"GAMEDATA_DB_URL"`
	DBUser          string `env:"GAMEDATA_DB_USER"`
	DBPassword      string `env:"GAMEDATA_DB_PASSWORD"`
	DBHost          string `env:"GAMEDATA_DB_HOST"`
	DBName          string `env:"GAMEDATA_DB_NAME"`
	CredentialsFile string `env:"GAMEDATA_CREDENTIALS_FILE"`

	AutoMigrate        bool          `env:"GAMEDATA_AUTO_MIGRATE" envDefault:"true"`
	ReferenceCacheTTL  time.Duration `env:"GAMEDATA_REFERENCE_CACHE_TTL" envDefault:"30s"`
	ReferenceCacheSize int           `env:"GAMEDATA_REFERENCE_CACHE_SIZE" envDefault:"1024"`
	Timezone           string        `env:"GAMEDATA_TIMEZONE"`
	MaxPayloadBytes    int64         `env:"GAMEDATA_MAX_PAYLOAD_BYTES" envDefault:"8388608"`

	// name -> key, "ops:secret1,ci:secret2"
	AdminKeys map[string]string `env:"GAMEDATA_ADMIN_KEYS" envSeparator:"," envKeyValSeparator:":"`

	// set when the credentials file exists but cannot be used
	credentialsErr error
}

// credentials is the per-user database credentials file.
type credentials struct {
	DBURL      string `yaml:"db_url"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBHost     string `yaml:"db_host"`
	DBName     string `yaml:"db_name"`
}

// Load reads the configuration from the process environment and the
// credentials file. Environment values win over the file.
func Load() (Config, error) {
	return LoadFrom(env.ToMap(os.Environ()))
}

// LoadFrom is Load with an explicit environment.
func LoadFrom(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	for name, key := range cfg.AdminKeys {
		if strings.TrimSpace(name) == "" || strings.TrimSpace(key) == "" {
			return Config{}, errors.New(`GAMEDATA_ADMIN_KEYS must be "name:key,name:key"`)
		}
	}
	if cfg.ReferenceCacheTTL < 0 {
		return Config{}, errors.New("GAMEDATA_REFERENCE_CACHE_TTL must not be negative")
	}
	if cfg.ReferenceCacheTTL > 0 && cfg.ReferenceCacheSize <= 0 {
		return Config{}, errors.New("GAMEDATA_REFERENCE_CACHE_SIZE must be positive")
	}
	if cfg.MaxPayloadBytes <= 0 {
		return Config{}, errors.New("GAMEDATA_MAX_PAYLOAD_BYTES must be positive")
	}
	if cfg.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Timezone); err != nil {
			return Config{}, fmt.Errorf("GAMEDATA_TIMEZONE: %w", err)
		}
	}

	explicit := cfg.CredentialsFile != ""
	if !explicit {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.CredentialsFile = filepath.Join(home, "gamedata", "gamedata.yaml")
		}
	}
	if cfg.CredentialsFile != "" {
		cfg.credentialsErr = cfg.mergeCredentials(explicit)
	}

	if cfg.DBHost == "" {
		cfg.DBHost = defaultDBHost
	}
	if cfg.DBName == "" {
		cfg.DBName = defaultDBName
	}
	return cfg, nil
}

// mergeCredentials fills database fields left empty by the environment.
// A missing default file is not an error.
func (c *Config) mergeCredentials(explicit bool) error {
	raw, err := os.ReadFile(c.CredentialsFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("read credentials file: %w", err)
	}
	var cred credentials
	if err := yaml.Unmarshal(raw, &cred); err != nil {
		return fmt.Errorf("parse credentials file %s: %w", c.CredentialsFile, err)
	}
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = strings.TrimSpace(v)
		}
	}
	fill(&c.DBURL, cred.DBURL)
	fill(&c.DBUser, cred.DBUser)
	fill(&c.DBPassword, cred.DBPassword)
	fill(&c.DBHost, cred.DBHost)
	fill(&c.DBName, cred.DBName)
	return nil
}

// DSN returns the Postgres connection string. It fails when no credentials
// are configured; the caller treats that as a worker startup error.
func (c Config) DSN() (string, error) {
	if c.credentialsErr != nil {
		return "", c.credentialsErr
	}
	if c.DBURL != "" {
		return c.DBURL, nil
	}
	if c.DBUser == "" {
		return "", fmt.Errorf("database credentials missing: set GAMEDATA_DB_URL or GAMEDATA_DB_USER, or db_user in %s", c.CredentialsFile)
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   c.DBHost,
		Path:   "/" + c.DBName,
	}
	if c.DBPassword == "" {
		u.User = url.User(c.DBUser)
	}
	return u.String(), nil
}

// Location returns the zone for date-times sent without one.
func (c Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// AdminKeyNames maps each admin key to its name, the shape the API key
// middleware expects.
func (c Config) AdminKeyNames() map[string]string {
	out := make(map[string]string, len(c.AdminKeys))
	for name, key := range c.AdminKeys {
		out[strings.TrimSpace(key)] = strings.TrimSpace(name)
	}
	return out
}
