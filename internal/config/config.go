package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read when CONFIG_FILE is unset; it may be absent.
const DefaultConfigFile = "config.yaml"

type Config struct {
	TCPAddr          string        `yaml:"tcpAddr" env:"TCP_ADDR" validate:"required"`
	Port             string        `yaml:"port" env:"PORT" validate:"omitempty,numeric"`
	DataDir          string        `yaml:"dataDir" env:"DATA_DIR" validate:"required"`
	AccountsFile     string        `yaml:"accountsFile" env:"ACCOUNTS_FILE" validate:"required"`
	ListingsFile     string        `yaml:"listingsFile" env:"LISTINGS_FILE" validate:"required"`
	MessagesDir      string        `yaml:"messagesDir" env:"MESSAGES_DIR" validate:"required"`
	IndexFile        string        `yaml:"indexFile" env:"INDEX_FILE" validate:"required"`
	AutoSaveInterval time.Duration `yaml:"autosaveInterval" env:"AUTOSAVE_INTERVAL" validate:"gt=0"`
	MaxFrameBytes    int           `yaml:"maxFrameBytes" env:"MAX_FRAME_BYTES" validate:"gte=256"`
	LogLevel         string        `yaml:"logLevel" env:"LOG_LEVEL" validate:"oneof=debug info warn warning error"`
	LogFormat        string        `yaml:"logFormat" env:"LOG_FORMAT" validate:"oneof=json text"`

	BackupBucket          string `yaml:"backupBucket" env:"BACKUP_BUCKET"`
	BackupPrefix          string `yaml:"backupPrefix" env:"BACKUP_PREFIX"`
	BackupCredentialsFile string `yaml:"backupCredentialsFile" env:"BACKUP_CREDENTIALS_FILE" validate:"omitempty,file"`
}

func Default() Config {
	return Config{
		TCPAddr:          ":4242",
		Port:             "8080",
		DataDir:          ".",
		AccountsFile:     "allUser.txt",
		ListingsFile:     "MarketInventory.txt",
		MessagesDir:      "messages",
		IndexFile:        "fileNameList.txt",
		AutoSaveInterval: 10 * time.Minute,
		MaxFrameBytes:    1 << 20,
		LogLevel:         "info",
		LogFormat:        "json",
		BackupPrefix:     "snapshots",
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (config.yaml if unset and present), then the environment.
// Callers load .env beforehand.
func Load() (*Config, error) {
	cfg := Default()

	path, explicit := os.LookupEnv("CONFIG_FILE")
	if !explicit || path == "" {
		path, explicit = DefaultConfigFile, false
	}
	if err := loadFile(path, &cfg); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) AccountsPath() string { return c.resolve(c.AccountsFile) }
func (c *Config) ListingsPath() string { return c.resolve(c.ListingsFile) }
func (c *Config) MessagesPath() string { return c.resolve(c.MessagesDir) }
func (c *Config) IndexPath() string    { return c.resolve(c.IndexFile) }

// AdminAddr is the admin HTTP listen address, empty when disabled.
func (c *Config) AdminAddr() string {
	if c.Port == "" {
		return ""
	}
	return ":" + c.Port
}

func (c *Config) BackupEnabled() bool { return c.BackupBucket != "" }

func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}
