package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file expected in a project directory.
const FileName = "panvault.yaml"

// Config represents the top-level panvault.yaml configuration.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Storage  StorageConfig  `yaml:"storage"`
	Exchange ExchangeConfig `yaml:"exchange"`
}

// SiteConfig identifies this deployment in exported documents.
type SiteConfig struct {
	Label string `yaml:"label" validate:"required"`
}

// StorageConfig locates the persisted snapshot and the transaction log.
// Paths are relative to the project directory.
type StorageConfig struct {
	SnapshotPath string `yaml:"snapshot_path" validate:"required"`
	TxLogPath    string `yaml:"txlog_path,omitempty"`
}

// ExchangeConfig controls the interchange pipeline.
type ExchangeConfig struct {
	DocumentsDir string `yaml:"documents_dir" validate:"required"`
	SigningKey   string `yaml:"signing_key" validate:"required"`
	// SignatureScope is "payload" (metadata stays outside the signature)
	// or "document". Both sites must use the same scope.
	SignatureScope string `yaml:"signature_scope" validate:"oneof=payload document"`
}

var validate = validator.New()

// Load reads and validates a panvault.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new site.
func Default(label, signingKey string) *Config {
	return &Config{
		Site: SiteConfig{Label: label},
		Storage: StorageConfig{
			SnapshotPath: "panvault.json",
			TxLogPath:    "transactions.csv",
		},
		Exchange: ExchangeConfig{
			DocumentsDir:   "exchange",
			SigningKey:     signingKey,
			SignatureScope: "payload",
		},
	}
}
