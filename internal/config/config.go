package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// TsharkConfig locates the external decoder and tunes summary extraction.
type TsharkConfig struct {
	Path          string   `yaml:"path"`
	SummaryFields []string `yaml:"summary_fields"`
	ChunkBudget   int      `yaml:"chunk_budget"`
}

// EnrichConfig tunes the summary enricher.
type EnrichConfig struct {
	NumWorkers int `yaml:"num_workers"`
}

// ExportConfig configures the optional NATS flow export.
type ExportConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// ClickHouseConfig holds the connection settings for the ClickHouse sink.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// WriterDef declares one optional flow-set sink.
type WriterDef struct {
	Type       string           `yaml:"type"`
	Enabled    bool             `yaml:"enabled"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

// StorageConfig lists the configured flow-set sinks. The JSON flow-set file
// is always written; these are additional destinations.
type StorageConfig struct {
	Writers []WriterDef `yaml:"writers"`
}

// APIConfig configures the flow-api server.
type APIConfig struct {
	ListenAddr  string `yaml:"listen_addr"`
	FlowsPath   string `yaml:"flows_path"`
	CapturePath string `yaml:"capture_path"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Tshark  TsharkConfig  `yaml:"tshark"`
	Enrich  EnrichConfig  `yaml:"enrich"`
	Export  ExportConfig  `yaml:"export"`
	Storage StorageConfig `yaml:"storage"`
	API     APIConfig     `yaml:"api"`
}

// Default returns the configuration used when no config file is present.
// The CLI must work from a bare checkout with only tshark on PATH.
func Default() *Config {
	return &Config{
		Tshark: TsharkConfig{
			Path:        "tshark",
			ChunkBudget: 6000,
		},
		Enrich: EnrichConfig{NumWorkers: 1},
		API:    APIConfig{ListenAddr: ":8080"},
	}
}

// LoadConfig reads the configuration from a YAML file, then applies .env
// and environment overrides. A missing file yields the defaults.
func LoadConfig(filePath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	// .env is optional; environment variables always win.
	_ = godotenv.Load()
	if v := os.Getenv("S1APFLOW_TSHARK"); v != "" {
		cfg.Tshark.Path = v
	}
	if v := os.Getenv("S1APFLOW_NATS_URL"); v != "" {
		cfg.Export.NATSURL = v
	}
	if v := os.Getenv("S1APFLOW_CLICKHOUSE_PASSWORD"); v != "" {
		for i := range cfg.Storage.Writers {
			if cfg.Storage.Writers[i].Type == "clickhouse" {
				cfg.Storage.Writers[i].ClickHouse.Password = v
			}
		}
	}

	if cfg.Tshark.Path == "" {
		cfg.Tshark.Path = "tshark"
	}
	if cfg.Tshark.ChunkBudget <= 0 {
		cfg.Tshark.ChunkBudget = 6000
	}
	if cfg.Enrich.NumWorkers <= 0 {
		cfg.Enrich.NumWorkers = 1
	}

	return cfg, nil
}
