package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
tshark:
  path: "/opt/wireshark/tshark"
  chunk_budget: 1234
enrich:
  num_workers: 8
storage:
  writers:
    - type: "clickhouse"
      enabled: true
      clickhouse:
        host: "ch.local"
        port: 9000
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("S1APFLOW_CLICKHOUSE_PASSWORD", "hunter2")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Tshark.Path != "/opt/wireshark/tshark" || cfg.Tshark.ChunkBudget != 1234 {
		t.Errorf("Tshark config = %+v", cfg.Tshark)
	}
	if cfg.Enrich.NumWorkers != 8 {
		t.Errorf("NumWorkers = %d", cfg.Enrich.NumWorkers)
	}
	if len(cfg.Storage.Writers) != 1 || cfg.Storage.Writers[0].ClickHouse.Password != "hunter2" {
		t.Error("Environment override did not reach the clickhouse writer")
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Missing config file must fall back to defaults: %v", err)
	}
	if cfg.Tshark.Path != "tshark" || cfg.Tshark.ChunkBudget != 6000 {
		t.Errorf("Defaults = %+v", cfg.Tshark)
	}
	if cfg.Enrich.NumWorkers != 1 {
		t.Errorf("Default workers = %d", cfg.Enrich.NumWorkers)
	}
}
