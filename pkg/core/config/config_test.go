package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
)

func TestDuration_TOML(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		encoded string
		wantErr bool
	}{
		{"250ms", 250 * time.Millisecond, "250ms", false},
		{"10s", 10 * time.Second, "10s", false},
		{"1h30m", 90 * time.Minute, "1h30m0s", false},
		{"ten seconds", 0, "", true},
		{"", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var doc struct {
				Timeout Duration `toml:"timeout"`
			}
			_, err := toml.Decode(fmt.Sprintf("timeout = %q", tt.input), &doc)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if doc.Timeout.Duration != tt.want {
				t.Errorf("Duration = %v, want %v", doc.Timeout.Duration, tt.want)
			}
			text, _ := doc.Timeout.MarshalText()
			if string(text) != tt.encoded {
				t.Errorf("MarshalText() = %s, want %s", text, tt.encoded)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	checks := []struct {
		name      string
		got, want interface{}
	}{
		{"general.name", cfg.General.Name, "kinematics"},
		{"general.environment", cfg.General.Environment, "development"},
		{"general.log_level", cfg.General.LogLevel, "info"},
		{"engine.max_steps", cfg.Engine.MaxSteps, 1_000_000},
		{"engine.eval_timeout", cfg.Engine.EvalTimeout.Duration, 10 * time.Second},
		{"engine.cache_max_items", cfg.Engine.CacheMaxItems, 256},
		{"server.grpc_port", cfg.Server.GRPCPort, 9300},
		{"server.http_port", cfg.Server.HTTPPort, 8300},
		{"store.enabled", cfg.Store.Enabled, false},
		{"store.path", cfg.Store.Path, filepath.Join("./data", "runs.db")},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestConfig_Addresses(t *testing.T) {
	cfg := Default()

	if got := cfg.GRPCAddress(); got != "0.0.0.0:9300" {
		t.Errorf("GRPCAddress() = %v, want 0.0.0.0:9300", got)
	}
	if got := cfg.HTTPAddress(); got != "0.0.0.0:8300" {
		t.Errorf("HTTPAddress() = %v, want 0.0.0.0:8300", got)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.toml")
	if err == nil {
		t.Error("Load() expected error for non-existent file")
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	configContent := `
[general]
name = "test-kin"
environment = "test"
data_dir = "/var/lib/kin"

[engine]
max_steps = 500
eval_timeout = "250ms"

[server]
host = "127.0.0.1"
grpc_port = 9999

[store]
enabled = true
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.General.Name != "test-kin" {
		t.Errorf("General.Name = %v, want test-kin", cfg.General.Name)
	}
	if cfg.Engine.MaxSteps != 500 {
		t.Errorf("Engine.MaxSteps = %v, want 500", cfg.Engine.MaxSteps)
	}
	if cfg.Engine.EvalTimeout.Duration != 250*time.Millisecond {
		t.Errorf("Engine.EvalTimeout = %v, want 250ms", cfg.Engine.EvalTimeout.Duration)
	}
	if cfg.GRPCAddress() != "127.0.0.1:9999" {
		t.Errorf("GRPCAddress() = %v, want 127.0.0.1:9999", cfg.GRPCAddress())
	}
	if !cfg.Store.Enabled {
		t.Error("Store.Enabled = false, want true")
	}

	// Check defaults were applied for missing values
	if cfg.Server.HTTPPort != 8300 {
		t.Errorf("Server.HTTPPort = %v, want 8300 (default)", cfg.Server.HTTPPort)
	}
	if cfg.Store.Path != filepath.Join("/var/lib/kin", "runs.db") {
		t.Errorf("Store.Path = %v, want /var/lib/kin/runs.db", cfg.Store.Path)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(configPath, []byte("[engine]\nmax_steps = 500\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("KIN_MAX_STEPS", "42")
	t.Setenv("KIN_STORE_ENABLED", "true")
	t.Setenv("KIN_EVAL_TIMEOUT", "2s")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Engine.MaxSteps != 42 {
		t.Errorf("Engine.MaxSteps = %v, want 42", cfg.Engine.MaxSteps)
	}
	if !cfg.Store.Enabled {
		t.Error("Store.Enabled = false, want true")
	}
	if cfg.Engine.EvalTimeout.Duration != 2*time.Second {
		t.Errorf("Engine.EvalTimeout = %v, want 2s", cfg.Engine.EvalTimeout.Duration)
	}

	t.Setenv("KIN_GRPC_PORT", "not-a-port")
	if _, err := Load(configPath); err == nil {
		t.Error("Load() expected error for invalid KIN_GRPC_PORT")
	}
}

func TestConfig_expandEnvVars(t *testing.T) {
	t.Setenv("TEST_KIN_HOME", "/srv/kin")

	cfg := &Config{
		General: GeneralConfig{DataDir: "$TEST_KIN_HOME/data"},
		Store:   StoreConfig{Path: "${TEST_KIN_HOME}/runs.db"},
	}

	cfg.expandEnvVars()

	if cfg.General.DataDir != "/srv/kin/data" {
		t.Errorf("DataDir = %v, want /srv/kin/data", cfg.General.DataDir)
	}
	if cfg.Store.Path != "/srv/kin/runs.db" {
		t.Errorf("Store.Path = %v, want /srv/kin/runs.db", cfg.Store.Path)
	}
}

func TestLoadFromEnv_NoConfigFound(t *testing.T) {
	t.Setenv("KIN_CONFIG", "")
	t.Setenv("HOME", t.TempDir())

	// Change to a temp directory without config files
	originalWd, _ := os.Getwd()
	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	defer os.Chdir(originalWd)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.General.Name != "kinematics" {
		t.Errorf("General.Name = %v, want defaults", cfg.General.Name)
	}
}
