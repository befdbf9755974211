package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Convert: ConvertConfig{
			Input: "in.csv", Output: "out.sql", BatchSize: 10, ChunkSize: 10, MaxFileSizeMB: 500,
			Table: "meter_readings", QuoteMode: "legacy", InvalidDatePolicy: "drop", InputEncoding: "utf-8",
			ProgressInterval: 100000,
		},
		Server:  ServerConfig{Port: 8080, ShutdownTimeout: time.Second, RequestTimeout: time.Minute},
		Upload:  UploadConfig{MaxFileSize: 1, MaxConcurrent: 1, MaxWaitTime: time.Second, RunRetention: time.Minute},
		Rate:    RateLimitConfig{Enabled: true, RequestsPerMinute: 100},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Convert.BatchSize != 10 {
		t.Errorf("Convert.BatchSize = %d, want %d", cfg.Convert.BatchSize, 10)
	}
	if cfg.Convert.ChunkSize != 10 {
		t.Errorf("Convert.ChunkSize = %d, want %d", cfg.Convert.ChunkSize, 10)
	}
	if cfg.Convert.MaxFileSizeMB != 500 {
		t.Errorf("Convert.MaxFileSizeMB = %d, want %d", cfg.Convert.MaxFileSizeMB, 500)
	}
	if cfg.Convert.Table != "meter_readings" {
		t.Errorf("Convert.Table = %q, want %q", cfg.Convert.Table, "meter_readings")
	}
	if cfg.Convert.QuoteMode != "legacy" {
		t.Errorf("Convert.QuoteMode = %q, want %q", cfg.Convert.QuoteMode, "legacy")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Upload.MaxConcurrent != 4 {
		t.Errorf("Upload.MaxConcurrent = %d, want %d", cfg.Upload.MaxConcurrent, 4)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	t.Setenv("CONVERT_BATCH_SIZE", "250")
	t.Setenv("CONVERT_QUOTE_MODE", "escaped")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Convert.BatchSize != 250 {
		t.Errorf("Convert.BatchSize = %d, want %d", cfg.Convert.BatchSize, 250)
	}
	if cfg.Convert.QuoteMode != "escaped" {
		t.Errorf("Convert.QuoteMode = %q, want %q", cfg.Convert.QuoteMode, "escaped")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	os.Unsetenv("CONVERT_INPUT")
	t.Setenv("NEM12_INPUT", "/tmp/alt.csv")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Convert.Input != "/tmp/alt.csv" {
		t.Errorf("Convert.Input = %q, want %q", cfg.Convert.Input, "/tmp/alt.csv")
	}
}

func TestLoad_InvalidInteger(t *testing.T) {
	t.Setenv("CONVERT_CHUNK_SIZE", "ten")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for non-integer chunk size")
	}
	if !strings.Contains(err.Error(), "CONVERT_CHUNK_SIZE") {
		t.Errorf("error should mention CONVERT_CHUNK_SIZE: %v", err)
	}
}

func TestLoad_Duration(t *testing.T) {
	t.Setenv("SERVER_READ_TIMEOUT", "45s")
	t.Setenv("UPLOAD_MAX_WAIT_TIME", "1m30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 45*time.Second)
	}
	if cfg.Upload.MaxWaitTime != 90*time.Second {
		t.Errorf("Upload.MaxWaitTime = %v, want %v", cfg.Upload.MaxWaitTime, 90*time.Second)
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12 , 192.168.0.0/16")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	expected := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	if len(cfg.Security.TrustedProxies) != len(expected) {
		t.Fatalf("TrustedProxies length = %d, want %d", len(cfg.Security.TrustedProxies), len(expected))
	}
	for i, v := range expected {
		if cfg.Security.TrustedProxies[i] != v {
			t.Errorf("TrustedProxies[%d] = %q, want %q", i, cfg.Security.TrustedProxies[i], v)
		}
	}
}

func TestDefaults_IgnoresEnvironment(t *testing.T) {
	t.Setenv("CONVERT_BATCH_SIZE", "999")

	cfg := Defaults()
	if cfg.Convert.BatchSize != 10 {
		t.Errorf("Convert.BatchSize = %d, want %d", cfg.Convert.BatchSize, 10)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Defaults() should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		mention string
	}{
		{"invalid port", func(c *Config) { c.Server.Port = 99999 }, "SERVER_PORT"},
		{"zero batch size", func(c *Config) { c.Convert.BatchSize = 0 }, "CONVERT_BATCH_SIZE"},
		{"zero chunk size", func(c *Config) { c.Convert.ChunkSize = 0 }, "CONVERT_CHUNK_SIZE"},
		{"empty table", func(c *Config) { c.Convert.Table = " " }, "CONVERT_TABLE"},
		{"unknown quote mode", func(c *Config) { c.Convert.QuoteMode = "raw" }, "CONVERT_QUOTE_MODE"},
		{"unknown date policy", func(c *Config) { c.Convert.InvalidDatePolicy = "keep" }, "CONVERT_INVALID_DATE_POLICY"},
		{"unknown encoding", func(c *Config) { c.Convert.InputEncoding = "utf-16" }, "CONVERT_INPUT_ENCODING"},
		{"invalid log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"api key required without keys", func(c *Config) { c.Security.RequireAPIKey = true }, "API_KEYS"},
		{"zero request timeout", func(c *Config) { c.Server.RequestTimeout = 0 }, "SERVER_REQUEST_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatalf("Validate() expected error")
			}
			if !strings.Contains(err.Error(), tt.mention) {
				t.Errorf("error should mention %s: %v", tt.mention, err)
			}
		})
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 8080, ":8080"},
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"127.0.0.1", 3000, "127.0.0.1:3000"},
	}

	for _, tt := range tests {
		cfg := &ServerConfig{Host: tt.host, Port: tt.port}
		if got := cfg.Addr(); got != tt.want {
			t.Errorf("Addr() with host=%q, port=%d = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestConfigString_MasksAPIKeys(t *testing.T) {
	cfg := validConfig()
	cfg.Security.APIKeys = []string{"super-secret-key"}

	str := cfg.String()
	if strings.Contains(str, "super-secret-key") {
		t.Error("String() should mask API keys")
	}
	if !strings.Contains(str, "MASKED") {
		t.Error("String() should contain MASKED placeholder")
	}
}
