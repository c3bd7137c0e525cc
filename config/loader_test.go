// 配置加载器测试。
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Loader 测试 ---

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8000, cfg.Server.HTTPPort)
	assert.Equal(t, 512, cfg.Pipeline.MaxDimension)
	assert.Equal(t, "outputs", cfg.Storage.OutputDir)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
server:
  http_port: 8888
  read_timeout: 60s
  api_keys: ["k1", "k2"]

pipeline:
  contrast_factor: 2.5
  mask_size: 128
  extrude_height: 4

background:
  provider: rembg
  base_url: "http://rembg:7000"

preview:
  distance: 300

storage:
  output_dir: "/var/lib/cartoonprint"

log:
  level: "debug"
  format: "console"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Server.APIKeys)

	assert.Equal(t, 2.5, cfg.Pipeline.ContrastFactor)
	assert.Equal(t, 128, cfg.Pipeline.MaskSize)
	assert.Equal(t, 4.0, cfg.Pipeline.ExtrudeHeight)
	// 未出现在 YAML 中的字段保留默认值
	assert.Equal(t, 21, cfg.Pipeline.BlurKernel)

	assert.Equal(t, "rembg", cfg.Background.Provider)
	assert.Equal(t, "http://rembg:7000", cfg.Background.BaseURL)
	assert.Equal(t, 300.0, cfg.Preview.Distance)
	assert.Equal(t, "/var/lib/cartoonprint", cfg.Storage.OutputDir)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	require.NoError(t, cfg.Validate())
}

func TestLoader_LoadFromEnv(t *testing.T) {
	t.Setenv("CARTOONPRINT_SERVER_HTTP_PORT", "7777")
	t.Setenv("CARTOONPRINT_SERVER_WRITE_TIMEOUT", "5m")
	t.Setenv("CARTOONPRINT_SERVER_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("CARTOONPRINT_PIPELINE_THRESHOLD", "0.4")
	t.Setenv("CARTOONPRINT_PIPELINE_MAX_UPLOAD_BYTES", "1024")
	t.Setenv("CARTOONPRINT_STORAGE_SERVE", "false")
	t.Setenv("CARTOONPRINT_LOG_LEVEL", "warn")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.HTTPPort)
	assert.Equal(t, 5*time.Minute, cfg.Server.WriteTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, 0.4, cfg.Pipeline.Threshold)
	assert.Equal(t, int64(1024), cfg.Pipeline.MaxUploadBytes)
	assert.False(t, cfg.Storage.Serve)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
server:
  http_port: 8888
storage:
  output_dir: "yaml-out"
  url_prefix: "/files"
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	t.Setenv("CARTOONPRINT_SERVER_HTTP_PORT", "9999")
	t.Setenv("CARTOONPRINT_STORAGE_OUTPUT_DIR", "env-out")

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	require.NoError(t, err)

	// 环境变量覆盖 YAML
	assert.Equal(t, 9999, cfg.Server.HTTPPort)
	assert.Equal(t, "env-out", cfg.Storage.OutputDir)
	// YAML 值保留
	assert.Equal(t, "/files", cfg.Storage.URLPrefix)
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	t.Setenv("MYAPP_SERVER_HTTP_PORT", "6666")

	cfg, err := NewLoader().
		WithEnvPrefix("MYAPP").
		Load()
	require.NoError(t, err)

	assert.Equal(t, 6666, cfg.Server.HTTPPort)
}

func TestLoader_InvalidEnvValue(t *testing.T) {
	t.Setenv("CARTOONPRINT_PIPELINE_MASK_SIZE", "many")

	_, err := NewLoader().Load()
	assert.Error(t, err)
}

func TestLoader_WithValidator(t *testing.T) {
	validator := func(cfg *Config) error {
		if cfg.Server.HTTPPort < 1024 {
			return assert.AnError
		}
		return nil
	}

	t.Setenv("CARTOONPRINT_SERVER_HTTP_PORT", "80")

	_, err := NewLoader().
		WithValidator(validator).
		Load()
	assert.Error(t, err)
}

func TestLoader_NonExistentFile(t *testing.T) {
	cfg, err := NewLoader().
		WithConfigPath("/non/existent/path/config.yaml").
		Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8000, cfg.Server.HTTPPort)
}

func TestLoader_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
server:
  http_port: [invalid
  this is not valid yaml
`
	require.NoError(t, os.WriteFile(configPath, []byte(invalidYAML), 0644))

	_, err := NewLoader().
		WithConfigPath(configPath).
		Load()
	assert.Error(t, err)
}

// --- Config 方法测试 ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "valid default config", modify: func(c *Config) {}},
		{name: "invalid HTTP port (negative)", modify: func(c *Config) { c.Server.HTTPPort = -1 }, wantErr: true},
		{name: "invalid HTTP port (too large)", modify: func(c *Config) { c.Server.HTTPPort = 70000 }, wantErr: true},
		{name: "tls cert without key", modify: func(c *Config) { c.Server.TLSCertFile = "server.crt" }, wantErr: true},
		{
			name: "tls cert and key",
			modify: func(c *Config) {
				c.Server.TLSCertFile = "server.crt"
				c.Server.TLSKeyFile = "server.key"
			},
		},
		{name: "metrics disabled", modify: func(c *Config) { c.Server.MetricsPort = 0 }},
		{name: "negative max connections", modify: func(c *Config) { c.Server.MaxConnections = -1 }, wantErr: true},
		{name: "even blur kernel", modify: func(c *Config) { c.Pipeline.BlurKernel = 20 }, wantErr: true},
		{name: "mask too small", modify: func(c *Config) { c.Pipeline.MaskSize = 1 }, wantErr: true},
		{name: "threshold out of range", modify: func(c *Config) { c.Pipeline.Threshold = 1 }, wantErr: true},
		{name: "zero extrude height", modify: func(c *Config) { c.Pipeline.ExtrudeHeight = 0 }, wantErr: true},
		{name: "negative concurrency", modify: func(c *Config) { c.Pipeline.MaxConcurrent = -1 }, wantErr: true},
		{name: "bounded concurrency", modify: func(c *Config) { c.Pipeline.MaxConcurrent = 4 }},
		{name: "unbuffered queue", modify: func(c *Config) { c.Pipeline.QueueSize = 0 }},
		{name: "unknown background provider", modify: func(c *Config) { c.Background.Provider = "magic" }, wantErr: true},
		{
			name: "rembg without base url",
			modify: func(c *Config) {
				c.Background.Provider = "rembg"
				c.Background.BaseURL = ""
			},
			wantErr: true,
		},
		{name: "zero preview size", modify: func(c *Config) { c.Preview.Width = 0 }, wantErr: true},
		{name: "flat field of view", modify: func(c *Config) { c.Preview.FieldOfView = 180 }, wantErr: true},
		{name: "empty output dir", modify: func(c *Config) { c.Storage.OutputDir = "" }, wantErr: true},
		{name: "root url prefix", modify: func(c *Config) { c.Storage.URLPrefix = "/" }, wantErr: true},
		{name: "url prefix without slash", modify: func(c *Config) { c.Storage.URLPrefix = "files" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// --- MustLoad 测试 ---

func TestMustLoad_Success(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  http_port: 8080\n"), 0644))

	assert.NotPanics(t, func() {
		cfg := MustLoad(configPath)
		assert.Equal(t, 8080, cfg.Server.HTTPPort)
	})
}

func TestMustLoad_InvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("invalid: [yaml"), 0644))

	assert.Panics(t, func() {
		MustLoad(configPath)
	})
}
