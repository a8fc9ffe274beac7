package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/nikogura/site-audit/pkg/llm"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppName names the config directory.
const AppName = "site-audit"

const (
	// DefaultListenAddr is where serve listens when nothing else is configured.
	DefaultListenAddr = ":8080"
	// DefaultSessionTTLMinutes is how long an idle HTTP session is kept.
	DefaultSessionTTLMinutes = 60
	// DefaultFormat is the report format.
	DefaultFormat = "markdown"
)

// Config represents the application configuration.
type Config struct {
	GeminiAPIKey   string        `json:"gemini_api_key" yaml:"gemini_api_key"`
	Model          string        `json:"model,omitempty" yaml:"model,omitempty"`
	Endpoint       string        `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	TimeoutSeconds int           `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
	RetryOnce      bool          `json:"retry_once,omitempty" yaml:"retry_once,omitempty"`
	Server         ServerConfig  `json:"server" yaml:"server"`
	Defaults       DefaultConfig `json:"defaults" yaml:"defaults"`
}

// ServerConfig holds settings for the HTTP front-end.
type ServerConfig struct {
	ListenAddr        string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`
	SessionTTLMinutes int    `json:"session_ttl_minutes,omitempty" yaml:"session_ttl_minutes,omitempty"`
}

// DefaultConfig holds default values for commands.
type DefaultConfig struct {
	Format    string `json:"format,omitempty" yaml:"format,omitempty"`
	OutputDir string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
}

// DefaultPath is $XDG_CONFIG_HOME/site-audit/config.json.
func DefaultPath() (path string) {
	path = filepath.Join(xdg.ConfigHome, AppName, "config.json")
	return path
}

// GetModel returns the configured model or the default.
func (c *Config) GetModel() (model string) {
	if c.Model != "" {
		model = c.Model
		return model
	}
	model = llm.GeminiModel
	return model
}

// GetTimeout returns the per-call model timeout.
func (c *Config) GetTimeout() (timeout time.Duration) {
	if c.TimeoutSeconds > 0 {
		timeout = time.Duration(c.TimeoutSeconds) * time.Second
		return timeout
	}
	timeout = llm.DefaultTimeout
	return timeout
}

// GetSessionTTL returns how long idle HTTP sessions live.
func (c *Config) GetSessionTTL() (ttl time.Duration) {
	minutes := c.Server.SessionTTLMinutes
	if minutes <= 0 {
		minutes = DefaultSessionTTLMinutes
	}
	ttl = time.Duration(minutes) * time.Minute
	return ttl
}

// Load reads configuration from file with environment variable overrides. A missing file is
// tolerated when the API key comes from the environment.
func Load(configPath string) (cfg Config, err error) {
	path := configPath
	if path == "" {
		path = DefaultPath()
	}

	var data []byte
	data, err = os.ReadFile(path)
	switch {
	case err == nil:
		err = unmarshal(path, data, &cfg)
		if err != nil {
			return cfg, err
		}
	case os.IsNotExist(err) && envAPIKey() != "":
		err = nil
	case os.IsNotExist(err):
		err = errors.Errorf("config file not found: %s (run 'site-audit init' to create, or set GEMINI_API_KEY)", path)
		return cfg, err
	default:
		err = errors.Wrapf(err, "failed to read config file: %s", path)
		return cfg, err
	}

	applyEnv(&cfg)

	err = cfg.Validate()
	if err != nil {
		err = errors.Wrap(err, "config validation failed")
		return cfg, err
	}

	return cfg, err
}

func unmarshal(path string, data []byte, cfg *Config) (err error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		err = errors.Wrapf(err, "failed to parse config file: %s", path)
	}
	return err
}

func envAPIKey() (key string) {
	key = os.Getenv("GEMINI_API_KEY")
	if key == "" {
		key = os.Getenv("API_KEY")
	}
	return key
}

func applyEnv(cfg *Config) {
	if apiKey := envAPIKey(); apiKey != "" {
		cfg.GeminiAPIKey = apiKey
	}

	if addr := os.Getenv("SITE_AUDIT_LISTEN_ADDR"); addr != "" {
		cfg.Server.ListenAddr = addr
	}
}

// Validate checks that all required configuration is present and fills in defaults.
func (c *Config) Validate() (err error) {
	if c.GeminiAPIKey == "" {
		err = errors.New("gemini_api_key is required (set in config or GEMINI_API_KEY env var)")
		return err
	}

	if c.TimeoutSeconds < 0 {
		err = errors.Errorf("timeout_seconds must not be negative, got %d", c.TimeoutSeconds)
		return err
	}

	if c.Model == "" {
		c.Model = llm.GeminiModel
	}

	if c.Endpoint == "" {
		c.Endpoint = llm.GeminiAPIEndpoint
	}

	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = int(llm.DefaultTimeout / time.Second)
	}

	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}

	if c.Server.SessionTTLMinutes <= 0 {
		c.Server.SessionTTLMinutes = DefaultSessionTTLMinutes
	}

	switch c.Defaults.Format {
	case "":
		c.Defaults.Format = DefaultFormat
	case "markdown", "json":
	default:
		err = errors.Errorf("defaults.format must be markdown or json, got %q", c.Defaults.Format)
		return err
	}

	return err
}

// InitConfig creates a starter configuration file.
func InitConfig(configPath string) (err error) {
	path := configPath
	if path == "" {
		path = DefaultPath()
	}

	dir := filepath.Dir(path)
	err = os.MkdirAll(dir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create config directory: %s", dir)
		return err
	}

	_, err = os.Stat(path)
	if err == nil {
		err = errors.Errorf("config file already exists: %s", path)
		return err
	}

	defaultConfig := Config{
		GeminiAPIKey:   "AIza...",
		Model:          llm.GeminiModel,
		TimeoutSeconds: int(llm.DefaultTimeout / time.Second),
		Server: ServerConfig{
			ListenAddr:        DefaultListenAddr,
			SessionTTLMinutes: DefaultSessionTTLMinutes,
		},
		Defaults: DefaultConfig{
			Format:    DefaultFormat,
			OutputDir: "./audits",
		},
	}

	var data []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(defaultConfig)
	default:
		data, err = json.MarshalIndent(defaultConfig, "", "  ")
	}
	if err != nil {
		err = errors.Wrap(err, "failed to marshal default config")
		return err
	}

	err = os.WriteFile(path, data, 0600)
	if err != nil {
		err = errors.Wrapf(err, "failed to write config file: %s", path)
		return err
	}

	return err
}
