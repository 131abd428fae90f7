package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DuplicateLabelPolicy decides what the registry does with a label that is already registered.
type DuplicateLabelPolicy string

const (
	DuplicateLabelsAllow  DuplicateLabelPolicy = "allow"  // append another descriptor (observed behaviour)
	DuplicateLabelsReject DuplicateLabelPolicy = "reject" // refuse before calling the backend
)

// Config is the on-disk configuration of the console (witness-console.yaml).
type Config struct {
	Addr string `yaml:"address"`
	Port string `yaml:"port"`

	// Origins allowed by CORS in dev mode (local UI dev servers).
	DevOrigins []string `yaml:"dev_origins"`
	// Trusted reverse proxies in production.
	TrustedProxies []string `yaml:"trusted_proxies"`

	Backend  BackendConfig  `yaml:"backend"`
	Redis    RedisConfig    `yaml:"redis"`
	Registry RegistryConfig `yaml:"registry"`
	Mirror   MirrorConfig   `yaml:"mirror"`
	Operator OperatorConfig `yaml:"operator"`
}

// BackendConfig locates the AI backend.
type BackendConfig struct {
	BaseURL        string        `yaml:"base_url"`        // e.g. http://127.0.0.1:8000
	WSURL          string        `yaml:"ws_url"`          // e.g. ws://127.0.0.1:8000; derived from BaseURL when empty
	RequestTimeout time.Duration `yaml:"request_timeout"` // default 15s, 0 disables
}

type RedisConfig struct {
	Addr          string `yaml:"address"`
	DB            int    `yaml:"db"`
	SessionDB     int    `yaml:"session_db"`
	CameraListKey string `yaml:"camera_list_key"`
}

type RegistryConfig struct {
	DuplicateLabels DuplicateLabelPolicy `yaml:"duplicate_labels"`
}

type MirrorConfig struct {
	// EventCapacity bounds the in-memory detection event log (default 5000). 0 means unbounded.
	EventCapacity int `yaml:"event_capacity"`
}

// OperatorConfig holds the single operator account allowed to sign in.
type OperatorConfig struct {
	Username      string `yaml:"username"`
	PasswordHash  string `yaml:"password_hash"` // bcrypt
	SessionSecret string `yaml:"session_secret"`
}

const (
	DefaultRequestTimeout = 15 * time.Second
	DefaultEventCapacity  = 5000
	DefaultSessionDB      = 1
)

// Default returns a config with every optional field filled in.
func Default() *Config {
	cfg := preset()
	cfg.setDefaults()
	return cfg
}

// preset holds the defaults where an explicit zero is a valid choice ("off", or
// Redis DB 0), so they must be in place before the file is decoded over them.
func preset() *Config {
	return &Config{
		Backend: BackendConfig{RequestTimeout: DefaultRequestTimeout},
		Redis:   RedisConfig{SessionDB: DefaultSessionDB},
		Mirror:  MirrorConfig{EventCapacity: DefaultEventCapacity},
	}
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := preset()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = "127.0.0.1"
	}
	if c.Port == "" {
		c.Port = "8080"
	}
	if len(c.DevOrigins) == 0 {
		c.DevOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000", "http://localhost:5173"}
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://127.0.0.1:8000"
	}
	c.Backend.BaseURL = strings.TrimRight(c.Backend.BaseURL, "/")
	if c.Backend.WSURL == "" {
		c.Backend.WSURL = wsFromHTTP(c.Backend.BaseURL)
	}
	c.Backend.WSURL = strings.TrimRight(c.Backend.WSURL, "/")
	if c.Backend.RequestTimeout < 0 {
		c.Backend.RequestTimeout = 0
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.CameraListKey == "" {
		c.Redis.CameraListKey = "cameraData"
	}
	if c.Registry.DuplicateLabels == "" {
		c.Registry.DuplicateLabels = DuplicateLabelsAllow
	}
	if c.Mirror.EventCapacity < 0 {
		c.Mirror.EventCapacity = 0
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := url.ParseRequestURI(c.Backend.BaseURL); err != nil {
		return fmt.Errorf("backend.base_url: %w", err)
	}
	u, err := url.ParseRequestURI(c.Backend.WSURL)
	if err != nil {
		return fmt.Errorf("backend.ws_url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("backend.ws_url: unsupported scheme %q", u.Scheme)
	}
	switch c.Registry.DuplicateLabels {
	case DuplicateLabelsAllow, DuplicateLabelsReject:
	default:
		return fmt.Errorf("registry.duplicate_labels: unknown policy %q", c.Registry.DuplicateLabels)
	}
	if c.Operator.Username == "" || c.Operator.PasswordHash == "" {
		return errors.New("operator: username and password_hash are required")
	}
	if len(c.Operator.SessionSecret) < 32 {
		return errors.New("operator.session_secret: must be at least 32 bytes")
	}
	return nil
}

func wsFromHTTP(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base
}
