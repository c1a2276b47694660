// CLAUDE:SUMMARY Defines domshot config structs and parses YAML configuration files with defaults and validation.
// Package config handles domshot configuration from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/pagesnap/horosafe"
)

// Config is the top-level domshot configuration.
type Config struct {
	Browser   BrowserConfig    `yaml:"browser"`
	Pages     []PageConfig     `yaml:"pages"`
	Capture   CaptureConfig    `yaml:"capture"`
	Toast     ToastConfig      `yaml:"toast"`
	Exporters []ExporterConfig `yaml:"exporters"`
	Journal   JournalConfig    `yaml:"journal"`
	HTTP      HTTPConfig       `yaml:"http"`
}

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig struct {
	Remote         string        `yaml:"remote"`
	Mode           string        `yaml:"mode"` // headful | headless | xvfb
	XvfbDisplay    string        `yaml:"xvfb_display"`
	XvfbScreen     string        `yaml:"xvfb_screen"` // WxHxDepth
	CallTimeout    time.Duration `yaml:"call_timeout"`
	Stealth        bool          `yaml:"stealth"`
	BlockResources []string      `yaml:"block_resources"`
	HeapWarn       int64         `yaml:"heap_warn"`
}

// PageConfig defines a page opened at startup.
type PageConfig struct {
	ID  string `yaml:"id"`
	URL string `yaml:"url"`
}

// CaptureConfig controls the capture trigger.
type CaptureConfig struct {
	ReadyTimeout  time.Duration `yaml:"ready_timeout"`
	DefaultFormat string        `yaml:"default_format"` // svg | png
}

// ToastConfig sets notification lifetimes.
type ToastConfig struct {
	InfoDuration       time.Duration `yaml:"info_duration"`
	SelectHintDuration time.Duration `yaml:"select_hint_duration"`
}

// ExporterConfig defines an output backend.
type ExporterConfig struct {
	Type    string        `yaml:"type"`    // file | stdout | webhook
	Dir     string        `yaml:"dir"`     // for file
	Sidecar string        `yaml:"sidecar"` // for file: "" | markdown
	URL     string        `yaml:"url"`     // for webhook
	Retries int           `yaml:"retries"` // for webhook
	Backoff time.Duration `yaml:"backoff"` // for webhook
}

// JournalConfig locates the capture journal. Empty path disables it.
type JournalConfig struct {
	Path        string        `yaml:"path"`
	BusyTimeout time.Duration `yaml:"busy_timeout"` // 0 keeps the SQLite default of 10s
	Synchronous string        `yaml:"synchronous"`  // OFF | NORMAL | FULL | EXTRA
}

// HTTPConfig controls the command API.
type HTTPConfig struct {
	Listen    string `yaml:"listen"`
	TokenHash string `yaml:"token_hash"` // bcrypt hash of the bearer token
	// AllowPrivateURLs lets remote open commands target loopback and
	// private addresses.
	AllowPrivateURLs bool `yaml:"allow_private_urls"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.ApplyDefaults()
	return &cfg
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Browser.Mode == "" {
		c.Browser.Mode = "headful"
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}
	if c.Browser.XvfbScreen == "" {
		c.Browser.XvfbScreen = "1920x1080x24"
	}
	if c.Browser.CallTimeout <= 0 {
		c.Browser.CallTimeout = 5 * time.Second
	}
	if c.Browser.HeapWarn <= 0 {
		c.Browser.HeapWarn = 1 << 30
	}
	if c.Capture.ReadyTimeout <= 0 {
		c.Capture.ReadyTimeout = 10 * time.Second
	}
	if c.Capture.DefaultFormat == "" {
		c.Capture.DefaultFormat = "svg"
	}
	if c.Toast.InfoDuration <= 0 {
		c.Toast.InfoDuration = 3 * time.Second
	}
	if c.Toast.SelectHintDuration <= 0 {
		c.Toast.SelectHintDuration = 5 * time.Second
	}
	for i := range c.Exporters {
		e := &c.Exporters[i]
		if e.Type == "webhook" {
			if e.Retries <= 0 {
				e.Retries = 3
			}
			if e.Backoff <= 0 {
				e.Backoff = 500 * time.Millisecond
			}
		}
	}
}

// Validate reports the first inconsistency.
func (c *Config) Validate() error {
	switch c.Browser.Mode {
	case "headful", "headless", "xvfb":
	default:
		return fmt.Errorf("config: browser.mode %q", c.Browser.Mode)
	}
	switch c.Capture.DefaultFormat {
	case "svg", "png":
	default:
		return fmt.Errorf("config: capture.default_format %q", c.Capture.DefaultFormat)
	}
	seen := make(map[string]bool, len(c.Pages))
	for i, p := range c.Pages {
		if p.ID == "" || p.URL == "" {
			return fmt.Errorf("config: pages[%d]: id and url are required", i)
		}
		if err := horosafe.ValidateIdentifier(p.ID); err != nil {
			return fmt.Errorf("config: pages[%d]: %w", i, err)
		}
		if seen[p.ID] {
			return fmt.Errorf("config: pages[%d]: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = true
	}
	switch strings.ToUpper(c.Journal.Synchronous) {
	case "", "OFF", "NORMAL", "FULL", "EXTRA":
	default:
		return fmt.Errorf("config: journal.synchronous %q", c.Journal.Synchronous)
	}
	for i, e := range c.Exporters {
		var err error
		switch e.Type {
		case "stdout":
		case "file":
			if e.Dir == "" {
				err = errors.New("dir is required")
			} else if e.Sidecar != "" && e.Sidecar != "markdown" {
				err = fmt.Errorf("unknown sidecar %q", e.Sidecar)
			}
		case "webhook":
			if e.URL == "" {
				err = errors.New("url is required")
			}
		default:
			err = fmt.Errorf("unknown type %q", e.Type)
		}
		if err != nil {
			return fmt.Errorf("config: exporters[%d]: %w", i, err)
		}
	}
	return nil
}
