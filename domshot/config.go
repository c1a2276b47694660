package domshot

import (
	"github.com/hazyhaar/pagesnap/domshot/internal/config"
)

// Config is the top-level domshot configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig = config.BrowserConfig

// PageConfig defines a page opened at startup.
type PageConfig = config.PageConfig

// CaptureConfig controls the capture trigger.
type CaptureConfig = config.CaptureConfig

// ToastConfig sets notification lifetimes.
type ToastConfig = config.ToastConfig

// ExporterConfig defines an output backend.
type ExporterConfig = config.ExporterConfig

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	return config.Default()
}
