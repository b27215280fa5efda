package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Host modes for the assistant widget
const (
	HostEmbedded   = "embedded"
	HostStandalone = "standalone"
)

// WidgetConfig configures the assistant widget
type WidgetConfig struct {
	APIURL       string         `yaml:"api_url"`
	Position     string         `yaml:"position"`
	BrandColor   string         `yaml:"brand_color"`
	HostMode     string         `yaml:"host_mode"`
	Greeting     string         `yaml:"greeting"`
	PopularLimit int            `yaml:"popular_limit"`
	Standalone   StandalonePage `yaml:"standalone"`
}

// StandalonePage is the fixed page context used when no page posts its own
type StandalonePage struct {
	URL            string `yaml:"url"`
	ViewportWidth  int    `yaml:"viewport_width"`
	ViewportHeight int    `yaml:"viewport_height"`
}

// LoadWidget loads the widget YAML file. An empty path yields the defaults.
func LoadWidget(path string) (*WidgetConfig, error) {
	if path == "" {
		return ParseWidget(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read widget config %s: %w", path, err)
	}
	return ParseWidget(data)
}

// ParseWidget parses YAML data into a WidgetConfig.
func ParseWidget(data []byte) (*WidgetConfig, error) {
	var wc WidgetConfig
	if err := yaml.Unmarshal(data, &wc); err != nil {
		return nil, fmt.Errorf("failed to parse widget YAML: %w", err)
	}

	applyWidgetDefaults(&wc)

	if wc.HostMode != HostEmbedded && wc.HostMode != HostStandalone {
		return nil, fmt.Errorf("unknown widget host_mode %q", wc.HostMode)
	}
	return &wc, nil
}

func applyWidgetDefaults(wc *WidgetConfig) {
	if wc.Position == "" {
		wc.Position = "bottom-right"
	}
	if wc.BrandColor == "" {
		wc.BrandColor = "#2e7d32"
	}
	if wc.HostMode == "" {
		wc.HostMode = HostEmbedded
	}
	if wc.Greeting == "" {
		wc.Greeting = "Hi! I'm your AI assistant. How can I help?"
	}
	if wc.PopularLimit <= 0 {
		wc.PopularLimit = 10
	}
	if wc.Standalone.URL == "" {
		wc.Standalone.URL = "/"
	}
	if wc.Standalone.ViewportWidth == 0 {
		wc.Standalone.ViewportWidth = 1280
	}
	if wc.Standalone.ViewportHeight == 0 {
		wc.Standalone.ViewportHeight = 800
	}
}
