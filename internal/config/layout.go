package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ChartEntry describes a chart to create at startup.
type ChartEntry struct {
	Width    float64 `yaml:"width"`
	Height   float64 `yaml:"height"`
	Position string  `yaml:"position"`
	Autosize bool    `yaml:"autosize"`
}

// Layout is the top-level YAML configuration for startup charts.
type Layout struct {
	Charts []ChartEntry `yaml:"charts"`
}

// LoadLayout reads and validates a startup layout YAML file. Returns an
// os.ErrNotExist-wrapped error if the file is absent (caller silently skips
// in that case).
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("layout config: %w", err)
	}
	var layout Layout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("layout config: %w", err)
	}
	if len(layout.Charts) < 1 {
		return nil, fmt.Errorf("layout config: at least one chart entry is required")
	}
	for i := range layout.Charts {
		c := &layout.Charts[i]
		if c.Width < 0 || c.Height < 0 {
			return nil, fmt.Errorf("layout config: charts[%d] has negative dimensions", i)
		}
		if c.Width == 0 && !c.Autosize {
			c.Width = 1
		}
		if c.Height == 0 && !c.Autosize {
			c.Height = 1
		}
	}
	return &layout, nil
}
