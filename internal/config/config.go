package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the chart server.
type Config struct {
	// CDP connection settings
	CDPAddress string
	CDPPort    int

	// Page hosting the chart library
	PageURL      string
	TabURLFilter string

	// Control API bind settings
	BindAddr         string
	BindCandidates   []string
	PortAutoFallback bool

	// Script channel behavior
	EvalTimeoutMS int

	// Logging
	LogLevel string
	LogFile  string

	// Snapshot storage
	SnapshotDir string

	// Fragment journal
	JournalEnabled    bool
	JournalDir        string
	JournalBufferSize int
	JournalMaxSizeMB  int

	// Browser launch
	LaunchBrowser bool
	ProfileDir    string
	WindowSize    string
	AppWindow     bool
	Headless      bool

	// Startup chart layout (optional YAML file)
	LayoutPath string
}

// Load reads configuration from environment variables and an optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		CDPAddress:        getEnvOrDefault("CHROMIUM_CDP_ADDRESS", "127.0.0.1"),
		CDPPort:           getEnvIntOrDefault("CHROMIUM_CDP_PORT", 9222),
		PageURL:           getEnvOrDefault("CHART_PAGE_URL", "http://127.0.0.1:8911/charts.html"),
		TabURLFilter:      getEnvOrDefault("CHART_TAB_URL_FILTER", "charts"),
		BindAddr:          getEnvOrDefault("CHART_BIND_ADDR", "127.0.0.1:8188"),
		BindCandidates:    getEnvListOrDefault("CHART_BIND_CANDIDATES", []string{"127.0.0.1:8189", "127.0.0.1:8190"}),
		PortAutoFallback:  getEnvBoolOrDefault("CHART_PORT_AUTO_FALLBACK", true),
		EvalTimeoutMS:     getEnvIntOrDefault("CHART_EVAL_TIMEOUT_MS", 10000),
		LogLevel:          strings.ToLower(getEnvOrDefault("CHART_LOG_LEVEL", "info")),
		LogFile:           getEnvOrDefault("CHART_LOG_FILE", "logs/chart_server.log"),
		SnapshotDir:       getEnvOrDefault("CHART_SNAPSHOT_DIR", "./snapshots"),
		JournalEnabled:    getEnvBoolOrDefault("CHART_JOURNAL_ENABLED", true),
		JournalDir:        getEnvOrDefault("CHART_JOURNAL_DIR", "./journal"),
		JournalBufferSize: getEnvIntOrDefault("CHART_JOURNAL_BUFFER_SIZE", 1024),
		JournalMaxSizeMB:  getEnvIntOrDefault("CHART_JOURNAL_MAX_SIZE_MB", 50),
		LaunchBrowser:     getEnvBoolOrDefault("CHART_LAUNCH_BROWSER", true),
		ProfileDir:        getEnvOrDefault("CHART_BROWSER_PROFILE_DIR", "./browser_profile"),
		WindowSize:        getEnvOrDefault("CHART_WINDOW_SIZE", "1280,720"),
		AppWindow:         getEnvBoolOrDefault("CHART_APP_WINDOW", true),
		Headless:          getEnvBoolOrDefault("CHART_HEADLESS", false),
		LayoutPath:        getEnvOrDefault("CHART_LAYOUT_PATH", "./config/layout.yaml"),
	}

	if cfg.EvalTimeoutMS < 1000 {
		cfg.EvalTimeoutMS = 1000
	}
	return cfg, nil
}

// CDPURL returns the CDP HTTP endpoint.
func (c *Config) CDPURL() string {
	return fmt.Sprintf("http://%s:%d", c.CDPAddress, c.CDPPort)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
