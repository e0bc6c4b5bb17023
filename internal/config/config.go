package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIURL        string // backend origin, e.g. "http://localhost:5000"
	SessionCookie string // value of the backend "session" cookie, optional
	Username      string
	Password      string
	Remember      bool          // ask the backend for a persistent login
	HTTPTimeout   time.Duration // 0 means no client-side timeout

	// Optional analyze form fields; empty lets the backend pick its defaults.
	TradingStyle string
	RiskProfile  string
	AssetType    string

	TracePath string

	// Dashboard viewer
	DashboardPort int
	DashboardHost string
}

// LoginURL is where auth failures and logout send the user.
func (c *Config) LoginURL() string {
	return strings.TrimRight(c.APIURL, "/") + "/login"
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIURL:        strings.TrimRight(getEnvDefault("CHART_API_URL", "http://localhost:5000"), "/"),
		SessionCookie: os.Getenv("CHART_SESSION_COOKIE"),
		Username:      os.Getenv("CHART_USERNAME"),
		Password:      os.Getenv("CHART_PASSWORD"),
		Remember:      getEnvBool("CHART_REMEMBER", false),
		HTTPTimeout:   getEnvDuration("CHART_HTTP_TIMEOUT", 0),
		TradingStyle:  os.Getenv("CHART_TRADING_STYLE"),
		RiskProfile:   os.Getenv("CHART_RISK_PROFILE"),
		AssetType:     os.Getenv("CHART_ASSET_TYPE"),
		TracePath:     os.Getenv("CHART_TRACE_PATH"),
		DashboardPort: getEnvInt("DASHBOARD_PORT", 8080),
		DashboardHost: getEnvDefault("DASHBOARD_HOST", "localhost"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("CHART_API_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("CHART_API_URL must be an http(s) URL, got %q", c.APIURL)
	}
	if u.Host == "" {
		return fmt.Errorf("CHART_API_URL has no host: %q", c.APIURL)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("CHART_HTTP_TIMEOUT must not be negative")
	}
	if c.DashboardPort <= 0 || c.DashboardPort > 65535 {
		return fmt.Errorf("DASHBOARD_PORT out of range: %d", c.DashboardPort)
	}
	return nil
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// getEnvDuration reads seconds; fractions are allowed.
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return time.Duration(f * float64(time.Second))
}
