// Package config handles loading and validation of storefront
// configuration. Supports both development (env vars) and production
// (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// Config holds all storefront configuration.
// Environment determines whether the admin credential block loads from
// env vars (development) or Secret Manager (production).
type Config struct {
	// Backend base URL, with trailing slash (e.g. "https://www.rgamer-store.cl/").
	APIBaseURL string

	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// StateDir holds the durable client state file (session token,
	// auth credential, user profile).
	StateDir string

	// BrowserTLS selects the Chrome-fingerprint transport. The hosted
	// store's CDN requires it; local backends don't.
	BrowserTLS bool

	// GCP settings (required in production)
	GCPProject string
	StoreID    string

	// Admin credentials for the reporting surface (loaded from secrets
	// in production).
	Admin AdminConfig
}

// AdminConfig contains the credential block for admin-gated endpoints.
// In production this is loaded from Secret Manager as JSON.
type AdminConfig struct {
	// ReportToken is a pre-issued bearer credential for the management
	// report, used by headless deployments that never log in
	// interactively. Interactive use logs in instead.
	ReportToken string `json:"report_token,omitempty"`
}

// DefaultAPIBase is the hosted store backend.
const DefaultAPIBase = "https://www.rgamer-store.cl/"

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → env vars / Secret Manager.
func Load(ctx context.Context) (*Config, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		APIBaseURL:  envOrDefault("RGAMER_API_BASE", DefaultAPIBase),
		Environment: envOrDefault("ENVIRONMENT", "development"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		StateDir:    os.Getenv("RGAMER_STATE_DIR"),
		BrowserTLS:  os.Getenv("RGAMER_PLAIN_TRANSPORT") == "",
		GCPProject:  os.Getenv("GCP_PROJECT"),
		StoreID:     os.Getenv("STORE_ID"),
	}

	var err error
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if cfg.StoreID == "" {
			return nil, fmt.Errorf("STORE_ID required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		err = cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading admin config: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple env vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig struct {
		APIBaseURL  string      `json:"api_base_url"`
		Environment string      `json:"environment"`
		LogLevel    string      `json:"log_level"`
		StateDir    string      `json:"state_dir"`
		BrowserTLS  *bool       `json:"browser_tls"`
		Admin       AdminConfig `json:"admin"`
	}
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		APIBaseURL:  withDefault(fileConfig.APIBaseURL, DefaultAPIBase),
		Environment: withDefault(fileConfig.Environment, "development"),
		LogLevel:    withDefault(fileConfig.LogLevel, "info"),
		StateDir:    fileConfig.StateDir,
		BrowserTLS:  fileConfig.BrowserTLS == nil || *fileConfig.BrowserTLS,
		Admin:       fileConfig.Admin,
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromSecretManager fetches the admin credential block from GCP
// Secret Manager. Secret name format:
// projects/{project}/secrets/{store_id}-admin/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s-admin/versions/latest",
		c.GCPProject, c.StoreID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Admin); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}
	return nil
}

// loadFromEnv reads the admin credential block from env vars.
// Used in development mode for local testing.
func (c *Config) loadFromEnv() error {
	c.Admin = AdminConfig{
		ReportToken: os.Getenv("ADMIN_REPORT_TOKEN"),
	}
	return nil
}

// normalize validates required fields and fills derived defaults.
func (c *Config) normalize() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api_base_url %q", c.APIBaseURL)
	}
	if !strings.HasSuffix(c.APIBaseURL, "/") {
		c.APIBaseURL += "/"
	}

	if c.StateDir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			// No usable state dir: session falls back to its sentinel.
			return nil
		}
		c.StateDir = filepath.Join(base, "rgamer-store")
	}
	return nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
