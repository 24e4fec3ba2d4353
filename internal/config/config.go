package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/hvr-ops/hvr-manager/internal/fivetran"
	"github.com/hvr-ops/hvr-manager/internal/secrets"
	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr    = ":8080"
	defaultMetricsAddr = "off"
)

// Config is the process configuration, sourced from the environment with an
// optional .env file. The API credential itself stays inside the opaque
// fivetran.Credential type.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	HTTPAddr    string
	MetricsAddr string
	Credential  fivetran.Credential
	Vault       secrets.VaultOptions
}

// HasCredential reports whether a usable key/secret pair was found in the
// environment.
func (c Config) HasCredential() bool {
	return !c.Credential.IsZero()
}

// VaultConfigured reports whether Vault-based credential sourcing is set up.
func (c Config) VaultConfigured() bool {
	return strings.TrimSpace(c.Vault.Address) != "" && strings.TrimSpace(c.Vault.Path) != ""
}

// Load reads configuration from the environment, honoring a .env file when
// one exists.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, err
		}
	}

	cfg := Config{
		BaseURL:     getenvDefault("FIVETRAN_BASE_URL", fivetran.DefaultBaseURL),
		Timeout:     fivetran.DefaultTimeout,
		HTTPAddr:    getenvDefault("HTTP_ADDR", defaultHTTPAddr),
		MetricsAddr: getenvDefault("METRICS_ADDR", defaultMetricsAddr),
		Credential:  fivetran.NewCredential(os.Getenv("FIVETRAN_API_KEY"), os.Getenv("FIVETRAN_API_SECRET")),
		Vault: secrets.VaultOptions{
			Address:   strings.TrimSpace(os.Getenv("VAULT_ADDR")),
			Namespace: strings.TrimSpace(os.Getenv("VAULT_NAMESPACE")),
			Token:     strings.TrimSpace(os.Getenv("VAULT_TOKEN")),
			Path:      strings.TrimSpace(os.Getenv("VAULT_CREDENTIAL_PATH")),
		},
	}

	if v := strings.TrimSpace(os.Getenv("FIVETRAN_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
