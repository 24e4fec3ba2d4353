// Package secrets resolves the Fivetran API credential from HashiCorp Vault.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	vaultapi "github.com/hashicorp/vault/api"
	"github.com/hvr-ops/hvr-manager/internal/fivetran"
)

const vaultTimeout = 15 * time.Second

// VaultOptions locates the credential pair inside a Vault server. Path is a
// logical read path (for KV v2: <mount>/data/<name>) whose secret data holds
// api_key and api_secret fields.
type VaultOptions struct {
	Address   string
	Namespace string
	Token     string
	Path      string
}

// FetchCredential reads the key/secret pair from Vault and returns it as the
// opaque credential type. The raw values never travel through any other
// representation.
func FetchCredential(ctx context.Context, opts VaultOptions) (fivetran.Credential, error) {
	address := strings.TrimSpace(opts.Address)
	if address == "" {
		return fivetran.Credential{}, errors.New("vault address is required")
	}
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return fivetran.Credential{}, errors.New("vault token is required")
	}
	path := strings.Trim(strings.TrimSpace(opts.Path), "/")
	if path == "" {
		return fivetran.Credential{}, errors.New("vault credential path is required")
	}

	cfg := vaultapi.DefaultConfig()
	cfg.Address = address
	cfg.HttpClient = &http.Client{Timeout: vaultTimeout}

	client, err := vaultapi.NewClient(cfg)
	if err != nil {
		return fivetran.Credential{}, fmt.Errorf("vault client setup: %w", err)
	}
	if namespace := strings.TrimSpace(opts.Namespace); namespace != "" {
		client.SetNamespace(namespace)
	}
	client.SetToken(token)

	secret, err := client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return fivetran.Credential{}, fmt.Errorf("vault read %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return fivetran.Credential{}, fmt.Errorf("vault path %s holds no secret", path)
	}

	data := secret.Data
	// KV v2 nests the payload one level down under "data".
	if nested, ok := data["data"].(map[string]any); ok {
		data = nested
	}

	key := mapString(data, "api_key")
	apiSecret := mapString(data, "api_secret")
	if key == "" || apiSecret == "" {
		return fivetran.Credential{}, fmt.Errorf("vault path %s is missing api_key or api_secret", path)
	}
	return fivetran.NewCredential(key, apiSecret), nil
}

func mapString(data map[string]any, key string) string {
	value, _ := data[key].(string)
	return strings.TrimSpace(value)
}
