// Package secrets provides the secret-store backends behind the custody
// adapter: HashiCorp Vault in production, an in-memory map for tests and dev
// mode.
package secrets

import (
	"context"
	"fmt"

	vault "github.com/hashicorp/vault/api"
)

// VaultStore talks to a Vault KV v2 mount. The custody path prefix carries
// the KV v2 "data/" segment, so full paths come out as
// <mount>/data/pk/<class>/<address>.
type VaultStore struct {
	client *vault.Client
}

// NewVaultStore builds a Vault-backed secret store.
func NewVaultStore(addr, token string) (*VaultStore, error) {
	cfg := vault.DefaultConfig()
	cfg.Address = addr
	client, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("build vault client: %w", err)
	}
	client.SetToken(token)
	return &VaultStore{client: client}, nil
}

// NewVaultStoreWithClient wraps an existing Vault API client.
func NewVaultStoreWithClient(client *vault.Client) *VaultStore {
	return &VaultStore{client: client}
}

// Read returns the secret data at mount/path, or (nil, nil) when the path
// does not exist.
func (v *VaultStore) Read(ctx context.Context, mount, path string) (map[string]any, error) {
	secret, err := v.client.Logical().ReadWithContext(ctx, mount+"/"+path)
	if err != nil {
		return nil, fmt.Errorf("vault read %s: %w", path, err)
	}
	if secret == nil || len(secret.Data) == 0 {
		return nil, nil
	}
	// KV v2 nests the payload under "data".
	if inner, ok := secret.Data["data"].(map[string]any); ok {
		return inner, nil
	}
	return secret.Data, nil
}

// Write stores the secret data at mount/path.
func (v *VaultStore) Write(ctx context.Context, mount, path string, data map[string]any) error {
	_, err := v.client.Logical().WriteWithContext(ctx, mount+"/"+path, map[string]any{
		"data": data,
	})
	if err != nil {
		return fmt.Errorf("vault write %s: %w", path, err)
	}
	return nil
}
