package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"resumetracker/internal/errors"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecretReader struct {
	secrets map[string]*VaultSecret
	reads   []string
}

func (f *fakeSecretReader) GetSecretV2(path string) (*VaultSecret, error) {
	f.reads = append(f.reads, path)
	secret, ok := f.secrets[path]
	if !ok {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}
	return secret, nil
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "float64 value", input: float64(7), expected: 7},
		{name: "string value", input: "13", expected: 13},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "kv/data/resumetracker")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestResolveVaultToken(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(tokenFile, []byte("  file-token\n"), 0o600))

	tests := []struct {
		name        string
		config      VaultConfig
		expected    string
		expectError bool
	}{
		{name: "inline token wins", config: VaultConfig{Token: "inline", TokenFile: tokenFile}, expected: "inline"},
		{name: "token file is trimmed", config: VaultConfig{TokenFile: tokenFile}, expected: "file-token"},
		{name: "missing token file", config: VaultConfig{TokenFile: filepath.Join(t.TempDir(), "absent")}, expectError: true},
		{name: "no token at all", config: VaultConfig{}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := resolveVaultToken(tt.config)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, token)
		})
	}
}

func TestDecodeKVv2(t *testing.T) {
	secret := &api.Secret{Data: map[string]any{
		"data":     map[string]any{"token": "abc"},
		"metadata": map[string]any{"version": "3"},
	}}

	decoded, err := decodeKVv2(secret, "kv/data/token")
	require.NoError(t, err)
	assert.Equal(t, "abc", decoded.Data["token"])
	assert.Equal(t, int64(3), decoded.Version)

	_, err = decodeKVv2(&api.Secret{Data: map[string]any{"token": "abc"}}, "kv/data/token")
	assert.ErrorContains(t, err, "missing 'data' field")

	_, err = decodeKVv2(&api.Secret{Data: map[string]any{
		"data":     map[string]any{},
		"metadata": map[string]any{},
	}}, "kv/data/token")
	assert.ErrorContains(t, err, "missing 'version' field")
}

func TestApplySecrets(t *testing.T) {
	reader := &fakeSecretReader{secrets: map[string]*VaultSecret{
		"kv/data/login": {Data: map[string]any{"username": "ana", "password": "s3cret"}, Version: 2},
		"kv/data/token": {Data: map[string]any{"token": "jwt-value"}, Version: 1},
	}}

	cfg := &Config{Vault: VaultConfig{
		Enabled: true,
		Secrets: VaultSecrets{Credentials: "kv/data/login", APIToken: "kv/data/token"},
	}}

	require.NoError(t, applySecrets(reader, cfg, errors.NewNopLogger()))
	assert.Equal(t, "ana", cfg.Credentials.Username)
	assert.Equal(t, "s3cret", cfg.Credentials.Password)
	assert.Equal(t, "jwt-value", cfg.Credentials.Token)
	assert.Equal(t, []string{"kv/data/login", "kv/data/token"}, reader.reads)
}

func TestApplySecretsMissingKey(t *testing.T) {
	reader := &fakeSecretReader{secrets: map[string]*VaultSecret{
		"kv/data/login": {Data: map[string]any{"username": "ana"}},
	}}
	cfg := &Config{Vault: VaultConfig{Secrets: VaultSecrets{Credentials: "kv/data/login"}}}

	err := applySecrets(reader, cfg, nil)
	assert.ErrorContains(t, err, "key 'password' not found")
	assert.Empty(t, cfg.Credentials.Username)
}

func TestApplySecretsEmptyTokenKeepsExisting(t *testing.T) {
	reader := &fakeSecretReader{secrets: map[string]*VaultSecret{
		"kv/data/token": {Data: map[string]any{"token": ""}},
	}}
	cfg := &Config{
		Credentials: CredentialsConfig{Token: "from-env"},
		Vault:       VaultConfig{Secrets: VaultSecrets{APIToken: "kv/data/token"}},
	}

	require.NoError(t, applySecrets(reader, cfg, nil))
	assert.Equal(t, "from-env", cfg.Credentials.Token)
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	cfg := &Config{Vault: VaultConfig{Enabled: false, Secrets: VaultSecrets{Credentials: "kv/data/login"}}}
	assert.NoError(t, ApplyVaultSecrets(cfg, errors.NewNopLogger()))
	assert.Empty(t, cfg.Credentials.Username)
}

func TestNewVaultClientDisabled(t *testing.T) {
	client, err := NewVaultClient(VaultConfig{}, nil)
	assert.NoError(t, err)
	assert.Nil(t, client)

	_, err = client.GetSecretV2("kv/data/login")
	assert.ErrorContains(t, err, "not initialized")
}
