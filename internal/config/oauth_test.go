package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInstalled() OAuthInstalled {
	return OAuthInstalled{
		ClientID:                "test-client-id.apps.googleusercontent.com",
		ProjectID:               "test-project",
		AuthURI:                 "https://accounts.google.com/o/oauth2/auth",
		TokenURI:                "https://oauth2.googleapis.com/token",
		AuthProviderX509CertURL: "https://www.googleapis.com/oauth2/v1/certs",
		ClientSecret:            "test-secret",
		RedirectURIs:            []string{"http://localhost"},
	}
}

func TestValidateOAuthClient(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*OAuthInstalled)
		wantErr bool
	}{
		{"valid", func(*OAuthInstalled) {}, false},
		{"missing client id", func(i *OAuthInstalled) { i.ClientID = "" }, true},
		{"invalid auth uri", func(i *OAuthInstalled) { i.AuthURI = "not-a-valid-url" }, true},
		{"empty redirect uris", func(i *OAuthInstalled) { i.RedirectURIs = []string{} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			installed := validInstalled()
			tt.mutate(&installed)
			err := ValidateOAuthClient(&OAuthClientConfig{Installed: installed})
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestLoadOAuthClientFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oauthClient.json")
	require.NoError(t, os.WriteFile(path, []byte(oauthClientJSON), 0600))

	cfg, err := LoadOAuthClientFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "ministry", cfg.Installed.ProjectID)

	require.NoError(t, os.WriteFile(path, []byte(`{"installed": {}}`), 0600))
	_, err = LoadOAuthClientFromPath(path)
	assert.Error(t, err)
}

const oauthClientJSON = `{
  "installed": {
    "client_id": "id.apps.googleusercontent.com",
    "project_id": "ministry",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "auth_provider_x509_cert_url": "https://www.googleapis.com/oauth2/v1/certs",
    "client_secret": "secret",
    "redirect_uris": ["http://localhost"]
  }
}`

func TestLoadOAuthClient_ExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.json")
	require.NoError(t, os.WriteFile(path, []byte(oauthClientJSON), 0600))

	cfg := validConfig()
	cfg.Google.OAuthClientFile = path
	client, err := LoadOAuthClient(cfg, "staging")
	require.NoError(t, err)
	assert.Equal(t, "ministry", client.Installed.ProjectID)
}

func TestLoadOAuthClient_FindsEnvFile(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("oauthClient.staging.json", []byte(oauthClientJSON), 0600))

	client, err := LoadOAuthClient(validConfig(), "staging")
	require.NoError(t, err)
	assert.Equal(t, "secret", client.Installed.ClientSecret)
}

func TestLoadOAuthClient_Missing(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	_, err := LoadOAuthClient(validConfig(), "nowhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheets export and reminders")
	assert.Contains(t, err.Error(), "oauthClient.nowhere.json")
}
