package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// OAuthClientConfig is the installed-app client downloaded from the Google
// console. Only the sheets export and the reminder emails need it.
type OAuthClientConfig struct {
	Installed OAuthInstalled `json:"installed" validate:"required"`
}

type OAuthInstalled struct {
	ClientID                string   `json:"client_id" validate:"required"`
	ProjectID               string   `json:"project_id" validate:"required"`
	AuthURI                 string   `json:"auth_uri" validate:"required,url"`
	TokenURI                string   `json:"token_uri" validate:"required,url"`
	AuthProviderX509CertURL string   `json:"auth_provider_x509_cert_url" validate:"required,url"`
	ClientSecret            string   `json:"client_secret" validate:"required"`
	RedirectURIs            []string `json:"redirect_uris" validate:"required,min=1,dive,uri"`
}

// LoadOAuthClient reads the client named by google.oauthClientFile, or else
// oauthClient[.env].json from the current or home directory
func LoadOAuthClient(cfg *Config, env string) (*OAuthClientConfig, error) {
	path := cfg.Google.OAuthClientFile
	if path == "" {
		found, err := findEnvFile("oauthClient", "json", env)
		if err != nil {
			return nil, fmt.Errorf("sheets export and reminders need a google oauth client: %w", err)
		}
		path = found
	}
	return LoadOAuthClientFromPath(path)
}

// LoadOAuthClientFromPath reads and validates an OAuth client file
func LoadOAuthClientFromPath(path string) (*OAuthClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth client file %s: %w", path, err)
	}

	var oauthCfg OAuthClientConfig
	if err := json.Unmarshal(data, &oauthCfg); err != nil {
		return nil, fmt.Errorf("failed to parse oauth client file %s: %w", path, err)
	}
	if err := ValidateOAuthClient(&oauthCfg); err != nil {
		return nil, err
	}
	return &oauthCfg, nil
}

func ValidateOAuthClient(cfg *OAuthClientConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("oauth client validation failed: %w", err)
	}
	return nil
}
