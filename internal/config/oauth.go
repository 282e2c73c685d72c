package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
)

// rosterSheetOAuthFile is the base name of the OAuth client file, e.g. oauthClient.prod.json
const rosterSheetOAuthFile = "oauthClient"

// ErrRosterSheetDisabled is returned when an environment has no OAuth client file
var ErrRosterSheetDisabled = errors.New("roster sheet publishing disabled")

// OAuthClientConfig is the Google installed-app OAuth client that authorises writes to the roster sheet
type OAuthClientConfig struct {
	Installed OAuthInstalled `json:"installed" validate:"required"`
}

// OAuthInstalled holds the fields the consent flow needs from the downloaded client file
type OAuthInstalled struct {
	ClientID                string   `json:"client_id" validate:"required"`
	ClientSecret            string   `json:"client_secret" validate:"required"`
	AuthURI                 string   `json:"auth_uri" validate:"required,url"`
	TokenURI                string   `json:"token_uri" validate:"required,url"`
	RedirectURIs            []string `json:"redirect_uris" validate:"required,min=1,dive,uri"`
	ProjectID               string   `json:"project_id,omitempty"`
	AuthProviderX509CertURL string   `json:"auth_provider_x509_cert_url,omitempty" validate:"omitempty,url"`
}

// LoadRosterSheetOAuth loads oauthClient.<env>.json from the working or home directory.
// A missing file returns ErrRosterSheetDisabled. A file that exists but is unusable is an error.
func LoadRosterSheetOAuth(env string) (*OAuthClientConfig, error) {
	path, err := findFile(envFileName(rosterSheetOAuthFile, env, "json"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRosterSheetDisabled, err)
	}
	return LoadRosterSheetOAuthFromPath(path)
}

// LoadRosterSheetOAuthFromPath loads and validates the roster sheet OAuth client at path
func LoadRosterSheetOAuthFromPath(path string) (*OAuthClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster sheet OAuth client %s: %w", path, err)
	}

	var cfg OAuthClientConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse roster sheet OAuth client %s: %w", path, err)
	}

	if err := ValidateRosterSheetOAuth(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateRosterSheetOAuth checks the client file. The consent callback is served on localhost,
// so one redirect URI must be a loopback address.
func ValidateRosterSheetOAuth(cfg *OAuthClientConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid roster sheet OAuth client: %w", err)
	}
	if !cfg.Installed.hasLoopbackRedirect() {
		return fmt.Errorf("invalid roster sheet OAuth client: no localhost redirect URI for the consent callback")
	}
	return nil
}

func (i OAuthInstalled) hasLoopbackRedirect() bool {
	for _, raw := range i.RedirectURIs {
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		switch u.Hostname() {
		case "localhost", "127.0.0.1", "::1":
			return true
		}
	}
	return false
}
