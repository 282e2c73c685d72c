package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/jakechorley/watchtower/internal/config"
)

func TestTokenStore_RoundTrip(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "tokens"))

	missing, err := store.Load("test")
	require.NoError(t, err)
	assert.Nil(t, missing)

	expiry := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	token := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", Expiry: expiry}
	require.NoError(t, store.Save("test", token))

	info, err := os.Stat(store.path("test"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(tokenFilePerms), info.Mode().Perm())

	loaded, err := store.Load("test")
	require.NoError(t, err)
	assert.Equal(t, "access", loaded.AccessToken)
	assert.Equal(t, "refresh", loaded.RefreshToken)
	assert.True(t, expiry.Equal(loaded.Expiry))

	other, err := store.Load("prod")
	require.NoError(t, err)
	assert.Nil(t, other, "tokens are kept per environment")

	require.NoError(t, store.Delete("test"))
	require.NoError(t, store.Delete("test"))
	gone, err := store.Load("test")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestTokenStore_CorruptFile(t *testing.T) {
	store := NewTokenStore(t.TempDir())
	require.NoError(t, os.WriteFile(store.path("test"), []byte("{not json"), tokenFilePerms))

	_, err := store.Load("test")
	assert.ErrorContains(t, err, "failed to parse token file")
}

func TestGetOAuthConfig(t *testing.T) {
	cfg, err := GetOAuthConfig(&config.OAuthClientConfig{Installed: config.OAuthInstalled{
		ClientID:                "watchtower.apps.googleusercontent.com",
		ProjectID:               "watchtower-rosters",
		AuthURI:                 "https://accounts.google.com/o/oauth2/auth",
		TokenURI:                "https://oauth2.googleapis.com/token",
		AuthProviderX509CertURL: "https://www.googleapis.com/oauth2/v1/certs",
		ClientSecret:            "test-secret",
		RedirectURIs:            []string{"http://localhost"},
	}})
	require.NoError(t, err)

	assert.Equal(t, "watchtower.apps.googleusercontent.com", cfg.ClientID)
	assert.Equal(t, []string{ScopeSheets}, cfg.Scopes)
	assert.Equal(t, "http://localhost:3000/oauth/callback", cfg.RedirectURL)
}
