package credential

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const clientSecrets = `{"installed":{"client_id":"id.apps.googleusercontent.com","client_secret":"s","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`

func TestTokenFile_Acquire(t *testing.T) {
	dir := t.TempDir()
	secretPath := filepath.Join(dir, "credentials.json")
	tokenPath := filepath.Join(dir, "token.json")
	require.NoError(t, os.WriteFile(secretPath, []byte(clientSecrets), 0o600))
	token := &oauth2.Token{AccessToken: "at", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}
	data, _ := json.Marshal(token)
	require.NoError(t, os.WriteFile(tokenPath, data, 0o600))

	provider := &TokenFile{ClientSecretPath: secretPath, TokenPath: tokenPath}
	session, err := provider.Acquire(context.Background())
	require.NoError(t, err)
	got, err := session.TokenSource.Token()
	require.NoError(t, err)
	assert.Equal(t, "at", got.AccessToken)
	assert.Equal(t, []string{DriveReadOnlyScope}, session.Scopes)
}

func TestTokenFile_Acquire_Errors(t *testing.T) {
	dir := t.TempDir()
	secretPath := filepath.Join(dir, "credentials.json")
	require.NoError(t, os.WriteFile(secretPath, []byte(clientSecrets), 0o600))
	emptyToken := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(emptyToken, []byte(`{}`), 0o600))

	testCases := []struct {
		name     string
		provider *TokenFile
	}{
		{name: "missing client secrets", provider: &TokenFile{ClientSecretPath: filepath.Join(dir, "none.json"), TokenPath: emptyToken}},
		{name: "missing token", provider: &TokenFile{ClientSecretPath: secretPath, TokenPath: filepath.Join(dir, "none.json")}},
		{name: "token without credentials", provider: &TokenFile{ClientSecretPath: secretPath, TokenPath: emptyToken}},
	}
	for _, tc := range testCases {
		_, err := tc.provider.Acquire(context.Background())
		assert.ErrorIs(t, err, ErrAuth, tc.name)
	}
}

func TestStatic(t *testing.T) {
	_, err := Static(nil).Acquire(context.Background())
	assert.ErrorIs(t, err, ErrAuth)
	session, err := Static(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "x"})).Acquire(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, session.TokenSource)
}
