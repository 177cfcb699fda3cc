package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// TokenFile is an authorized-user provider: a client secrets file plus a
// persisted token that is refreshed and written back when it changes.
type TokenFile struct {
	ClientSecretPath string
	TokenPath        string
	Scopes           []string

	mu sync.Mutex
}

// Acquire loads the token, refreshes it when expired and persists the result.
func (p *TokenFile) Acquire(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	scopes := p.Scopes
	if len(scopes) == 0 {
		scopes = []string{DriveReadOnlyScope}
	}
	secretJSON, err := os.ReadFile(p.ClientSecretPath)
	if err != nil {
		return nil, fmt.Errorf("%w: client secrets: %v", ErrAuth, err)
	}
	config, err := google.ConfigFromJSON(secretJSON, scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: client secrets: %v", ErrAuth, err)
	}
	token, err := readToken(p.TokenPath)
	if err != nil {
		return nil, fmt.Errorf("%w: token: %v", ErrAuth, err)
	}
	ts := oauth2.ReuseTokenSource(token, config.TokenSource(ctx, token))
	fresh, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: refresh: %v", ErrAuth, err)
	}
	if fresh.AccessToken != token.AccessToken {
		if err := writeToken(p.TokenPath, fresh); err != nil {
			return nil, fmt.Errorf("credential: persist token: %w", err)
		}
	}
	return &Session{TokenSource: ts, Scopes: scopes}, nil
}

func readToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	token := &oauth2.Token{}
	if err := json.Unmarshal(data, token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, fmt.Errorf("token file %s has no access or refresh token", path)
	}
	return token, nil
}

func writeToken(path string, token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Default uses Application Default Credentials.
type Default struct {
	Scopes []string
}

// Acquire resolves application default credentials.
func (p *Default) Acquire(ctx context.Context) (*Session, error) {
	scopes := p.Scopes
	if len(scopes) == 0 {
		scopes = []string{DriveReadOnlyScope}
	}
	creds, err := google.FindDefaultCredentials(ctx, scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	return &Session{TokenSource: creds.TokenSource, Scopes: scopes}, nil
}
