// Package credential acquires authenticated sessions for the document store.
package credential

import (
	"context"
	"errors"

	"golang.org/x/oauth2"
)

// ErrAuth is returned when credentials are missing, invalid or cannot be refreshed.
var ErrAuth = errors.New("credential: authentication failed")

// DriveReadOnlyScope grants read access to file metadata and content.
const DriveReadOnlyScope = "https://www.googleapis.com/auth/drive.readonly"

// Session carries an authenticated token source.
type Session struct {
	TokenSource oauth2.TokenSource
	Scopes      []string
}

// Provider yields an authenticated session or fails with ErrAuth.
type Provider interface {
	Acquire(ctx context.Context) (*Session, error)
}

// Static returns a provider yielding a fixed token source.
func Static(ts oauth2.TokenSource) Provider {
	return staticProvider{ts: ts}
}

type staticProvider struct{ ts oauth2.TokenSource }

func (s staticProvider) Acquire(ctx context.Context) (*Session, error) {
	if s.ts == nil {
		return nil, ErrAuth
	}
	return &Session{TokenSource: s.ts}, nil
}
