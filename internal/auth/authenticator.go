package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"scf-community/governor/internal/common"
	"scf-community/governor/internal/models/entities"
)

var ErrUnauthenticated = errors.New("invalid admin credential")

type KeyLookup interface {
	GetStatus(ctx context.Context, key string) (*entities.ApiKey, error)
}

type TokenRedeemer interface {
	Redeem(ctx context.Context, token string) (*common.AdminToken, error)
}

// Authenticator accepts the shared secret, an active API key, or a single-use
// admin token. Each check is skipped when its backend is not configured.
type Authenticator struct {
	sharedSecret string
	keys         KeyLookup
	tokens       TokenRedeemer
}

func NewAuthenticator(sharedSecret string, keys KeyLookup, tokens TokenRedeemer) *Authenticator {
	return &Authenticator{
		sharedSecret: sharedSecret,
		keys:         keys,
		tokens:       tokens,
	}
}

// IsSharedSecret compares in constant time
func (a *Authenticator) IsSharedSecret(credential string) bool {
	if a.sharedSecret == "" || credential == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a.sharedSecret), []byte(credential)) == 1
}

func (a *Authenticator) Authenticate(ctx context.Context, credential string) (*AdminClaims, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, ErrUnauthenticated
	}

	if a.IsSharedSecret(credential) {
		return &AdminClaims{Subject: "shared-secret", Source: SourceSharedSecret}, nil
	}

	// signed tokens are three dot separated segments; API keys are uuids
	if a.tokens != nil && strings.Count(credential, ".") == 2 {
		tok, err := a.tokens.Redeem(ctx, credential)
		if err != nil {
			if errors.Is(err, common.ErrTokenInvalid) || errors.Is(err, common.ErrTokenUsed) {
				return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
			}
			return nil, err
		}
		return &AdminClaims{Subject: tok.Subject, Source: SourceAdminToken}, nil
	}

	if a.keys != nil {
		key, err := a.keys.GetStatus(ctx, credential)
		if err != nil {
			return nil, fmt.Errorf("failed to look up api key: %w", err)
		}
		if key != nil && key.Status {
			return &AdminClaims{Subject: key.Label, Source: SourceAPIKey}, nil
		}
	}

	return nil, ErrUnauthenticated
}
