package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"scf-community/governor/internal/common"
	"scf-community/governor/internal/models/entities"
)

type mockKeys struct {
	getStatusFunc func(ctx context.Context, key string) (*entities.ApiKey, error)
}

func (m *mockKeys) GetStatus(ctx context.Context, key string) (*entities.ApiKey, error) {
	return m.getStatusFunc(ctx, key)
}

func newTestAuthenticator() (*Authenticator, *common.AdminTokenSigner) {
	keys := &mockKeys{getStatusFunc: func(_ context.Context, key string) (*entities.ApiKey, error) {
		switch key {
		case "active-key":
			return &entities.ApiKey{ApiKey: key, Label: "ops-bot", Status: true}, nil
		case "revoked-key":
			return &entities.ApiKey{ApiKey: key, Label: "old", Status: false}, nil
		}
		return nil, nil
	}}
	signer := common.NewAdminTokenSigner([]byte("token-key"), common.NewMemoryTokenBurner(common.NewCacheService(time.Minute, time.Minute)))
	return NewAuthenticator("s3cret", keys, signer), signer
}

func TestAuthenticator_Sources(t *testing.T) {
	authn, signer := newTestAuthenticator()
	token, _, err := signer.Issue("alice", time.Minute)
	if err != nil {
		t.Fatalf("Expected no error issuing token, got %v", err)
	}

	cases := []struct {
		name       string
		credential string
		source     string
		subject    string
	}{
		{"shared secret", "s3cret", SourceSharedSecret, "shared-secret"},
		{"api key", "active-key", SourceAPIKey, "ops-bot"},
		{"admin token", token, SourceAdminToken, "alice"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			claims, err := authn.Authenticate(t.Context(), c.credential)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if claims.Source != c.source || claims.Subject != c.subject {
				t.Errorf("Expected %s:%s, got %s", c.source, c.subject, claims)
			}
		})
	}
}

func TestAuthenticator_Rejects(t *testing.T) {
	authn, signer := newTestAuthenticator()
	token, _, _ := signer.Issue("alice", time.Minute)
	if _, err := authn.Authenticate(t.Context(), token); err != nil {
		t.Fatalf("Expected first use to succeed, got %v", err)
	}

	for name, credential := range map[string]string{
		"empty":        "",
		"wrong secret": "S3CRET",
		"revoked key":  "revoked-key",
		"unknown key":  "nope",
		"reused token": token,
		"forged token": "a.b.c",
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := authn.Authenticate(t.Context(), credential); !errors.Is(err, ErrUnauthenticated) {
				t.Errorf("Expected ErrUnauthenticated, got %v", err)
			}
		})
	}
}

func TestAuthenticator_KeyStoreFailure(t *testing.T) {
	authn := NewAuthenticator("", &mockKeys{getStatusFunc: func(context.Context, string) (*entities.ApiKey, error) {
		return nil, errors.New("connection refused")
	}}, nil)

	_, err := authn.Authenticate(t.Context(), "some-key")
	if err == nil || errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Expected an infrastructure error, got %v", err)
	}
	if authn.IsSharedSecret("") {
		t.Error("Expected an unset shared secret to match nothing")
	}
}
