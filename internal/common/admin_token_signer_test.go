package common

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAdminTokenSigner_SingleUse(t *testing.T) {
	signer := NewAdminTokenSigner([]byte("secret"), NewMemoryTokenBurner(NewCacheService(time.Minute, time.Minute)))
	ctx := context.Background()

	raw, issued, err := signer.Issue("ops", 5*time.Minute)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	tok, err := signer.Redeem(ctx, raw)
	if err != nil {
		t.Fatalf("Expected first redeem to succeed, got %v", err)
	}
	if tok.Subject != "ops" || tok.TokenID != issued.TokenID {
		t.Errorf("Unexpected token: %+v", tok)
	}

	if _, err := signer.Redeem(ctx, raw); !errors.Is(err, ErrTokenUsed) {
		t.Errorf("Expected ErrTokenUsed, got %v", err)
	}
}

func TestAdminTokenSigner_RejectsForeignAndExpiredTokens(t *testing.T) {
	burner := NewMemoryTokenBurner(NewCacheService(time.Minute, time.Minute))
	signer := NewAdminTokenSigner([]byte("secret"), burner)
	other := NewAdminTokenSigner([]byte("other"), burner)
	ctx := context.Background()

	raw, _, _ := other.Issue("ops", time.Minute)
	if _, err := signer.Redeem(ctx, raw); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Expected ErrTokenInvalid for foreign key, got %v", err)
	}

	past := time.Now().Add(-time.Hour)
	signer.now = func() time.Time { return past }
	raw, _, _ = signer.Issue("ops", time.Minute)
	signer.now = time.Now

	if _, err := signer.Redeem(ctx, raw); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Expected ErrTokenInvalid for expired token, got %v", err)
	}

	if _, err := signer.Redeem(ctx, "not-a-jwt"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("Expected ErrTokenInvalid for garbage, got %v", err)
	}
}
