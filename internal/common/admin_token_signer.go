package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scf-community/governor/internal/constants"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrTokenInvalid = errors.New("invalid admin token")
	ErrTokenUsed    = errors.New("admin token already used")
)

// AdminToken is a redeemed single-use admin token
type AdminToken struct {
	Subject   string
	TokenID   string
	ExpiresAt time.Time
}

// TokenBurner records spent token ids. Burn reports false when the id was already spent.
type TokenBurner interface {
	Burn(ctx context.Context, tokenID string, ttl time.Duration) (bool, error)
}

// RedisTokenBurner shares the burn list across replicas
type RedisTokenBurner struct {
	client *redis.Client
}

func NewRedisTokenBurner(client *redis.Client) *RedisTokenBurner {
	return &RedisTokenBurner{client: client}
}

func (b *RedisTokenBurner) Burn(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	ok, err := b.client.SetNX(ctx, string(constants.CachePrefixUsedToken)+tokenID, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to burn token: %w", err)
	}
	return ok, nil
}

// MemoryTokenBurner keeps the burn list in process
type MemoryTokenBurner struct {
	cache *CacheService
}

func NewMemoryTokenBurner(cache *CacheService) *MemoryTokenBurner {
	return &MemoryTokenBurner{cache: cache}
}

func (b *MemoryTokenBurner) Burn(_ context.Context, tokenID string, ttl time.Duration) (bool, error) {
	return b.cache.Add(string(constants.CachePrefixUsedToken)+tokenID, true, ttl), nil
}

// AdminTokenSigner issues and redeems single-use HS256 admin tokens
type AdminTokenSigner struct {
	secretKey []byte
	burner    TokenBurner
	now       func() time.Time
}

func NewAdminTokenSigner(secretKey []byte, burner TokenBurner) *AdminTokenSigner {
	return &AdminTokenSigner{
		secretKey: secretKey,
		burner:    burner,
		now:       time.Now,
	}
}

// Issue signs a token for subject valid for ttl
func (s *AdminTokenSigner) Issue(subject string, ttl time.Duration) (string, *AdminToken, error) {
	now := s.now()
	tok := &AdminToken{
		Subject:   subject,
		TokenID:   uuid.New().String(),
		ExpiresAt: now.Add(ttl),
	}

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ID:        tok.TokenID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(tok.ExpiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, tok, nil
}

// Redeem validates a token and burns its id; a second redeem fails with ErrTokenUsed
func (s *AdminTokenSigner) Redeem(ctx context.Context, tokenString string) (*AdminToken, error) {
	var claims jwt.RegisteredClaims

	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid || claims.ID == "" {
		return nil, ErrTokenInvalid
	}

	expiresAt := claims.ExpiresAt.Time
	ttl := expiresAt.Sub(s.now())
	if ttl < time.Second {
		ttl = time.Second
	}

	fresh, err := s.burner.Burn(ctx, claims.ID, ttl)
	if err != nil {
		return nil, err
	}
	if !fresh {
		return nil, ErrTokenUsed
	}

	return &AdminToken{
		Subject:   claims.Subject,
		TokenID:   claims.ID,
		ExpiresAt: expiresAt,
	}, nil
}
