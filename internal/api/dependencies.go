package api

import (
	"context"
	"time"

	"scf-community/governor/internal/auth"
	"scf-community/governor/internal/common"
	"scf-community/governor/internal/services"
)

type RoleGranter interface {
	GrantRole(ctx context.Context, guildID, memberID, roleName string) (*services.PromotionResult, error)
}

type ActiveVoteLister interface {
	ListActive(ctx context.Context, guildID string) ([]services.ActiveGroup, error)
}

type TokenIssuer interface {
	Issue(subject string, ttl time.Duration) (string, *common.AdminToken, error)
}

// Pinger is a backing service the health check reports on
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Dependencies struct {
	Roles    RoleGranter
	Votes    ActiveVoteLister
	Tokens   TokenIssuer
	Authn    *auth.Authenticator
	TokenTTL time.Duration

	// Health lists backing services by name
	Health map[string]Pinger
}

type Handlers struct {
	deps *Dependencies
}

// NewHandlers creates a new handlers instance with injected dependencies
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		deps: deps,
	}
}
