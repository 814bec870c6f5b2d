package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scf-community/governor/internal/constants"
	"scf-community/governor/internal/logging"

	"github.com/cenkalti/backoff/v4"
)

// RetryingGateway retries transient platform failures with exponential backoff.
// Message sends and thread creation are only retried on rate limits, since a 5xx
// may hide a request that was in fact processed.
type RetryingGateway struct {
	next            Gateway
	initialInterval time.Duration
	maxElapsed      time.Duration
}

func NewRetryingGateway(next Gateway, initialInterval, maxElapsed time.Duration) *RetryingGateway {
	return &RetryingGateway{
		next:            next,
		initialInterval: initialInterval,
		maxElapsed:      maxElapsed,
	}
}

func (g *RetryingGateway) newBackOff(ctx context.Context) backoff.BackOff {
	return backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(g.initialInterval),
		backoff.WithMaxElapsedTime(g.maxElapsed),
	), ctx)
}

func retry[T any](ctx context.Context, g *RetryingGateway, op string, idempotent bool, fn func() (T, error)) (T, error) {
	operation := func() (T, error) {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		retryable := errors.Is(err, ErrRateLimited) || (idempotent && errors.Is(err, ErrTransient))
		if !retryable {
			return v, backoff.Permanent(err)
		}
		return v, err
	}

	notify := func(err error, wait time.Duration) {
		logging.Warn("Retrying gateway call", "op", op, "wait", wait.String(), "error", err.Error())
	}

	v, err := backoff.RetryNotifyWithData(operation, g.newBackOff(ctx), notify)
	if err != nil && !errors.Is(err, constants.ErrGatewayUnavailable) && !errors.Is(err, ErrNotFound) {
		err = fmt.Errorf("%w: %s: %w", constants.ErrGatewayUnavailable, op, err)
	}
	return v, err
}

func retryErr(ctx context.Context, g *RetryingGateway, op string, fn func() error) error {
	_, err := retry(ctx, g, op, true, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

func (g *RetryingGateway) SendMessage(ctx context.Context, channelID string, msg Message) (string, error) {
	return retry(ctx, g, "send message", false, func() (string, error) {
		return g.next.SendMessage(ctx, channelID, msg)
	})
}

func (g *RetryingGateway) CreateThread(ctx context.Context, channelID, name string, autoArchive time.Duration, reason string) (string, error) {
	return retry(ctx, g, "create thread", false, func() (string, error) {
		return g.next.CreateThread(ctx, channelID, name, autoArchive, reason)
	})
}

func (g *RetryingGateway) EditThreadName(ctx context.Context, threadID, name string) error {
	return retryErr(ctx, g, "rename thread", func() error { return g.next.EditThreadName(ctx, threadID, name) })
}

func (g *RetryingGateway) LockThread(ctx context.Context, threadID string) error {
	return retryErr(ctx, g, "lock thread", func() error { return g.next.LockThread(ctx, threadID) })
}

func (g *RetryingGateway) ArchiveThread(ctx context.Context, threadID string) error {
	return retryErr(ctx, g, "archive thread", func() error { return g.next.ArchiveThread(ctx, threadID) })
}

func (g *RetryingGateway) FetchMemberRoles(ctx context.Context, guildID, userID string) ([]string, error) {
	return retry(ctx, g, "fetch member", true, func() ([]string, error) {
		return g.next.FetchMemberRoles(ctx, guildID, userID)
	})
}

func (g *RetryingGateway) AddRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	return retryErr(ctx, g, "add role", func() error { return g.next.AddRole(ctx, guildID, userID, roleID, reason) })
}

func (g *RetryingGateway) RemoveRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	return retryErr(ctx, g, "remove role", func() error { return g.next.RemoveRole(ctx, guildID, userID, roleID, reason) })
}

func (g *RetryingGateway) FetchRoleCatalog(ctx context.Context, guildID string) ([]Role, error) {
	return retry(ctx, g, "fetch roles", true, func() ([]Role, error) {
		return g.next.FetchRoleCatalog(ctx, guildID)
	})
}

func (g *RetryingGateway) FetchGuild(ctx context.Context, guildID string) (*Guild, error) {
	return retry(ctx, g, "fetch guild", true, func() (*Guild, error) {
		return g.next.FetchGuild(ctx, guildID)
	})
}

func (g *RetryingGateway) FetchMembers(ctx context.Context, guildID string) ([]Member, error) {
	return retry(ctx, g, "fetch members", true, func() ([]Member, error) {
		return g.next.FetchMembers(ctx, guildID)
	})
}

func (g *RetryingGateway) ActiveThreadIDs(ctx context.Context, guildID string) (map[string]bool, error) {
	return retry(ctx, g, "fetch active threads", true, func() (map[string]bool, error) {
		return g.next.ActiveThreadIDs(ctx, guildID)
	})
}
