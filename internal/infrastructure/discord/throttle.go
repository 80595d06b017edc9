package discord

import (
	"context"
	"fmt"

	"github.com/go-rolegate/internal/domain"
	"golang.org/x/time/rate"
)

// Throttled paces every call to the wrapped gateway through a token bucket,
// keeping bursts of switches under Discord's per-route limits.
type Throttled struct {
	next    RoleGateway
	limiter *rate.Limiter
}

func NewThrottled(next RoleGateway, perSecond float64, burst int) *Throttled {
	if burst < 1 {
		burst = 1
	}
	return &Throttled{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (t *Throttled) wait(ctx context.Context) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("gateway pacing: %w", err)
	}
	return nil
}

func (t *Throttled) MemberRoles(ctx context.Context, guildID, userID string) ([]string, error) {
	if err := t.wait(ctx); err != nil {
		return nil, err
	}
	return t.next.MemberRoles(ctx, guildID, userID)
}

func (t *Throttled) SetMemberRoles(ctx context.Context, guildID, userID string, roleIDs []string) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	return t.next.SetMemberRoles(ctx, guildID, userID, roleIDs)
}

func (t *Throttled) AddMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	return t.next.AddMemberRole(ctx, guildID, userID, roleID)
}

func (t *Throttled) Role(ctx context.Context, guildID, roleID string) (*domain.Role, error) {
	if err := t.wait(ctx); err != nil {
		return nil, err
	}
	return t.next.Role(ctx, guildID, roleID)
}

func (t *Throttled) CanManageRoles(ctx context.Context, guildID string) (bool, error) {
	if err := t.wait(ctx); err != nil {
		return false, err
	}
	return t.next.CanManageRoles(ctx, guildID)
}
