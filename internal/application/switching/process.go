package switching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/go-rolegate/internal/domain"
	"github.com/go-rolegate/internal/pkg/id"
)

// process handles one switch request end to end. It always answers the requester.
func (c *Coordinator) process(ctx context.Context, req Request) (out Outcome) {
	log := slog.With("request_id", id.New(), "user_id", req.UserID, "target", req.Target)
	start := time.Now()

	if err := req.Responder.Defer(ctx); err != nil {
		log.Error("failed to defer interaction", "err", err)
		if errors.Is(err, domain.ErrInteractionExpired) {
			if nerr := req.Responder.Notify(ctx, msgUnacknowledged); nerr != nil {
				log.Error("failed to send fallback notice", "err", nerr)
			}
		}
		return Outcome{Status: StatusUnacknowledged, Message: msgUnacknowledged}
	}
	log.Debug("deferred reply", "elapsed", time.Since(start))

	defer func() {
		if r := recover(); r != nil {
			log.Error("role switch panicked", "panic", r)
			c.alert("role switch panicked", fmt.Sprintf("user %s, target %s: %v", req.UserID, req.Target, r))
			out = failed()
		}
		if err := req.Responder.Reply(ctx, out); err != nil {
			log.Warn("failed to deliver switch outcome", "err", err)
		}
		log.Info("role switch finished", "status", out.Status.String(), "elapsed", time.Since(start))
	}()

	out, err := c.decide(ctx, log, req)
	if err != nil {
		log.Error("role switch failed", "err", err)
		c.alert("role switch failed", fmt.Sprintf("user %s, target %s: %v", req.UserID, req.Target, err))
		return failed()
	}
	return out
}

// decide runs the gate, the eligibility checks and the switch itself.
// A non-nil error means an unexpected gateway failure.
func (c *Coordinator) decide(ctx context.Context, log *slog.Logger, req Request) (Outcome, error) {
	target, ok := c.projects.ByKey(req.Target)
	if !ok {
		return ineligible(msgUnknownProject), nil
	}
	source := c.projects.Other(target)

	// Armed before any check so failed attempts also consume the window.
	if d := c.cooldowns.CheckAndArm(req.UserID); !d.Allowed {
		return Outcome{
			Status:  StatusCooldown,
			Message: fmt.Sprintf("⏰ Please wait %.1f seconds before switching roles again.", d.RemainingSeconds()),
		}, nil
	}

	if req.GuildID != c.guildID {
		return ineligible(msgWrongServer), nil
	}
	canManage, err := c.gateway.CanManageRoles(ctx, c.guildID)
	if err != nil {
		return Outcome{}, wrapGateway("check manage roles", err)
	}
	if !canManage {
		return ineligible(msgNoManageRoles), nil
	}

	targetRole, sourceRole, missing, err := c.primaryRoles(ctx, target, source)
	if err != nil {
		return Outcome{}, err
	}
	if missing {
		return ineligible(fmt.Sprintf("❌ Roles not found! Please ensure the %s and %s roles exist.",
			c.projects.A.Label, c.projects.B.Label)), nil
	}

	held, err := c.gateway.MemberRoles(ctx, c.guildID, req.UserID)
	if err != nil {
		return Outcome{}, wrapGateway("read member roles", err)
	}
	if !slices.Contains(held, source.PrimaryRoleID) {
		return ineligible(fmt.Sprintf("❌ You need the %s role to switch to %s!", sourceRole.Name, target.Label)), nil
	}

	// Snapshot what the user has in the project being left.
	var keptExceptional, leaving []string
	for _, r := range held {
		switch {
		case c.isExceptional(r):
			keptExceptional = append(keptExceptional, r)
		case r == source.PrimaryRoleID:
		default:
			leaving = append(leaving, r)
		}
	}
	c.store.Set(source.Key, req.UserID, leaving)
	// Save logs its own failure; the in-memory snapshot is authoritative.
	_ = c.store.Save(ctx)

	restore, hadSnapshot := c.store.Take(target.Key, req.UserID)
	next := domain.NewRoleSet(keptExceptional...)
	next.Add(target.PrimaryRoleID)
	next.Add(restore...)

	if err := c.gateway.SetMemberRoles(ctx, c.guildID, req.UserID, next.IDs()); err != nil {
		return Outcome{}, wrapGateway("replace member roles", err)
	}

	if hadSnapshot {
		c.store.Clear(target.Key, req.UserID)
		_ = c.store.Save(ctx) // logged by Save
	}

	log.Info("member switched project", "from", source.Key, "to", target.Key, "restored", len(restore))
	c.record(ctx, log, req.UserID, target, next.IDs(), len(restore))

	return Outcome{
		Status:   StatusSwitched,
		Project:  target,
		RoleName: targetRole.Name,
		Restored: len(restore),
		Message: fmt.Sprintf("✅ You have switched to **%s**! Your roles have been updated to include the **%s** role.",
			target.Label, targetRole.Name),
	}, nil
}

// primaryRoles resolves both primary roles. missing is true when either does not exist.
func (c *Coordinator) primaryRoles(ctx context.Context, target, source domain.Project) (t, s *domain.Role, missing bool, err error) {
	t, err = c.gateway.Role(ctx, c.guildID, target.PrimaryRoleID)
	if isRoleMissing(err) {
		return nil, nil, true, nil
	}
	if err != nil {
		return nil, nil, false, wrapGateway("look up target role", err)
	}
	s, err = c.gateway.Role(ctx, c.guildID, source.PrimaryRoleID)
	if isRoleMissing(err) {
		return nil, nil, true, nil
	}
	if err != nil {
		return nil, nil, false, wrapGateway("look up source role", err)
	}
	return t, s, false, nil
}

func (c *Coordinator) isExceptional(roleID string) bool {
	_, ok := c.exceptional[roleID]
	return ok
}

func (c *Coordinator) record(ctx context.Context, log *slog.Logger, userID string, project domain.Project, roles []string, restored int) {
	if c.recorder == nil {
		return
	}
	now := time.Now().UTC()
	e := &domain.AuditEvent{
		UserID:    userID,
		EventID:   id.At(now),
		Kind:      domain.AuditKindSwitch,
		Project:   project.Key,
		Roles:     roles,
		Restored:  restored,
		CreatedAt: now,
		ExpiresAt: now.Add(c.retention).Unix(),
	}
	if err := c.recorder.Record(ctx, e); err != nil {
		log.Warn("failed to record switch event", "err", err)
	}
}
