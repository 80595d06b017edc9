package verification

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

const (
	msgRoleNotFound = "❌ Role not found. Contact an admin."
	msgExpired      = "❌ Verification session expired. Try again by clicking the button."
	msgMismatch     = "❌ Incorrect code. Verification failed. Try again by clicking the button."
	msgGrantFailed  = "❌ Failed to assign role. Contact an admin."
	msgFailed       = "❌ Something went wrong. Please try again later."

	// MsgTimeUp is sent when a challenge expires before the user answers.
	MsgTimeUp = "⏰ Time's up! Verification failed. Try again by clicking the button."
)

// Gateway is the slice of the chat platform the verification flow needs.
type Gateway interface {
	Role(ctx context.Context, guildID, roleID string) (*domain.Role, error)
	MemberRoles(ctx context.Context, guildID, userID string) ([]string, error)
	AddMemberRole(ctx context.Context, guildID, userID, roleID string) error
}

// Recorder stores audit events. Failures are logged, never surfaced.
type Recorder interface {
	Record(ctx context.Context, e *domain.AuditEvent) error
}

// Rejection is a start-of-verification refusal with the text to show the user.
type Rejection struct {
	Message string
	Err     error
}

func (r *Rejection) Error() string { return r.Err.Error() }
func (r *Rejection) Unwrap() error { return r.Err }

// Completion is the result of answering a challenge.
type Completion struct {
	Outcome domain.VerificationOutcome
	Granted bool
	Message string
}

type Service interface {
	Start(ctx context.Context, userID string, project domain.Project, onExpire func()) (string, error)
	Complete(ctx context.Context, userID, input string) Completion
	Pending() int
}

type ServiceDeps struct {
	Manager        *Manager
	Gateway        Gateway
	Recorder       Recorder // optional
	GuildID        string
	AuditRetention time.Duration
}

type service struct {
	sessions  *Manager
	gateway   Gateway
	recorder  Recorder
	guildID   string
	retention time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		sessions:  deps.Manager,
		gateway:   deps.Gateway,
		recorder:  deps.Recorder,
		guildID:   deps.GuildID,
		retention: deps.AuditRetention,
	}
}

// Start issues a challenge for project unless the user already holds its primary role.
func (s *service) Start(ctx context.Context, userID string, project domain.Project, onExpire func()) (string, error) {
	role, err := s.gateway.Role(ctx, s.guildID, project.PrimaryRoleID)
	if errors.Is(err, domain.ErrRoleNotFound) {
		return "", &Rejection{Message: msgRoleNotFound, Err: err}
	}
	if err != nil {
		return "", &Rejection{Message: msgFailed, Err: fmt.Errorf("look up role %s: %w", project.PrimaryRoleID, err)}
	}

	held, err := s.gateway.MemberRoles(ctx, s.guildID, userID)
	if err != nil {
		return "", &Rejection{Message: msgFailed, Err: fmt.Errorf("read member roles: %w", err)}
	}
	if slices.Contains(held, role.ID) {
		return "", &Rejection{
			Message: fmt.Sprintf("✅ You already have the %s role!", role.Name),
			Err:     domain.ErrAlreadyVerified,
		}
	}

	return s.sessions.Begin(userID, project, onExpire)
}

// Complete checks the answer and grants the project's primary role on a match.
func (s *service) Complete(ctx context.Context, userID, input string) Completion {
	outcome, project := s.sessions.Submit(userID, input)
	switch outcome {
	case domain.OutcomeExpired:
		return Completion{Outcome: outcome, Message: msgExpired}
	case domain.OutcomeMismatch:
		return Completion{Outcome: outcome, Message: msgMismatch}
	}

	role, err := s.gateway.Role(ctx, s.guildID, project.PrimaryRoleID)
	if err != nil {
		slog.Error("verification role lookup failed", "user_id", userID, "role_id", project.PrimaryRoleID, "err", err)
		if errors.Is(err, domain.ErrRoleNotFound) {
			return Completion{Outcome: outcome, Message: msgRoleNotFound}
		}
		return Completion{Outcome: outcome, Message: msgFailed}
	}
	if err := s.gateway.AddMemberRole(ctx, s.guildID, userID, role.ID); err != nil {
		slog.Error("role assignment failed", "user_id", userID, "role_id", role.ID, "err", err)
		return Completion{Outcome: outcome, Message: msgGrantFailed}
	}

	slog.Info("member verified", "user_id", userID, "project", project.Key)
	s.record(ctx, userID, project, role.ID)
	return Completion{
		Outcome: outcome,
		Granted: true,
		Message: fmt.Sprintf("✅ Verified successfully! You've been granted the %s role. Welcome! 🎉", role.Name),
	}
}

func (s *service) Pending() int { return s.sessions.Pending() }

func (s *service) record(ctx context.Context, userID string, project domain.Project, roleID string) {
	if s.recorder == nil {
		return
	}
	now := time.Now().UTC()
	e := &domain.AuditEvent{
		UserID:    userID,
		EventID:   id.At(now),
		Kind:      domain.AuditKindVerify,
		Project:   project.Key,
		Roles:     []string{roleID},
		CreatedAt: now,
		ExpiresAt: now.Add(s.retention).Unix(),
	}
	if err := s.recorder.Record(ctx, e); err != nil {
		slog.Warn("failed to record verification event", "user_id", userID, "err", err)
	}
}
