package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-rolegate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockGateway struct{ mock.Mock }

func (m *mockGateway) Role(ctx context.Context, guildID, roleID string) (*domain.Role, error) {
	args := m.Called(ctx, guildID, roleID)
	if r, _ := args.Get(0).(*domain.Role); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGateway) MemberRoles(ctx context.Context, guildID, userID string) ([]string, error) {
	args := m.Called(ctx, guildID, userID)
	roles, _ := args.Get(0).([]string)
	return roles, args.Error(1)
}

func (m *mockGateway) AddMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	return m.Called(ctx, guildID, userID, roleID).Error(0)
}

type mockRecorder struct{ mock.Mock }

func (m *mockRecorder) Record(ctx context.Context, e *domain.AuditEvent) error {
	return m.Called(ctx, e).Error(0)
}

// --- helpers ---

const guild = "guild-1"

func newSvc(gw *mockGateway, rec Recorder) (*service, *Manager) {
	m := NewManager(time.Minute)
	svc := NewService(ServiceDeps{
		Manager:        m,
		Gateway:        gw,
		Recorder:       rec,
		GuildID:        guild,
		AuditRetention: 24 * time.Hour,
	}).(*service)
	return svc, m
}

func roleA() *domain.Role { return &domain.Role{ID: "role-a", Name: "Octofied"} }

// --- Start ---

func TestStart_IssuesCode(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Role", mock.Anything, guild, "role-a").Return(roleA(), nil)
	gw.On("MemberRoles", mock.Anything, guild, "u1").Return([]string{"other"}, nil)
	svc, m := newSvc(gw, nil)
	defer m.Stop()

	code, err := svc.Start(context.Background(), "u1", projectA, nil)
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.Equal(t, 1, svc.Pending())
	gw.AssertExpectations(t)
}

func TestStart_RoleMissing(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Role", mock.Anything, guild, "role-a").Return(nil, domain.ErrRoleNotFound)
	svc, _ := newSvc(gw, nil)

	_, err := svc.Start(context.Background(), "u1", projectA, nil)

	var rej *Rejection
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, msgRoleNotFound, rej.Message)
	assert.True(t, errors.Is(err, domain.ErrRoleNotFound))
	assert.Equal(t, 0, svc.Pending())
}

func TestStart_AlreadyVerified(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Role", mock.Anything, guild, "role-a").Return(roleA(), nil)
	gw.On("MemberRoles", mock.Anything, guild, "u1").Return([]string{"role-a"}, nil)
	svc, _ := newSvc(gw, nil)

	_, err := svc.Start(context.Background(), "u1", projectA, nil)

	var rej *Rejection
	require.True(t, errors.As(err, &rej))
	assert.True(t, errors.Is(err, domain.ErrAlreadyVerified))
	assert.Contains(t, rej.Message, "Octofied")
	assert.Equal(t, 0, svc.Pending())
}

func TestStart_GatewayErrorIsGenericRejection(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Role", mock.Anything, guild, "role-a").Return(roleA(), nil)
	gw.On("MemberRoles", mock.Anything, guild, "u1").Return(nil, errors.New("503"))
	svc, _ := newSvc(gw, nil)

	_, err := svc.Start(context.Background(), "u1", projectA, nil)

	var rej *Rejection
	require.True(t, errors.As(err, &rej))
	assert.Equal(t, msgFailed, rej.Message)
}

// --- Complete ---

func TestComplete_SuccessGrantsRoleAndRecords(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Role", mock.Anything, guild, "role-a").Return(roleA(), nil)
	gw.On("MemberRoles", mock.Anything, guild, "u1").Return([]string{}, nil)
	gw.On("AddMemberRole", mock.Anything, guild, "u1", "role-a").Return(nil)
	rec := &mockRecorder{}
	rec.On("Record", mock.Anything, mock.MatchedBy(func(e *domain.AuditEvent) bool {
		return e.UserID == "u1" && e.Kind == domain.AuditKindVerify && e.Project == "octonads" && e.EventID != ""
	})).Return(nil)
	svc, m := newSvc(gw, rec)
	defer m.Stop()

	code, err := svc.Start(context.Background(), "u1", projectA, nil)
	require.NoError(t, err)

	res := svc.Complete(context.Background(), "u1", code)
	assert.Equal(t, domain.OutcomeSuccess, res.Outcome)
	assert.True(t, res.Granted)
	assert.Contains(t, res.Message, "Octofied")
	gw.AssertExpectations(t)
	rec.AssertExpectations(t)
}

func TestComplete_MismatchDoesNotGrant(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Role", mock.Anything, guild, "role-a").Return(roleA(), nil)
	gw.On("MemberRoles", mock.Anything, guild, "u1").Return([]string{}, nil)
	svc, m := newSvc(gw, nil)
	defer m.Stop()

	code, err := svc.Start(context.Background(), "u1", projectA, nil)
	require.NoError(t, err)
	wrong := "123456"
	if code == wrong {
		wrong = "654321"
	}

	res := svc.Complete(context.Background(), "u1", wrong)
	assert.Equal(t, domain.OutcomeMismatch, res.Outcome)
	assert.False(t, res.Granted)
	assert.Equal(t, msgMismatch, res.Message)
	gw.AssertNotCalled(t, "AddMemberRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestComplete_NoSession(t *testing.T) {
	svc, _ := newSvc(&mockGateway{}, nil)
	res := svc.Complete(context.Background(), "u1", "123456")
	assert.Equal(t, domain.OutcomeExpired, res.Outcome)
	assert.Equal(t, msgExpired, res.Message)
}

func TestComplete_GrantFailure(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Role", mock.Anything, guild, "role-a").Return(roleA(), nil)
	gw.On("MemberRoles", mock.Anything, guild, "u1").Return([]string{}, nil)
	gw.On("AddMemberRole", mock.Anything, guild, "u1", "role-a").Return(errors.New("missing access"))
	rec := &mockRecorder{}
	svc, m := newSvc(gw, rec)
	defer m.Stop()

	code, err := svc.Start(context.Background(), "u1", projectA, nil)
	require.NoError(t, err)

	res := svc.Complete(context.Background(), "u1", code)
	assert.False(t, res.Granted)
	assert.Equal(t, msgGrantFailed, res.Message)
	rec.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestComplete_RoleLookupFailure(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"role deleted", domain.ErrRoleNotFound, msgRoleNotFound},
		{"gateway unavailable", errors.New("502 bad gateway"), msgFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &mockGateway{}
			gw.On("Role", mock.Anything, guild, "role-a").Return(nil, tt.err)
			svc, m := newSvc(gw, nil)
			defer m.Stop()

			code, err := m.Begin("u1", projectA, nil)
			require.NoError(t, err)

			res := svc.Complete(context.Background(), "u1", code)
			assert.Equal(t, domain.OutcomeSuccess, res.Outcome)
			assert.False(t, res.Granted)
			assert.Equal(t, tt.message, res.Message)
			gw.AssertNotCalled(t, "AddMemberRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestComplete_RecorderFailureStillGrants(t *testing.T) {
	gw := &mockGateway{}
	gw.On("Role", mock.Anything, guild, "role-a").Return(roleA(), nil)
	gw.On("MemberRoles", mock.Anything, guild, "u1").Return([]string{}, nil)
	gw.On("AddMemberRole", mock.Anything, guild, "u1", "role-a").Return(nil)
	rec := &mockRecorder{}
	rec.On("Record", mock.Anything, mock.Anything).Return(errors.New("throttled"))
	svc, m := newSvc(gw, rec)
	defer m.Stop()

	code, err := svc.Start(context.Background(), "u1", projectA, nil)
	require.NoError(t, err)

	res := svc.Complete(context.Background(), "u1", code)
	assert.True(t, res.Granted)
}
