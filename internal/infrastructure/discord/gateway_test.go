package discord

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-rolegate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeREST struct {
	members   map[string]*discordgo.Member
	roles     []*discordgo.Role
	edited    map[string][]string
	added     map[string][]string
	memberErr error
	editErr   error
}

func newFakeREST() *fakeREST {
	return &fakeREST{
		members: map[string]*discordgo.Member{},
		edited:  map[string][]string{},
		added:   map[string][]string{},
	}
}

func (f *fakeREST) GuildMember(_, userID string, _ ...discordgo.RequestOption) (*discordgo.Member, error) {
	if f.memberErr != nil {
		return nil, f.memberErr
	}
	m, ok := f.members[userID]
	if !ok {
		return nil, restErr(codeUnknownMember)
	}
	return m, nil
}

func (f *fakeREST) GuildRoles(string, ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	return f.roles, nil
}

func (f *fakeREST) GuildMemberEdit(_, userID string, data *discordgo.GuildMemberParams, _ ...discordgo.RequestOption) (*discordgo.Member, error) {
	if f.editErr != nil {
		return nil, f.editErr
	}
	f.edited[userID] = *data.Roles
	return &discordgo.Member{Roles: *data.Roles}, nil
}

func (f *fakeREST) GuildMemberRoleAdd(_, userID, roleID string, _ ...discordgo.RequestOption) error {
	f.added[userID] = append(f.added[userID], roleID)
	return nil
}

func restErr(code int) error {
	return &discordgo.RESTError{
		Response:     &http.Response{Status: "404 Not Found", StatusCode: http.StatusNotFound},
		ResponseBody: []byte(`{"message":"unknown"}`),
		Message:      &discordgo.APIErrorMessage{Code: code, Message: "unknown"},
	}
}

func newTestGateway(api restAPI) *Gateway {
	return &Gateway{api: api, selfID: func() string { return "bot" }}
}

func TestGateway_MemberRoles(t *testing.T) {
	api := newFakeREST()
	api.members["u1"] = &discordgo.Member{Roles: []string{"a", "b"}}
	g := newTestGateway(api)

	roles, err := g.MemberRoles(context.Background(), "g1", "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, roles)

	_, err = g.MemberRoles(context.Background(), "g1", "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGateway_SetMemberRoles_SingleEdit(t *testing.T) {
	api := newFakeREST()
	g := newTestGateway(api)

	input := []string{"e1", "b"}
	require.NoError(t, g.SetMemberRoles(context.Background(), "g1", "u1", input))
	assert.Equal(t, []string{"e1", "b"}, api.edited["u1"])

	input[0] = "mutated"
	assert.Equal(t, "e1", api.edited["u1"][0], "gateway must not alias the caller's slice")
}

func TestGateway_SetMemberRoles_WrapsError(t *testing.T) {
	api := newFakeREST()
	api.editErr = errors.New("boom")
	g := newTestGateway(api)

	err := g.SetMemberRoles(context.Background(), "g1", "u1", []string{"b"})
	assert.ErrorContains(t, err, "edit member u1 roles: boom")
}

func TestGateway_Role(t *testing.T) {
	api := newFakeREST()
	api.roles = []*discordgo.Role{{ID: "a", Name: "Octofied"}}
	g := newTestGateway(api)

	r, err := g.Role(context.Background(), "g1", "a")
	require.NoError(t, err)
	assert.Equal(t, &domain.Role{ID: "a", Name: "Octofied"}, r)

	_, err = g.Role(context.Background(), "g1", "missing")
	assert.ErrorIs(t, err, domain.ErrRoleNotFound)
}

func TestGateway_AddMemberRole(t *testing.T) {
	api := newFakeREST()
	g := newTestGateway(api)

	require.NoError(t, g.AddMemberRole(context.Background(), "g1", "u1", "a"))
	assert.Equal(t, []string{"a"}, api.added["u1"])
}

func TestGateway_CanManageRoles(t *testing.T) {
	tests := []struct {
		name      string
		everyone  int64
		held      int64
		wantAllow bool
	}{
		{"no permission", discordgo.PermissionSendMessages, discordgo.PermissionViewChannel, false},
		{"manage roles on held role", 0, discordgo.PermissionManageRoles, true},
		{"administrator", 0, discordgo.PermissionAdministrator, true},
		{"manage roles on everyone", discordgo.PermissionManageRoles, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeREST()
			api.members["bot"] = &discordgo.Member{Roles: []string{"botrole"}}
			api.roles = []*discordgo.Role{
				{ID: "g1", Permissions: tt.everyone},
				{ID: "botrole", Permissions: tt.held},
				{ID: "other", Permissions: discordgo.PermissionAdministrator},
			}
			ok, err := newTestGateway(api).CanManageRoles(context.Background(), "g1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantAllow, ok)
		})
	}
}

func TestGateway_CanManageRoles_BeforeReady(t *testing.T) {
	g := &Gateway{api: newFakeREST(), selfID: func() string { return "" }}
	_, err := g.CanManageRoles(context.Background(), "g1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMapError(t *testing.T) {
	assert.Nil(t, mapError(nil))
	assert.ErrorIs(t, mapError(restErr(codeUnknownInteraction)), domain.ErrInteractionExpired)
	assert.ErrorIs(t, mapError(restErr(codeUnknownRole)), domain.ErrRoleNotFound)
	assert.ErrorIs(t, mapError(restErr(codeUnknownMember)), domain.ErrNotFound)

	plain := errors.New("timeout")
	assert.Equal(t, plain, mapError(plain))
}

func TestThrottled_PacesCalls(t *testing.T) {
	api := newFakeREST()
	api.members["u1"] = &discordgo.Member{Roles: []string{"a"}}
	th := NewThrottled(newTestGateway(api), 20, 1)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := th.MemberRoles(context.Background(), "g1", "u1")
		require.NoError(t, err)
	}
	// burst 1 at 20/s: the 2nd and 3rd call each wait ~50ms
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestThrottled_CancelledContext(t *testing.T) {
	th := NewThrottled(newTestGateway(newFakeREST()), 0.001, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// burst token available, but a cancelled context still aborts the wait
	_, err := th.Role(ctx, "g1", "a")
	assert.ErrorIs(t, err, context.Canceled)
}
