package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/go-rolegate/internal/domain"
)

// RoleGateway is everything the verification and switch workflows ask of Discord.
type RoleGateway interface {
	MemberRoles(ctx context.Context, guildID, userID string) ([]string, error)
	SetMemberRoles(ctx context.Context, guildID, userID string, roleIDs []string) error
	AddMemberRole(ctx context.Context, guildID, userID, roleID string) error
	Role(ctx context.Context, guildID, roleID string) (*domain.Role, error)
	CanManageRoles(ctx context.Context, guildID string) (bool, error)
}

type restAPI interface {
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildMemberEdit(guildID, userID string, data *discordgo.GuildMemberParams, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
}

// Gateway implements RoleGateway over the Discord REST API.
type Gateway struct {
	api    restAPI
	selfID func() string
}

// NewGateway uses s for REST calls. The bot's own user ID is read from the
// session state, which is populated once the Ready event arrives.
func NewGateway(s *discordgo.Session) *Gateway {
	return &Gateway{
		api: s,
		selfID: func() string {
			if s.State == nil || s.State.User == nil {
				return ""
			}
			return s.State.User.ID
		},
	}
}

func (g *Gateway) MemberRoles(ctx context.Context, guildID, userID string) ([]string, error) {
	m, err := g.api.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get member %s: %w", userID, mapError(err))
	}
	return append([]string{}, m.Roles...), nil
}

// SetMemberRoles replaces the member's role list in a single request.
func (g *Gateway) SetMemberRoles(ctx context.Context, guildID, userID string, roleIDs []string) error {
	roles := append([]string{}, roleIDs...)
	_, err := g.api.GuildMemberEdit(guildID, userID, &discordgo.GuildMemberParams{Roles: &roles}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("edit member %s roles: %w", userID, mapError(err))
	}
	return nil
}

func (g *Gateway) AddMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	if err := g.api.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("add role %s to %s: %w", roleID, userID, mapError(err))
	}
	return nil
}

// Role returns domain.ErrRoleNotFound when the guild has no such role.
func (g *Gateway) Role(ctx context.Context, guildID, roleID string) (*domain.Role, error) {
	roles, err := g.api.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", mapError(err))
	}
	for _, r := range roles {
		if r.ID == roleID {
			return &domain.Role{ID: r.ID, Name: r.Name}, nil
		}
	}
	return nil, fmt.Errorf("role %s: %w", roleID, domain.ErrRoleNotFound)
}

// CanManageRoles reports whether the bot's effective guild permissions
// include Manage Roles, directly or through Administrator.
func (g *Gateway) CanManageRoles(ctx context.Context, guildID string) (bool, error) {
	self := g.selfID()
	if self == "" {
		return false, fmt.Errorf("bot user unknown before ready: %w", domain.ErrNotFound)
	}
	m, err := g.api.GuildMember(guildID, self, discordgo.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("get bot member: %w", mapError(err))
	}
	roles, err := g.api.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("list roles: %w", mapError(err))
	}
	perms := memberPermissions(guildID, m.Roles, roles)
	return perms&discordgo.PermissionAdministrator != 0 || perms&discordgo.PermissionManageRoles != 0, nil
}

// memberPermissions folds @everyone (whose ID equals the guild ID) and every held role.
func memberPermissions(guildID string, held []string, roles []*discordgo.Role) int64 {
	has := make(map[string]struct{}, len(held)+1)
	has[guildID] = struct{}{}
	for _, id := range held {
		has[id] = struct{}{}
	}
	var perms int64
	for _, r := range roles {
		if _, ok := has[r.ID]; ok {
			perms |= r.Permissions
		}
	}
	return perms
}
