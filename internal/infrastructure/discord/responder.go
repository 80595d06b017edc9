package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/go-rolegate/internal/application/switching"
	"github.com/go-rolegate/internal/domain"
)

type interactionAPI interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// responder answers one switch-button interaction on behalf of the coordinator.
type responder struct {
	api         interactionAPI
	interaction *discordgo.Interaction
	projects    domain.Projects
}

// Defer acknowledges with an ephemeral "thinking" state.
// An interaction Discord no longer knows maps to domain.ErrInteractionExpired.
func (r *responder) Defer(ctx context.Context) error {
	err := r.api.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("defer interaction: %w", mapError(err))
	}
	return nil
}

func (r *responder) Reply(ctx context.Context, out switching.Outcome) error {
	edit := &discordgo.WebhookEdit{}
	if out.Status == switching.StatusSwitched {
		embeds := []*discordgo.MessageEmbed{switchedEmbed(r.projects, out)}
		edit.Embeds = &embeds
	} else {
		msg := out.Message
		edit.Content = &msg
	}
	if _, err := r.api.InteractionResponseEdit(r.interaction, edit, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("edit interaction reply: %w", mapError(err))
	}
	return nil
}

// Notify posts a plain message mentioning the requester in the originating channel.
func (r *responder) Notify(ctx context.Context, message string) error {
	content := fmt.Sprintf("<@%s>, %s", interactionUserID(r.interaction), message)
	if _, err := r.api.ChannelMessageSend(r.interaction.ChannelID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send channel notice: %w", mapError(err))
	}
	return nil
}
