package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-rolegate/internal/application/switching"
	"github.com/go-rolegate/internal/application/verification"
	"github.com/go-rolegate/internal/domain"
)

const (
	interactionTimeout = 10 * time.Second
	switchWaitTimeout  = 2 * time.Minute
	panelHistoryLimit  = 10
)

// Switcher queues a role switch and waits for its outcome.
type Switcher interface {
	Switch(ctx context.Context, req switching.Request) switching.Outcome
}

type sessionAPI interface {
	interactionAPI
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
}

type permissionChecker interface {
	CanManageRoles(ctx context.Context, guildID string) (bool, error)
}

// Settings are the guild and channel IDs the bot operates in.
type Settings struct {
	GuildID               string
	VerificationChannelID string
	RoleSwitchChannelID   string
	CaptchaTTL            time.Duration
}

type BotDeps struct {
	Session  *discordgo.Session
	Gateway  RoleGateway
	Verifier verification.Service
	Switcher Switcher
	Projects domain.Projects
	Settings Settings
}

// Bot routes Discord events to the verification and switch workflows.
type Bot struct {
	api      sessionAPI
	perms    permissionChecker
	verifier verification.Service
	switcher Switcher
	projects domain.Projects
	settings Settings
}

// NewSession creates a session with the intents the bot relies on.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers | discordgo.IntentsGuildMessages
	return s, nil
}

func NewBot(deps BotDeps) *Bot {
	return &Bot{
		api:      deps.Session,
		perms:    deps.Gateway,
		verifier: deps.Verifier,
		switcher: deps.Switcher,
		projects: deps.Projects,
		settings: deps.Settings,
	}
}

// Register installs the event handlers. Panels are posted on the first Ready only.
func (b *Bot) Register(s *discordgo.Session) {
	s.AddHandlerOnce(func(_ *discordgo.Session, r *discordgo.Ready) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		b.setup(ctx, r.User, len(r.Guilds))
	})
	s.AddHandler(func(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
		b.handleInteraction(ic.Interaction)
	})
}

// setup validates the configured guild and permission, then posts the panels.
func (b *Bot) setup(ctx context.Context, self *discordgo.User, guilds int) {
	slog.Info("logged in", "user", self.Username, "guilds", guilds)

	guild, err := b.api.Guild(b.settings.GuildID, discordgo.WithContext(ctx))
	if err != nil {
		slog.Error("server not found, check SERVER_ID", "guild_id", b.settings.GuildID, "err", err)
		return
	}
	slog.Info("connected to server", "guild", guild.Name)

	ok, err := b.perms.CanManageRoles(ctx, b.settings.GuildID)
	if err != nil {
		slog.Error("could not check bot permissions", "err", err)
		return
	}
	if !ok {
		slog.Error("bot lacks Manage Roles permission")
		return
	}

	avatar := self.AvatarURL("")
	if ch := b.settings.VerificationChannelID; ch != "" {
		b.clearOwnMessages(ctx, ch, self.ID)
		b.post(ctx, ch, "verification", verificationPanel(b.projects, b.settings.CaptchaTTL, avatar))
	}
	if ch := b.settings.RoleSwitchChannelID; ch != "" {
		b.post(ctx, ch, "role switch", switchPanel(b.projects, avatar))
	}
	slog.Info("bot is ready")
}

func (b *Bot) clearOwnMessages(ctx context.Context, channelID, selfID string) {
	msgs, err := b.api.ChannelMessages(channelID, panelHistoryLimit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		slog.Warn("could not fetch channel history", "channel_id", channelID, "err", err)
		return
	}
	for _, m := range msgs {
		if m.Author == nil || m.Author.ID != selfID {
			continue
		}
		if err := b.api.ChannelMessageDelete(channelID, m.ID, discordgo.WithContext(ctx)); err != nil {
			slog.Warn("could not delete old panel", "channel_id", channelID, "message_id", m.ID, "err", err)
		}
	}
}

func (b *Bot) post(ctx context.Context, channelID, name string, msg *discordgo.MessageSend) {
	if _, err := b.api.ChannelMessageSendComplex(channelID, msg, discordgo.WithContext(ctx)); err != nil {
		slog.Warn("channel not available, skipping panel", "panel", name, "channel_id", channelID, "err", err)
		return
	}
	slog.Info("panel posted", "panel", name, "channel_id", channelID)
}

func (b *Bot) handleInteraction(i *discordgo.Interaction) {
	switch i.Type {
	case discordgo.InteractionMessageComponent:
		act, key := parseCustomID(i.MessageComponentData().CustomID)
		switch act {
		case actionVerify:
			b.startVerification(i, key)
		case actionSwitch:
			b.requestSwitch(i, key)
		}
	case discordgo.InteractionModalSubmit:
		data := i.ModalSubmitData()
		if act, _ := parseCustomID(data.CustomID); act == actionCaptcha {
			b.completeVerification(i, textInputValue(data, captchaInputID))
		}
	}
}

func (b *Bot) startVerification(i *discordgo.Interaction, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()
	userID := interactionUserID(i)

	project, ok := b.projects.ByKey(key)
	if !ok {
		b.respond(ctx, i, ephemeral("❌ Unknown project."))
		return
	}

	code, err := b.verifier.Start(ctx, userID, project, func() {
		b.timeUp(i, userID)
	})
	if err != nil {
		var rej *verification.Rejection
		if errors.As(err, &rej) {
			if !errors.Is(err, domain.ErrAlreadyVerified) {
				slog.Warn("verification refused", "user_id", userID, "project", key, "err", err)
			}
			b.respond(ctx, i, ephemeral(rej.Message))
			return
		}
		slog.Error("could not start verification", "user_id", userID, "err", err)
		b.respond(ctx, i, ephemeral("❌ Something went wrong. Please try again later."))
		return
	}
	b.respond(ctx, i, captchaModal(project, code))
}

// timeUp tells the user their challenge expired, through the button interaction's follow-up.
func (b *Bot) timeUp(i *discordgo.Interaction, userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()
	_, err := b.api.FollowupMessageCreate(i, false, &discordgo.WebhookParams{
		Content: verification.MsgTimeUp,
		Flags:   discordgo.MessageFlagsEphemeral,
	}, discordgo.WithContext(ctx))
	if err != nil {
		slog.Debug("could not send expiry notice", "user_id", userID, "err", err)
	}
}

func (b *Bot) completeVerification(i *discordgo.Interaction, input string) {
	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	res := b.verifier.Complete(ctx, interactionUserID(i), input)
	switch {
	case res.Granted:
		b.respond(ctx, i, ephemeralEmbed(res.Message, colorGreen))
	case res.Outcome == domain.OutcomeMismatch, res.Outcome == domain.OutcomeSuccess:
		b.respond(ctx, i, ephemeralEmbed(res.Message, colorRed))
	default:
		b.respond(ctx, i, ephemeral(res.Message))
	}
}

func (b *Bot) requestSwitch(i *discordgo.Interaction, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), switchWaitTimeout)
	defer cancel()
	userID := interactionUserID(i)
	slog.Info("role switch requested", "user_id", userID, "target", key)

	b.switcher.Switch(ctx, switching.Request{
		GuildID:   i.GuildID,
		UserID:    userID,
		Target:    key,
		Responder: &responder{api: b.api, interaction: i, projects: b.projects},
	})
}

func (b *Bot) respond(ctx context.Context, i *discordgo.Interaction, resp *discordgo.InteractionResponse) {
	if err := b.api.InteractionRespond(i, resp, discordgo.WithContext(ctx)); err != nil {
		slog.Error("failed to respond to interaction", "user_id", interactionUserID(i), "err", mapError(err))
	}
}
