package discord

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-rolegate/internal/application/switching"
	"github.com/go-rolegate/internal/domain"
)

const (
	colorBlurple = 0x5865F2
	colorSky     = 0x00BFFF
	colorGreen   = 0x00FF00
	colorRed     = 0xFF0000
)

// Switch success embeds are tinted per project, A first.
var projectColors = [2]int{0x1E90FF, 0x32CD32}

func verificationPanel(projects domain.Projects, ttl time.Duration, avatarURL string) *discordgo.MessageSend {
	embed := &discordgo.MessageEmbed{
		Title: "🔐 Welcome! in Verification",
		Description: "To gain full access and participate in our community, please verify yourself by completing a quick CAPTCHA challenge.\n\n" +
			"**Instructions:**\n" +
			"1. Choose the verification project below.\n" +
			"2. A pop-up form will appear with a CAPTCHA code (visible only to you).\n" +
			fmt.Sprintf("3. Enter the code in the form (6 digits, you have %d seconds).\n", int(ttl.Seconds())) +
			"4. If successful, you'll enter the dedicated project instantly!",
		Color:     colorBlurple,
		Footer:    &discordgo.MessageEmbedFooter{Text: "Verification powered by OctoLabs", IconURL: avatarURL},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{CustomID: verifyID(projects.A.Key), Label: projects.A.Label, Style: discordgo.PrimaryButton},
				discordgo.Button{CustomID: verifyID(projects.B.Key), Label: projects.B.Label, Style: discordgo.SecondaryButton},
			}},
		},
	}
}

func switchPanel(projects domain.Projects, avatarURL string) *discordgo.MessageSend {
	var desc strings.Builder
	desc.WriteString("Choose a project to switch:\n\n")
	for _, p := range []domain.Project{projects.A, projects.B} {
		fmt.Fprintf(&desc, "🔹 **%s**\n", p.Label)
	}
	embed := &discordgo.MessageEmbed{
		Title:       "Switch Projects",
		Description: strings.TrimSuffix(desc.String(), "\n"),
		Color:       colorSky,
		Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: avatarURL},
		Footer:      &discordgo.MessageEmbedFooter{Text: "Click a button to switch Project!", IconURL: avatarURL},
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{CustomID: switchID(projects.A.Key), Label: projects.A.Label, Style: discordgo.PrimaryButton},
				discordgo.Button{CustomID: switchID(projects.B.Key), Label: projects.B.Label, Style: discordgo.SuccessButton},
			}},
		},
	}
}

// captchaModal shows the code in the input label; the user types it back.
func captchaModal(project domain.Project, code string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: modalID(project.Key),
			Title:    strings.ToUpper(project.Key) + " Verification",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    captchaInputID,
						Label:       "Enter this CAPTCHA code: " + code,
						Style:       discordgo.TextInputShort,
						Placeholder: "e.g., 123456",
						Required:    true,
						MinLength:   6,
						MaxLength:   6,
					},
				}},
			},
		},
	}
}

// switchedEmbed renders a successful switch. Other outcomes are plain text.
func switchedEmbed(projects domain.Projects, out switching.Outcome) *discordgo.MessageEmbed {
	color := projectColors[0]
	if out.Project.Key == projects.B.Key {
		color = projectColors[1]
	}
	return &discordgo.MessageEmbed{
		Title: "✅ Role Switch Successful",
		Description: fmt.Sprintf("You have switched to **%s**!\nYour roles have been updated to include the **%s** role.",
			out.Project.Label, out.RoleName),
		Color:     color,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

func ephemeral(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content, Flags: discordgo.MessageFlagsEphemeral},
	}
}

func ephemeralEmbed(description string, color int) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{{Description: description, Color: color}},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	}
}
