package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

const (
	verifySuffix   = "_verify"
	switchSuffix   = "_switch"
	modalPrefix    = "captcha_modal_"
	captchaInputID = "captcha_input"
)

type action int

const (
	actionUnknown action = iota
	actionVerify
	actionSwitch
	actionCaptcha
)

func verifyID(key string) string { return key + verifySuffix }
func switchID(key string) string { return key + switchSuffix }
func modalID(key string) string  { return modalPrefix + key }

// parseCustomID splits a component custom ID into its action and project key.
func parseCustomID(id string) (action, string) {
	switch {
	case strings.HasPrefix(id, modalPrefix):
		return actionCaptcha, strings.TrimPrefix(id, modalPrefix)
	case strings.HasSuffix(id, verifySuffix):
		return actionVerify, strings.TrimSuffix(id, verifySuffix)
	case strings.HasSuffix(id, switchSuffix):
		return actionSwitch, strings.TrimSuffix(id, switchSuffix)
	}
	return actionUnknown, ""
}

// textInputValue finds a text input by custom ID in a submitted modal.
func textInputValue(data discordgo.ModalSubmitInteractionData, customID string) string {
	for _, c := range data.Components {
		row, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if ti, ok := inner.(*discordgo.TextInput); ok && ti.CustomID == customID {
				return ti.Value
			}
		}
	}
	return ""
}

func interactionUserID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
