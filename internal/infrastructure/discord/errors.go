package discord

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/go-rolegate/internal/domain"
)

// JSON error codes returned by the Discord REST API.
const (
	codeUnknownMember      = 10007
	codeUnknownRole        = 10011
	codeUnknownInteraction = 10062
)

// mapError translates Discord REST errors into domain sentinels.
// Anything else is returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch restCode(err) {
	case codeUnknownInteraction:
		return fmt.Errorf("%w: %w", domain.ErrInteractionExpired, err)
	case codeUnknownRole:
		return fmt.Errorf("%w: %w", domain.ErrRoleNotFound, err)
	case codeUnknownMember:
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}
	return err
}

func restCode(err error) int {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Message != nil {
		return rest.Message.Code
	}
	return 0
}
