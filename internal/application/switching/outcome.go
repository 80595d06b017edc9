package switching

import "github.com/go-rolegate/internal/domain"

// Status classifies how a switch request ended.
type Status int

const (
	StatusSwitched Status = iota
	StatusCooldown
	StatusIneligible
	StatusFailed
	StatusUnacknowledged
)

func (s Status) String() string {
	switch s {
	case StatusSwitched:
		return "switched"
	case StatusCooldown:
		return "cooldown"
	case StatusIneligible:
		return "ineligible"
	case StatusUnacknowledged:
		return "unacknowledged"
	default:
		return "failed"
	}
}

// Outcome is the final, user-facing result of a switch request.
type Outcome struct {
	Status   Status
	Project  domain.Project // set when Status is StatusSwitched
	RoleName string         // primary role name of Project
	Restored int            // roles brought back from the project's snapshot
	Message  string
}

const (
	msgFailed         = "❌ An error occurred while switching roles. Please try again later."
	msgUnacknowledged = "an error occurred while processing your request. Please try again."
	msgWrongServer    = "❌ This bot is only active in the designated server!"
	msgNoManageRoles  = "❌ Bot lacks Manage Roles permission!"
	msgUnknownProject = "❌ Unknown project."
)

func failed() Outcome {
	return Outcome{Status: StatusFailed, Message: msgFailed}
}

func ineligible(msg string) Outcome {
	return Outcome{Status: StatusIneligible, Message: msg}
}
