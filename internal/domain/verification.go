package domain

import "time"

// VerificationSession is a pending CAPTCHA challenge. One per user; a new one replaces the old.
type VerificationSession struct {
	UserID    string
	Code      string // 6 ASCII digits
	Project   Project
	CreatedAt time.Time
}

// VerificationOutcome is the result of submitting a code.
type VerificationOutcome int

const (
	OutcomeExpired VerificationOutcome = iota
	OutcomeMismatch
	OutcomeSuccess
)

func (o VerificationOutcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeMismatch:
		return "mismatch"
	default:
		return "expired"
	}
}
