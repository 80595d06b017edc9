package domain

import "time"

const (
	AuditKindSwitch = "switch"
	AuditKindVerify = "verify"
)

// AuditEvent records a completed switch or verification.
// PK: user_id, SK: event_id (ULID, time ordered).
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type AuditEvent struct {
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	EventID   string    `json:"event_id" dynamodbav:"event_id"`
	Kind      string    `json:"kind" dynamodbav:"kind"` // "switch" | "verify"
	Project   string    `json:"project" dynamodbav:"project"`
	Roles     []string  `json:"roles,omitempty" dynamodbav:"roles,omitempty"`
	Restored  int       `json:"restored" dynamodbav:"restored"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	ExpiresAt int64     `json:"expires_at" dynamodbav:"expires_at"`
}
