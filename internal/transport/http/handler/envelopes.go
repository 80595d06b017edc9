package handler

import (
	"encoding/json"
	"net/http"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StatsEnvelope reports the live in-memory state of the bot.
type StatsEnvelope struct {
	QueueDepth      int `json:"queue_depth"`
	PendingCaptchas int `json:"pending_captchas"`
	ActiveCooldowns int `json:"active_cooldowns"`
}

// SnapshotEnvelope lists a user's stored role snapshots by partition.
type SnapshotEnvelope struct {
	UserID    string              `json:"user_id"`
	Snapshots map[string][]string `json:"snapshots"`
	Error     string              `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}
