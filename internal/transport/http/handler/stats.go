package handler

import "net/http"

// Pender reports work that is queued or waiting.
type Pender interface {
	Pending() int
}

type ActiveCounter interface {
	Active() int
}

type StatsHandler struct {
	queue     Pender
	captchas  Pender
	cooldowns ActiveCounter
}

func NewStatsHandler(queue, captchas Pender, cooldowns ActiveCounter) *StatsHandler {
	return &StatsHandler{queue: queue, captchas: captchas, cooldowns: cooldowns}
}

func (h *StatsHandler) Get(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatsEnvelope{
		QueueDepth:      h.queue.Pending(),
		PendingCaptchas: h.captchas.Pending(),
		ActiveCooldowns: h.cooldowns.Active(),
	})
}
