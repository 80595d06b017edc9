package http

import (
	"github.com/go-rolegate/internal/transport/http/handler"
	appmiddleware "github.com/go-rolegate/internal/transport/http/middleware"
)

// Deps holds everything the ops router reads from the running bot.
type Deps struct {
	// Verifier checks operator tokens. When nil, authenticated routes answer 503.
	Verifier  appmiddleware.TokenVerifier
	Ready     func() bool
	Queue     handler.Pender
	Captchas  handler.Pender
	Cooldowns handler.ActiveCounter
	Snapshots handler.SnapshotReader
	Clearer   handler.SnapshotClearer
}
