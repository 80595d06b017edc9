package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-rolegate/internal/domain"
	"github.com/go-rolegate/internal/pkg/validate"
	"github.com/go-rolegate/internal/transport/http/middleware"
)

// SnapshotReader is the read side of the role snapshot store.
type SnapshotReader interface {
	Get(userID string) map[string][]string
	HasPartition(partition string) bool
}

// SnapshotClearer removes a snapshot through the switch queue.
type SnapshotClearer interface {
	ClearSnapshot(ctx context.Context, partition, userID string) (bool, error)
}

// SnapshotHandler exposes stored role snapshots to administrators.
type SnapshotHandler struct {
	store   SnapshotReader
	clearer SnapshotClearer
}

func NewSnapshotHandler(store SnapshotReader, clearer SnapshotClearer) *SnapshotHandler {
	return &SnapshotHandler{store: store, clearer: clearer}
}

func (h *SnapshotHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if err := validate.Var(userID, "required,numeric"); err != nil {
		writeError(w, http.StatusBadRequest, "userId must be a numeric user ID")
		return
	}
	snaps := h.store.Get(userID)
	if len(snaps) == 0 {
		writeJSON(w, http.StatusNotFound, SnapshotEnvelope{UserID: userID, Error: "no snapshots stored"})
		return
	}
	writeJSON(w, http.StatusOK, SnapshotEnvelope{UserID: userID, Snapshots: snaps})
}

func (h *SnapshotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	partition := chi.URLParam(r, "partition")
	userID := chi.URLParam(r, "userId")
	if !h.store.HasPartition(partition) {
		writeError(w, http.StatusBadRequest, "unknown partition")
		return
	}
	if err := validate.Var(userID, "required,numeric"); err != nil {
		writeError(w, http.StatusBadRequest, "userId must be a numeric user ID")
		return
	}

	existed, err := h.clearer.ClearSnapshot(r.Context(), partition, userID)
	switch {
	case errors.Is(err, domain.ErrQueueClosed):
		writeError(w, http.StatusServiceUnavailable, "shutting down")
		return
	case err != nil:
		slog.Error("snapshot clear failed", "partition", partition, "user_id", userID, "err", err)
		writeError(w, http.StatusInternalServerError, "snapshot cleared in memory but could not be persisted")
		return
	case !existed:
		writeError(w, http.StatusNotFound, "no snapshot stored")
		return
	}

	operator := ""
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		operator = claims.Subject
	}
	slog.Info("snapshot cleared by operator", "operator", operator, "partition", partition, "user_id", userID)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "snapshot cleared"})
}
