package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rolegate/internal/domain"
)

// Backend is the durable home of the snapshot document.
type Backend interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// Mirror receives a copy of every document that was durably written.
type Mirror interface {
	Put(ctx context.Context, data []byte) error
}

// Store is the in-memory snapshot document plus best-effort persistence.
// The in-memory copy is authoritative; Save never gates a role change.
//
// Only the switch coordinator mutates the document, from inside its queue,
// so Set/Take/Clear/Save never race each other. The lock exists for the
// read-only ops API.
type Store struct {
	mu         sync.RWMutex
	data       domain.RoleSnapshots
	partitions []string
	backend    Backend
	mirror     Mirror
}

// NewStore returns an empty store for the given partitions. mirror may be nil.
func NewStore(backend Backend, mirror Mirror, partitions ...string) *Store {
	return &Store{
		data:       domain.NewRoleSnapshots(partitions...),
		partitions: partitions,
		backend:    backend,
		mirror:     mirror,
	}
}

// Load replaces the in-memory document with the persisted one.
// Missing or unreadable data is logged and leaves an empty document.
func (s *Store) Load(ctx context.Context) {
	doc := domain.NewRoleSnapshots(s.partitions...)
	raw, err := s.backend.Read(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		slog.Info("no role data found, starting empty")
	case err != nil:
		slog.Error("failed to read role data, starting empty", "err", err)
	default:
		var parsed domain.RoleSnapshots
		if err := json.Unmarshal(raw, &parsed); err != nil {
			slog.Error("failed to parse role data, starting empty", "err", err)
		} else if parsed != nil {
			parsed.Ensure(s.partitions...)
			doc = parsed
			slog.Info("role data loaded", "users", countUsers(doc))
		}
	}

	s.mu.Lock()
	s.data = doc
	s.mu.Unlock()
}

// Save serialises the whole document and overwrites the backend.
// The error is logged here; callers may ignore it.
func (s *Store) Save(ctx context.Context) error {
	s.mu.RLock()
	raw, err := json.MarshalIndent(s.data, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		slog.Error("failed to marshal role data", "err", err)
		return fmt.Errorf("marshal role data: %w", err)
	}
	if err := s.backend.Write(ctx, raw); err != nil {
		slog.Error("failed to save role data", "err", err)
		return fmt.Errorf("save role data: %w", err)
	}
	if s.mirror != nil {
		if err := s.mirror.Put(ctx, raw); err != nil {
			slog.Warn("failed to mirror role data", "err", err)
		}
	}
	return nil
}

// Set stores roles as the user's snapshot for partition, replacing any previous one.
func (s *Store) Set(partition, userID string, roles []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bucket(partition)[userID] = append([]string{}, roles...)
}

// Take returns a copy of the user's snapshot for partition without removing it.
func (s *Store) Take(partition, userID string) ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roles, ok := s.data[partition][userID]
	if !ok {
		return nil, false
	}
	return append([]string{}, roles...), true
}

// Clear deletes the user's snapshot for partition and reports whether one existed.
func (s *Store) Clear(partition, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[partition][userID]; !ok {
		return false
	}
	delete(s.data[partition], userID)
	return true
}

// Get returns every snapshot held for the user, keyed by partition.
func (s *Store) Get(userID string) map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]string)
	for partition, users := range s.data {
		if roles, ok := users[userID]; ok {
			out[partition] = append([]string{}, roles...)
		}
	}
	return out
}

// HasPartition reports whether partition is one the store was built for.
func (s *Store) HasPartition(partition string) bool {
	for _, p := range s.partitions {
		if p == partition {
			return true
		}
	}
	return false
}

func (s *Store) bucket(partition string) map[string][]string {
	b, ok := s.data[partition]
	if !ok {
		b = map[string][]string{}
		s.data[partition] = b
	}
	return b
}

func countUsers(doc domain.RoleSnapshots) int {
	n := 0
	for _, users := range doc {
		n += len(users)
	}
	return n
}
