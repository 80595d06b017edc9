package verification

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/go-rolegate/internal/domain"
)

type pending struct {
	session domain.VerificationSession
	timer   *time.Timer
}

// Manager holds the pending CAPTCHA challenge of each user.
// Sessions live in memory only; a restart drops them silently.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*pending
	ttl      time.Duration
	now      func() time.Time
}

func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*pending),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Begin issues a fresh code for userID, replacing any pending session.
// If the session is still pending when the TTL elapses it is dropped and
// onExpire (if non-nil) runs on the timer goroutine.
func (m *Manager) Begin(userID string, project domain.Project, onExpire func()) (string, error) {
	code, err := newCode()
	if err != nil {
		return "", fmt.Errorf("generate captcha code: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.sessions[userID]; ok {
		prev.timer.Stop()
	}
	p := &pending{session: domain.VerificationSession{
		UserID:    userID,
		Code:      code,
		Project:   project,
		CreatedAt: m.now(),
	}}
	p.timer = time.AfterFunc(m.ttl, func() { m.expire(userID, p, onExpire) })
	m.sessions[userID] = p
	return code, nil
}

// Submit consumes the user's session. Any submission ends the session, right or wrong.
func (m *Manager) Submit(userID, input string) (domain.VerificationOutcome, domain.Project) {
	m.mu.Lock()
	p, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
		p.timer.Stop()
	}
	m.mu.Unlock()

	if !ok {
		return domain.OutcomeExpired, domain.Project{}
	}
	if m.now().Sub(p.session.CreatedAt) >= m.ttl {
		return domain.OutcomeExpired, p.session.Project
	}
	if subtle.ConstantTimeCompare([]byte(input), []byte(p.session.Code)) != 1 {
		return domain.OutcomeMismatch, p.session.Project
	}
	return domain.OutcomeSuccess, p.session.Project
}

// Pending returns the number of open sessions.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Stop cancels every pending expiry without firing callbacks.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.sessions {
		p.timer.Stop()
		delete(m.sessions, id)
	}
}

func (m *Manager) expire(userID string, p *pending, onExpire func()) {
	m.mu.Lock()
	current := m.sessions[userID] == p
	if current {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()

	if current && onExpire != nil {
		onExpire()
	}
}

// newCode returns a uniformly random code in 100000..999999.
func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
