package switching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rolegate/internal/application/cooldown"
	"github.com/go-rolegate/internal/domain"
)

const (
	defaultQueueSize   = 256
	defaultTaskTimeout = 30 * time.Second
)

// Gateway is the slice of the chat platform the switch workflow needs.
type Gateway interface {
	MemberRoles(ctx context.Context, guildID, userID string) ([]string, error)
	// SetMemberRoles replaces the member's whole role list in one call.
	SetMemberRoles(ctx context.Context, guildID, userID string, roleIDs []string) error
	Role(ctx context.Context, guildID, roleID string) (*domain.Role, error)
	CanManageRoles(ctx context.Context, guildID string) (bool, error)
}

// Responder drives the requester's interaction. Defer must wrap
// domain.ErrInteractionExpired when the platform no longer accepts the interaction.
type Responder interface {
	Defer(ctx context.Context) error
	Reply(ctx context.Context, out Outcome) error
	Notify(ctx context.Context, message string) error
}

// SnapshotStore is the persisted role snapshot document.
type SnapshotStore interface {
	Set(partition, userID string, roles []string)
	Take(partition, userID string) ([]string, bool)
	Clear(partition, userID string) bool
	Save(ctx context.Context) error
}

type Cooldowns interface {
	CheckAndArm(userID string) cooldown.Decision
}

// Recorder stores audit events. Failures are logged, never surfaced.
type Recorder interface {
	Record(ctx context.Context, e *domain.AuditEvent) error
}

// Alerter notifies operators about unexpected failures.
type Alerter interface {
	Alert(ctx context.Context, subject, message string) error
}

// Request asks for the requester to be moved into the Target project.
type Request struct {
	GuildID   string
	UserID    string
	Target    string // project key
	Responder Responder
}

type Deps struct {
	Gateway          Gateway
	Store            SnapshotStore
	Cooldowns        Cooldowns
	Recorder         Recorder // optional
	Alerter          Alerter  // optional
	Projects         domain.Projects
	GuildID          string
	ExceptionalRoles []string
	AuditRetention   time.Duration
	QueueSize        int
	TaskTimeout      time.Duration
}

type job struct {
	name string
	run  func(ctx context.Context)
}

// Coordinator runs every role switch, system-wide, one at a time in FIFO order.
// The snapshot store is only mutated from inside a queued job.
type Coordinator struct {
	gateway     Gateway
	store       SnapshotStore
	cooldowns   Cooldowns
	recorder    Recorder
	alerter     Alerter
	projects    domain.Projects
	guildID     string
	exceptional map[string]struct{}
	retention   time.Duration
	taskTimeout time.Duration

	jobs    chan job
	pending atomic.Int64

	mu       sync.Mutex
	stopping bool
	senders  int // enqueue calls between admission and hand-off
}

func NewCoordinator(deps Deps) *Coordinator {
	size := deps.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	timeout := deps.TaskTimeout
	if timeout <= 0 {
		timeout = defaultTaskTimeout
	}
	exceptional := make(map[string]struct{}, len(deps.ExceptionalRoles))
	for _, id := range deps.ExceptionalRoles {
		exceptional[id] = struct{}{}
	}
	return &Coordinator{
		gateway:     deps.Gateway,
		store:       deps.Store,
		cooldowns:   deps.Cooldowns,
		recorder:    deps.Recorder,
		alerter:     deps.Alerter,
		projects:    deps.Projects,
		guildID:     deps.GuildID,
		exceptional: exceptional,
		retention:   deps.AuditRetention,
		taskTimeout: timeout,
		jobs:        make(chan job, size),
	}
}

// Run is the single worker. It returns once ctx is cancelled and every job
// that was admitted has finished; queued jobs run on a context detached from ctx.
func (c *Coordinator) Run(ctx context.Context) {
	base := context.WithoutCancel(ctx)
	for {
		select {
		case j := <-c.jobs:
			c.execute(base, j)
		case <-ctx.Done():
			c.mu.Lock()
			c.stopping = true
			c.mu.Unlock()
			c.drain(base)
			return
		}
	}
}

// drain runs what is left once admission has stopped. Senders admitted
// before the stop are still handing off, so it waits for them too.
func (c *Coordinator) drain(base context.Context) {
	for {
		select {
		case j := <-c.jobs:
			c.execute(base, j)
			continue
		default:
		}
		c.mu.Lock()
		idle := c.senders == 0
		c.mu.Unlock()
		if idle {
			break
		}
		select {
		case j := <-c.jobs:
			c.execute(base, j)
		case <-time.After(time.Millisecond):
		}
	}
	// No sender can be admitted any more; empty the buffer.
	for {
		select {
		case j := <-c.jobs:
			c.execute(base, j)
		default:
			return
		}
	}
}

// Pending is the number of jobs queued or running.
func (c *Coordinator) Pending() int {
	return int(c.pending.Load())
}

// Switch queues req and waits for its outcome. The requester is answered
// through req.Responder regardless of whether the caller keeps waiting.
func (c *Coordinator) Switch(ctx context.Context, req Request) Outcome {
	done := make(chan Outcome, 1)
	err := c.enqueue(ctx, job{name: "switch", run: func(jctx context.Context) {
		done <- c.process(jctx, req)
	}})
	if err != nil {
		slog.Error("could not queue role switch", "user_id", req.UserID, "err", err)
		if nerr := req.Responder.Notify(ctx, msgFailed); nerr != nil {
			slog.Warn("could not notify rejected switch", "user_id", req.UserID, "err", nerr)
		}
		return failed()
	}
	// An admitted job always runs, during shutdown too.
	select {
	case out := <-done:
		return out
	case <-ctx.Done():
		return failed()
	}
}

// ClearSnapshot removes a user's snapshot for partition through the queue,
// keeping the coordinator the only writer of the store.
func (c *Coordinator) ClearSnapshot(ctx context.Context, partition, userID string) (bool, error) {
	type result struct {
		existed bool
		err     error
	}
	done := make(chan result, 1)
	err := c.enqueue(ctx, job{name: "clear-snapshot", run: func(jctx context.Context) {
		existed := c.store.Clear(partition, userID)
		var saveErr error
		if existed {
			saveErr = c.store.Save(jctx)
		}
		done <- result{existed: existed, err: saveErr}
	}})
	if err != nil {
		return false, err
	}
	select {
	case r := <-done:
		return r.existed, r.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (c *Coordinator) enqueue(ctx context.Context, j job) error {
	c.mu.Lock()
	if c.stopping {
		c.mu.Unlock()
		return domain.ErrQueueClosed
	}
	c.senders++
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.senders--
		c.mu.Unlock()
	}()

	c.pending.Add(1)
	select {
	case c.jobs <- j:
		return nil
	case <-ctx.Done():
		c.pending.Add(-1)
		return ctx.Err()
	}
}

// execute runs one job behind a recover boundary so a failing job can never
// stall the jobs queued behind it.
func (c *Coordinator) execute(base context.Context, j job) {
	ctx, cancel := context.WithTimeout(base, c.taskTimeout)
	defer cancel()
	defer c.pending.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("queued job panicked", "job", j.name, "panic", r)
		}
	}()
	j.run(ctx)
}

func (c *Coordinator) alert(subject, message string) {
	if c.alerter == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.alerter.Alert(ctx, subject, message); err != nil {
			slog.Warn("failed to send operator alert", "err", err)
		}
	}()
}

func isRoleMissing(err error) bool {
	return errors.Is(err, domain.ErrRoleNotFound) || errors.Is(err, domain.ErrNotFound)
}

func wrapGateway(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
