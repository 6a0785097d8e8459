package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"activeclub/gateway/internal/config"
)

type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
)

func (s State) String() string {
	if s == StateAuthenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Lifecycle is the process-wide session state machine. Two triggers feed one
// idempotent Revalidate: a periodic timer and the app-foreground hook. Both
// may fire close together; redundant redirect notifications are harmless.
type Lifecycle struct {
	sessions *Store
	cron     *cron.Cron
	interval string
	log      zerolog.Logger

	mu          sync.Mutex
	state       State
	subscribers []func(reason string)
}

func NewLifecycle(sessions *Store, cfg config.SessionConfig, log zerolog.Logger) *Lifecycle {
	return &Lifecycle{
		sessions: sessions,
		cron:     cron.New(),
		interval: fmt.Sprintf("@every %s", cfg.RevalidateInterval),
		log:      log,
		state:    StateUnauthenticated,
	}
}

// Start seeds the state from the persisted session and begins periodic
// revalidation.
func (l *Lifecycle) Start(ctx context.Context) error {
	l.Revalidate(ctx)

	if _, err := l.cron.AddFunc(l.interval, func() {
		l.Revalidate(context.Background())
	}); err != nil {
		return fmt.Errorf("schedule revalidation: %w", err)
	}

	l.cron.Start()
	return nil
}

func (l *Lifecycle) Stop() {
	l.cron.Stop()
}

func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Revalidate re-reads the persisted session and resolves to one of the two
// states. A session that has gone missing while authenticated triggers the
// redirect-to-login notification.
func (l *Lifecycle) Revalidate(ctx context.Context) {
	sess, err := l.sessions.Load(ctx)
	if err != nil {
		l.log.Error().Err(err).Msg("session revalidation failed")
		return
	}

	if sess != nil {
		l.transition(StateAuthenticated, "")
		return
	}
	l.transition(StateUnauthenticated, "expired")
}

// Foreground is the app-foreground adapter: an immediate revalidation so an
// expiry during backgrounding is caught without waiting for the timer.
func (l *Lifecycle) Foreground(ctx context.Context) {
	l.Revalidate(ctx)
}

// MarkAuthenticated records a fresh login without a storage round-trip.
func (l *Lifecycle) MarkAuthenticated() {
	l.mu.Lock()
	l.state = StateAuthenticated
	l.mu.Unlock()
}

// Invalidate clears the session and forces the unauthenticated state. Used on
// explicit logout and on an authentication-rejected backend response.
func (l *Lifecycle) Invalidate(ctx context.Context, reason string) {
	if err := l.sessions.Clear(ctx); err != nil {
		l.log.Error().Err(err).Str("reason", reason).Msg("session clear failed")
	}
	l.transition(StateUnauthenticated, reason)
}

// OnInvalidated registers a listener for the session-invalidated signal. The
// navigation decision belongs to the caller, not this layer.
func (l *Lifecycle) OnInvalidated(fn func(reason string)) {
	l.mu.Lock()
	l.subscribers = append(l.subscribers, fn)
	l.mu.Unlock()
}

func (l *Lifecycle) transition(next State, reason string) {
	l.mu.Lock()
	prev := l.state
	l.state = next
	var notify []func(reason string)
	if prev == StateAuthenticated && next == StateUnauthenticated {
		notify = append(notify, l.subscribers...)
	}
	l.mu.Unlock()

	if prev != next {
		l.log.Info().
			Str("from", prev.String()).
			Str("to", next.String()).
			Str("reason", reason).
			Msg("session state changed")
	}
	for _, fn := range notify {
		fn(reason)
	}
}
