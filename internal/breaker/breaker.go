// Package breaker implements a small circuit breaker for best-effort outbound calls.
package breaker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

// State is the breaker state.
type State int

// Breaker states.
const (
	Closed State = iota
	HalfOpen
	Open
)

// ErrOpen is returned without calling the operation while the breaker is open.
var ErrOpen = errors.New("circuit breaker is open; fast-fail")

// Config tunes when the breaker opens and how long it stays open.
type Config struct {
	MaxFailures  int
	ResetTimeout time.Duration
}

// DefaultConfig opens after three consecutive failures for one minute.
var DefaultConfig = Config{MaxFailures: 3, ResetTimeout: time.Minute}

// Option configures a Breaker.
type Option func(*Breaker)

// WithLogger sets the logger used for state transitions.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Breaker) { b.logger = logger }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) { b.now = now }
}

// OnStateChange registers fn to be called after every state transition.
func OnStateChange(fn func(name string, to State)) Option {
	return func(b *Breaker) { b.onChange = fn }
}

// Breaker guards an operation: after MaxFailures consecutive failures it
// fails fast for ResetTimeout, then lets a single trial call through.
type Breaker struct {
	name     string
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
	onChange func(name string, to State)

	mu          sync.Mutex
	state       State
	recentFails int
	openedAt    time.Time
}

// New returns a closed breaker.
func New(name string, cfg Config, opts ...Option) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = DefaultConfig.MaxFailures
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = DefaultConfig.ResetTimeout
	}
	b := &Breaker{
		name:   name,
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		state:  Closed,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Execute runs op unless the breaker is open. While open it returns ErrOpen.
// Once ResetTimeout has passed one trial call is allowed; concurrent callers
// keep failing fast until it completes.
func (b *Breaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	b.mu.Lock()
	switch b.state {
	case Open:
		if b.now().Sub(b.openedAt) < b.cfg.ResetTimeout {
			b.mu.Unlock()
			return ErrOpen
		}
		b.setState(HalfOpen)
	case HalfOpen:
		b.mu.Unlock()
		return ErrOpen
	}
	b.mu.Unlock()

	err := op(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.recentFails = 0
		if b.state != Closed {
			b.setState(Closed)
		}
		return nil
	}

	b.recentFails++
	b.logger.Debug("breaker_operation_failure", "name", b.name, "failures", b.recentFails, "error", err)
	if b.state == HalfOpen || b.recentFails >= b.cfg.MaxFailures {
		b.openedAt = b.now()
		b.setState(Open)
	}
	return err
}

// setState must be called with mu held.
func (b *Breaker) setState(to State) {
	if b.state == to {
		return
	}
	b.logger.Info("breaker_state_change", "name", b.name, "from", b.state.String(), "to", to.String())
	b.state = to
	if b.onChange != nil {
		b.onChange(b.name, to)
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case HalfOpen:
		return "half-open"
	case Open:
		return "open"
	default:
		return "unknown"
	}
}
