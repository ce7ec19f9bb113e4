package enabler

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultAttemptTimeout bounds how long an attempt may stay pending.
const DefaultAttemptTimeout = 5 * time.Minute

// AttemptState is Pending until the first accepted signal.
type AttemptState int

const (
	AttemptPending AttemptState = iota
	AttemptCompleted
)

// Attempt describes one in-flight payment interaction.
type Attempt struct {
	ID        string
	State     AttemptState
	StartedAt time.Time
	Deadline  time.Time
}

// ArbitratorConfig wires an Arbitrator.
type ArbitratorConfig struct {
	Timeout   time.Duration
	Listeners []Listener
	// OnComplete is called at most once with the first accepted outcome.
	OnComplete func(Result)
	// OnOutcome, when set, sees the accepted signal before OnComplete.
	OnOutcome func(Signal)
	Logger    *zap.Logger
}

// Arbitrator owns the lifecycle of one payment attempt.
type Arbitrator struct {
	cfg ArbitratorConfig
	log *zap.Logger

	mu      sync.Mutex
	attempt Attempt
	started bool
	outcome *Signal
	detach  []func()
	stop    func() bool

	now       func() time.Time
	afterFunc func(d time.Duration, fn func()) (stop func() bool)
}

func NewArbitrator(cfg ArbitratorConfig) *Arbitrator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultAttemptTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Arbitrator{
		cfg: cfg,
		log: log,
		now: time.Now,
		afterFunc: func(d time.Duration, fn func()) func() bool {
			return time.AfterFunc(d, fn).Stop
		},
	}
}

// Start arms the deadline and attaches every listener. A listener may emit
// during Attach, in which case the remaining ones are detached immediately.
func (a *Arbitrator) Start() (Attempt, error) {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return Attempt{}, ErrAlreadyStarted
	}
	a.started = true
	now := a.now()
	a.attempt = Attempt{
		ID:        uuid.NewString(),
		State:     AttemptPending,
		StartedAt: now,
		Deadline:  now.Add(a.cfg.Timeout),
	}
	a.stop = a.afterFunc(a.cfg.Timeout, a.expire)
	attempt := a.attempt
	a.mu.Unlock()

	a.log.Debug("payment attempt started", zap.String("attempt_id", attempt.ID), zap.Time("deadline", attempt.Deadline))

	for _, l := range a.cfg.Listeners {
		detach := l.Attach(a.onSignal)
		a.mu.Lock()
		done := a.attempt.State == AttemptCompleted
		if !done {
			a.detach = append(a.detach, detach)
		}
		a.mu.Unlock()
		if done {
			detach()
		}
	}
	return attempt, nil
}

// Attempt returns a snapshot of the attempt.
func (a *Arbitrator) Attempt() Attempt {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.attempt
}

// Outcome returns the accepted signal once the attempt completed.
func (a *Arbitrator) Outcome() (Signal, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.outcome == nil {
		return Signal{}, false
	}
	return *a.outcome, true
}

// Close tears the attempt down without reporting an outcome.
func (a *Arbitrator) Close() {
	a.mu.Lock()
	if a.attempt.State == AttemptCompleted {
		a.mu.Unlock()
		return
	}
	a.attempt.State = AttemptCompleted
	detach, stop := a.takeResources()
	a.mu.Unlock()
	release(detach, stop)
}

func (a *Arbitrator) expire() {
	a.onSignal(Signal{Kind: KindTimeout, Channel: ChannelTimer, Err: ErrAttemptTimeout})
}

// onSignal accepts the first signal of a started attempt and discards the rest.
func (a *Arbitrator) onSignal(sig Signal) {
	a.mu.Lock()
	if !a.started || a.attempt.State == AttemptCompleted {
		a.mu.Unlock()
		a.log.Debug("signal discarded", zap.String("kind", sig.Kind.String()), zap.String("channel", string(sig.Channel)))
		return
	}
	a.attempt.State = AttemptCompleted
	a.outcome = &sig
	detach, stop := a.takeResources()
	attemptID := a.attempt.ID
	a.mu.Unlock()

	release(detach, stop)

	a.log.Info("payment attempt completed",
		zap.String("attempt_id", attemptID),
		zap.String("kind", sig.Kind.String()),
		zap.String("channel", string(sig.Channel)),
		zap.String("reference", sig.Reference),
	)
	if a.cfg.OnOutcome != nil {
		a.cfg.OnOutcome(sig)
	}
	if a.cfg.OnComplete != nil {
		a.cfg.OnComplete(ResultOf(sig))
	}
}

// takeResources must be called with mu held.
func (a *Arbitrator) takeResources() ([]func(), func() bool) {
	detach, stop := a.detach, a.stop
	a.detach, a.stop = nil, nil
	return detach, stop
}

func release(detach []func(), stop func() bool) {
	if stop != nil {
		stop()
	}
	for _, d := range detach {
		d()
	}
}
