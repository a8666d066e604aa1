package syncer

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/screwyprof/stakesync/pkg/clock"
	"github.com/screwyprof/stakesync/staking"
)

// Role is the kind of user the scheduler polls for
type Role string

const (
	RoleOperator  Role = "operator"
	RoleDelegator Role = "delegator"
)

// ParseRole validates a role name
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleOperator, RoleDelegator:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// DataClass is the kind of data one loop keeps fresh
type DataClass string

const (
	ClassLanding DataClass = "landing"
	ClassUser    DataClass = "user"
	ClassVault   DataClass = "vault"
)

// ParseDataClass validates a data class name
func ParseDataClass(s string) (DataClass, error) {
	switch c := DataClass(s); c {
	case ClassLanding, ClassUser, ClassVault:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownClass, s)
	}
}

// Key identifies one polling loop and its committed slot
type Key struct {
	Role  Role      `json:"role"`
	Class DataClass `json:"class"`
}

func (k Key) String() string {
	return string(k.Role) + "/" + string(k.Class)
}

// Keys returns the loops a role runs
func Keys(role Role) []Key {
	switch role {
	case RoleOperator:
		return []Key{{RoleOperator, ClassLanding}, {RoleOperator, ClassUser}}
	case RoleDelegator:
		return []Key{{RoleDelegator, ClassLanding}, {RoleDelegator, ClassUser}, {RoleDelegator, ClassVault}}
	default:
		return nil
	}
}

// Committed is the last value a loop committed. It is replaced as a whole and
// never modified once published.
type Committed struct {
	Key         Key       `json:"key"`
	Wallet      string    `json:"wallet"`
	Value       any       `json:"value"`
	Iteration   uint64    `json:"iteration"`
	CommittedAt time.Time `json:"committedAt"`
	Fallback    bool      `json:"fallback"`
	Err         string    `json:"error,omitempty"`
}

// Source reads the per-class data
type Source interface {
	LandingStats(ctx context.Context) (staking.LandingStats, error)
	OperatorStats(ctx context.Context, ssn string) (staking.OperatorStats, error)
	DelegatorStats(ctx context.Context, deleg string) (staking.DelegatorStats, error)
}

// Aggregator merges every vault of an owner
type Aggregator interface {
	Aggregate(ctx context.Context, owner string) (map[staking.VaultID]staking.VaultView, error)
}

// Option configures the Scheduler
// ------------------------------------------------
type Option func(*Scheduler)

// WithClock injects a custom Clock (e.g., for testing)
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithInterval sets the polling interval of a data class
func WithInterval(class DataClass, d time.Duration) Option {
	return func(s *Scheduler) { s.intervals[class] = d }
}

// WithEventBuffer sets the capacity of the events channel
func WithEventBuffer(n int) Option {
	return func(s *Scheduler) { s.events = make(chan Event, max(n, 0)) }
}

// WithMetrics records passes, running loops and dropped events
func WithMetrics(m *Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// Scheduler runs the polling loops of at most one role at a time
// ---------------------------------------------------------------
//
// Each loop fetches, derives and commits, then sleeps its interval. Stopping is
// cooperative: a pass in flight completes and commits before the loop exits, and
// a stop received while sleeping exits without another pass. Failed passes
// commit the zero value of their class with Fallback set.
type Scheduler struct {
	source    Source
	vaults    Aggregator
	clock     Clock
	intervals map[DataClass]time.Duration
	metrics   *Metrics

	// slots is filled at construction and never modified afterwards, so reads
	// need no lock.
	slots map[Key]*atomic.Pointer[Committed]

	// transition serializes starting, stopping and shutdown. It is held while
	// loops are drained; mu only guards the fields below and is never held
	// while waiting.
	transition sync.Mutex

	mu      sync.Mutex
	ctx     context.Context
	done    chan struct{}
	closed  bool
	session *session

	events  chan Event
	dropped atomic.Uint64
}

type session struct {
	role   Role
	wallet string
	loops  map[Key]*loop
}

type loop struct {
	stop chan struct{}
	done chan struct{}
}

// NewScheduler constructs a Scheduler with required dependencies and options
// ---------------------------------------------------------------------
// By default, it uses a real clock and polls landing data every 30s, user
// data every 10s and vault data every 20s.
func NewScheduler(source Source, vaults Aggregator, opts ...Option) *Scheduler {
	s := &Scheduler{
		source: source,
		vaults: vaults,
		clock:  clock.SystemClock{},
		intervals: map[DataClass]time.Duration{
			ClassLanding: DefaultLandingInterval,
			ClassUser:    DefaultUserInterval,
			ClassVault:   DefaultVaultInterval,
		},
		slots:  make(map[Key]*atomic.Pointer[Committed]),
		events: make(chan Event, DefaultEventBuffer),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, role := range []Role{RoleOperator, RoleDelegator} {
		for _, key := range Keys(role) {
			s.slots[key] = new(atomic.Pointer[Committed])
		}
	}
	return s
}

// Start binds the scheduler to ctx and returns the events channel and done channel.
//
// Shutdown pattern:
//  1. Cancel context to request shutdown: cancel()
//  2. Every running loop is stopped and the events channel is closed
//  3. Wait for complete shutdown: <-done
//
// Start must be called before StartPolling. Later calls return the channels of
// the first one and leave its context in charge.
func (s *Scheduler) Start(ctx context.Context) (<-chan Event, <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return s.events, s.done
	}
	s.ctx = ctx
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		<-ctx.Done()

		s.transition.Lock()
		defer s.transition.Unlock()

		s.mu.Lock()
		sess := s.detachLocked()
		s.closed = true
		s.mu.Unlock()

		s.drain(sess, ctx.Err())
		close(s.events)
	}()
	return s.events, s.done
}

// StartPolling starts the loops of role for wallet. Starting what already runs
// is a no-op; a different role or wallet first stops the running loops.
func (s *Scheduler) StartPolling(role Role, wallet string) error {
	if _, err := ParseRole(string(role)); err != nil {
		return err
	}
	wallet, err := staking.NormalizeAddress(wallet)
	if err != nil {
		return err
	}

	s.transition.Lock()
	defer s.transition.Unlock()

	s.mu.Lock()
	if s.ctx == nil || s.closed {
		s.mu.Unlock()
		return ErrNotStarted
	}
	if s.session != nil && s.session.role == role && s.session.wallet == wallet {
		s.mu.Unlock()
		return nil
	}
	prev := s.detachLocked()
	s.mu.Unlock()

	s.drain(prev, nil)

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := &session{role: role, wallet: wallet, loops: make(map[Key]*loop)}
	for _, key := range Keys(role) {
		s.slots[key].Store(nil)

		l := &loop{stop: make(chan struct{}), done: make(chan struct{})}
		sess.loops[key] = l
		s.metrics.loopStarted()
		go s.run(s.ctx, key, wallet, l)

		s.emit(PollingStarted{Key: key, Wallet: wallet, Interval: s.intervals[key.Class]})
	}
	s.session = sess
	return nil
}

// StopPolling stops the loops of role and waits for them to exit. Stopping a
// role that is not running is a no-op.
func (s *Scheduler) StopPolling(role Role) error {
	if _, err := ParseRole(string(role)); err != nil {
		return err
	}

	s.transition.Lock()
	defer s.transition.Unlock()

	s.mu.Lock()
	if s.session == nil || s.session.role != role {
		s.mu.Unlock()
		return nil
	}
	sess := s.detachLocked()
	s.mu.Unlock()

	s.drain(sess, nil)
	return nil
}

// Committed returns the last value committed for key, if any
func (s *Scheduler) Committed(key Key) (Committed, bool) {
	slot, ok := s.slots[key]
	if !ok {
		return Committed{}, false
	}
	c := slot.Load()
	if c == nil {
		return Committed{}, false
	}
	return *c, true
}

// Running reports whether the loop of key is running
func (s *Scheduler) Running(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return false
	}
	_, ok := s.session.loops[key]
	return ok
}

// Active returns the running role and wallet
func (s *Scheduler) Active() (Role, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return "", "", false
	}
	return s.session.role, s.session.wallet, true
}

// Dropped returns how many events were dropped because nobody drained them
func (s *Scheduler) Dropped() uint64 {
	return s.dropped.Load()
}

// detachLocked signals every loop of the running session and forgets it, so
// Active and Running report nothing while the loops drain. Callers hold s.mu.
func (s *Scheduler) detachLocked() *session {
	sess := s.session
	if sess == nil {
		return nil
	}
	for _, l := range sess.loops {
		close(l.stop)
	}
	s.session = nil
	return sess
}

// drain waits for every loop of a detached session. Callers hold s.transition
// but not s.mu.
func (s *Scheduler) drain(sess *session, reason error) {
	if sess == nil {
		return
	}
	for key, l := range sess.loops {
		<-l.done
		s.metrics.loopStopped()
		s.emit(PollingStopped{Key: key, Wallet: sess.wallet, Reason: reason})
	}
}

// run is one polling loop. Its first pass starts immediately.
func (s *Scheduler) run(ctx context.Context, key Key, wallet string, l *loop) {
	defer close(l.done)

	interval := s.intervals[key.Class]
	for iteration := uint64(1); ; iteration++ {
		if stopped(ctx, l) {
			return
		}

		s.pass(ctx, key, wallet, iteration)

		select {
		case <-l.stop:
			return
		case <-ctx.Done():
			return
		case <-s.clock.After(interval):
		}
	}
}

// pass fetches, derives and commits once
func (s *Scheduler) pass(ctx context.Context, key Key, wallet string, iteration uint64) {
	start := s.clock.Now()
	value, err := s.fetch(ctx, key, wallet)
	if err != nil && ctx.Err() != nil {
		// shutting down; keep what was committed
		return
	}

	c := &Committed{
		Key:         key,
		Wallet:      wallet,
		Value:       value,
		Iteration:   iteration,
		CommittedAt: s.clock.Now(),
	}
	elapsed := c.CommittedAt.Sub(start)

	if err != nil {
		c.Value = fallback(key, wallet)
		c.Fallback = true
		c.Err = err.Error()
		s.slots[key].Store(c)
		s.metrics.pass(key, "fallback", elapsed)
		s.emit(PollingError{Key: key, Wallet: wallet, Iteration: iteration, Err: err})
		return
	}

	s.slots[key].Store(c)
	s.metrics.pass(key, "success", elapsed)
	s.emit(PollingSyncCompleted{Key: key, Wallet: wallet, Iteration: iteration, Duration: elapsed})
}

// fetch reads and derives the value of key. A panic is returned as ErrDerivationPanic.
func (s *Scheduler) fetch(ctx context.Context, key Key, wallet string) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value, err = nil, fmt.Errorf("%w: %v", ErrDerivationPanic, r)
		}
	}()

	switch {
	case key.Class == ClassLanding:
		return s.source.LandingStats(ctx)
	case key == Key{RoleOperator, ClassUser}:
		return s.source.OperatorStats(ctx, wallet)
	case key == Key{RoleDelegator, ClassUser}:
		return s.source.DelegatorStats(ctx, wallet)
	case key == Key{RoleDelegator, ClassVault}:
		return s.vaults.Aggregate(ctx, wallet)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, key)
	}
}

// fallback is the value committed when a pass fails
func fallback(key Key, wallet string) any {
	switch {
	case key.Class == ClassLanding:
		return staking.LandingStats{}
	case key.Role == RoleOperator:
		return staking.OperatorStats{NodeInfo: staking.NodeInfo{Address: wallet}}
	case key.Class == ClassVault:
		return map[staking.VaultID]staking.VaultView{}
	default:
		return staking.EmptyDelegatorStats(wallet)
	}
}

// emit never blocks a loop: when the buffer is full the event is dropped
func (s *Scheduler) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
		s.dropped.Add(1)
		s.metrics.eventDropped()
	}
}

func stopped(ctx context.Context, l *loop) bool {
	select {
	case <-l.stop:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
