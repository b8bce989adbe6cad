package browser

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/samvidha-portal-api/pkg/errors"
)

// Factory constructs a new Session when the pool grows.
type Factory func(ctx context.Context) (Session, error)

// PoolConfig tunes pool behaviour.
type PoolConfig struct {
	Capacity       int
	AcquireTimeout time.Duration
	ResetTimeout   time.Duration
	Logger         *zap.Logger
}

// Pool bounds the number of concurrently live browser sessions. Idle
// sessions are reused; capacity tokens travel through a channel so no lock
// is held while a caller blocks waiting for availability.
type Pool struct {
	factory        Factory
	tokens         chan struct{}
	acquireTimeout time.Duration
	resetTimeout   time.Duration
	logger         *zap.Logger

	mu     sync.Mutex
	idle   []Session
	active map[Session]struct{}
	closed bool
}

// NewPool builds a pool of at most cfg.Capacity sessions.
func NewPool(factory Factory, cfg PoolConfig) *Pool {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 3
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = 30 * time.Second
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	tokens := make(chan struct{}, cfg.Capacity)
	for i := 0; i < cfg.Capacity; i++ {
		tokens <- struct{}{}
	}

	return &Pool{
		factory:        factory,
		tokens:         tokens,
		acquireTimeout: cfg.AcquireTimeout,
		resetTimeout:   cfg.ResetTimeout,
		logger:         cfg.Logger,
		active:         make(map[Session]struct{}),
	}
}

// Acquire hands out an idle session, constructs a new one while capacity
// remains, or blocks until one is released. It fails with ErrPoolTimeout
// once the acquire timeout (or the caller's deadline) elapses.
func (p *Pool) Acquire(ctx context.Context) (Session, error) {
	timer := time.NewTimer(p.acquireTimeout)
	defer timer.Stop()

	select {
	case <-p.tokens:
	case <-ctx.Done():
		return nil, appErrors.Wrap(ctx.Err(), appErrors.ErrPoolTimeout.Code,
			appErrors.ErrPoolTimeout.Status, appErrors.ErrPoolTimeout.Message)
	case <-timer.C:
		return nil, appErrors.ErrPoolTimeout
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.tokens <- struct{}{}
		return nil, appErrors.ErrPoolClosed
	}
	if n := len(p.idle); n > 0 {
		sess := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.active[sess] = struct{}{}
		p.mu.Unlock()
		return sess, nil
	}
	p.mu.Unlock()

	sess, err := p.factory(ctx)
	if err != nil {
		p.tokens <- struct{}{}
		return nil, appErrors.Wrap(err, appErrors.ErrScrapeFailed.Code,
			appErrors.ErrScrapeFailed.Status, "failed to start a browser session")
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		sess.Close()
		p.tokens <- struct{}{}
		return nil, appErrors.ErrPoolClosed
	}
	p.active[sess] = struct{}{}
	p.mu.Unlock()
	p.logger.Debug("browser session created", zap.String("session_id", sess.ID()))
	return sess, nil
}

// Release recycles the session for reuse. A session that fails to reset is
// discarded instead of being handed to the next borrower in a dirty state.
func (p *Pool) Release(sess Session) {
	if sess == nil {
		return
	}

	p.mu.Lock()
	delete(p.active, sess)
	closed := p.closed
	p.mu.Unlock()

	if closed {
		sess.Close()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.resetTimeout)
	err := sess.Reset(ctx)
	cancel()
	if err != nil {
		p.logger.Warn("session reset failed, discarding",
			zap.String("session_id", sess.ID()), zap.Error(err))
		sess.Close()
	} else {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			sess.Close()
			p.tokens <- struct{}{}
			return
		}
		p.idle = append(p.idle, sess)
		p.mu.Unlock()
	}

	p.tokens <- struct{}{}
}

// Stats reports live (idle + active) and idle session counts.
func (p *Pool) Stats() (live int, idle int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle) + len(p.active), len(p.idle)
}

// Close tears down every session, idle and active. Subsequent Acquire calls
// fail with ErrPoolClosed.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	sessions := make([]Session, 0, len(p.idle)+len(p.active))
	sessions = append(sessions, p.idle...)
	for sess := range p.active {
		sessions = append(sessions, sess)
	}
	p.idle = nil
	p.active = map[Session]struct{}{}
	p.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
	p.logger.Info("browser pool closed", zap.Int("torn_down", len(sessions)))
}
